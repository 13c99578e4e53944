package auth

import (
	"context"
	"testing"
)

func TestContextCarriesPrincipalAndToken(t *testing.T) {
	p := Principal{UserID: "user-1", Email: "agent@example.com", Role: RoleMember, OrganisationID: "org-1"}

	ctx := ContextWithToken(context.Background(), "raw-token")
	ctx = ContextWithPrincipal(ctx, p)

	got, ok := PrincipalFromContext(ctx)
	if !ok || got != p {
		t.Fatalf("principal round trip failed: %+v ok=%v", got, ok)
	}
	token, ok := TokenFromContext(ctx)
	if !ok || token != "raw-token" {
		t.Fatalf("attaching the principal must not drop the token, got %q ok=%v", token, ok)
	}
}

func TestContextZeroValues(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatal("empty context must not yield a principal")
	}
	if _, ok := TokenFromContext(context.Background()); ok {
		t.Fatal("empty context must not yield a token")
	}
	// A zero principal is still an authenticated (anonymous-claims) entry;
	// presence is tracked separately from field values.
	ctx := ContextWithPrincipal(context.Background(), Principal{})
	if _, ok := PrincipalFromContext(ctx); !ok {
		t.Fatal("explicitly attached principal must be reported present")
	}
	if ctx := ContextWithToken(context.Background(), ""); ctx != context.Background() {
		t.Fatal("empty token must not allocate a context entry")
	}
}
