package auth

import "context"

// The gate stores the verified principal together with the raw token it
// came from, so downstream code can reissue or forward the credential
// without re-reading the request.
type sessionContextKey struct{}

type contextSession struct {
	principal     Principal
	authenticated bool
	token         string
}

func sessionFromContext(ctx context.Context) (contextSession, bool) {
	if ctx == nil {
		return contextSession{}, false
	}
	s, ok := ctx.Value(sessionContextKey{}).(contextSession)
	return s, ok
}

// ContextWithPrincipal records the authenticated principal, keeping any
// token already present.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	s, _ := sessionFromContext(ctx)
	s.principal = principal
	s.authenticated = true
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// PrincipalFromContext reports the principal the gate verified for this
// request, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	s, ok := sessionFromContext(ctx)
	if !ok || !s.authenticated {
		return Principal{}, false
	}
	return s.principal, true
}

// ContextWithToken records the raw bearer token alongside the principal.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	s, _ := sessionFromContext(ctx)
	s.token = token
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// TokenFromContext returns the raw token the request authenticated with.
func TokenFromContext(ctx context.Context) (string, bool) {
	s, ok := sessionFromContext(ctx)
	if !ok || s.token == "" {
		return "", false
	}
	return s.token, true
}
