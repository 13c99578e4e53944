package auth

import "testing"

func TestCanView(t *testing.T) {
	cases := []struct {
		name      string
		principal Principal
		orgID     string
		want      bool
	}{
		{"same tenant", Principal{Role: RoleMember, OrganisationID: "org-a"}, "org-a", true},
		{"other tenant", Principal{Role: RoleMember, OrganisationID: "org-a"}, "org-b", false},
		{"admin other tenant", Principal{Role: RoleAdmin, OrganisationID: "org-a"}, "org-b", false},
		{"superadmin any tenant", Principal{Role: RoleSuperadmin}, "org-b", true},
		{"no tenant", Principal{Role: RoleMember}, "org-a", false},
		{"no tenant empty resource", Principal{Role: RoleMember}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanView(tc.principal, tc.orgID); got != tc.want {
				t.Fatalf("CanView = %v, want %v", got, tc.want)
			}
			if got := CanMutate(tc.principal, tc.orgID); got != tc.want {
				t.Fatalf("CanMutate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScopeFor(t *testing.T) {
	scope := ScopeFor(Principal{Role: RoleSuperadmin, OrganisationID: "org-a"})
	if !scope.All {
		t.Fatal("superadmin scope must be unrestricted")
	}

	scope = ScopeFor(Principal{Role: RoleMember, OrganisationID: "org-a"})
	if scope.All || scope.OrganisationID != "org-a" {
		t.Fatalf("unexpected member scope: %+v", scope)
	}

	// Mid-onboarding principal matches no rows at all.
	scope = ScopeFor(Principal{Role: RoleMember})
	if scope.All || scope.OrganisationID != "" {
		t.Fatalf("unexpected tenantless scope: %+v", scope)
	}
}
