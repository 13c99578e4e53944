package auth

// CanView reports whether the principal may read a resource owned by the
// given organisation. Superadmins see across tenants; everyone else must
// match the resource's tenant exactly.
func CanView(p Principal, organisationID string) bool {
	if p.Role == RoleSuperadmin {
		return true
	}
	return p.OrganisationID != "" && p.OrganisationID == organisationID
}

// CanMutate uses the same rule as CanView; the system has no finer-grained
// write permission.
func CanMutate(p Principal, organisationID string) bool {
	return CanView(p, organisationID)
}

// Scope restricts list queries to one tenant. A zero OrganisationID with
// All unset matches nothing, which is the correct predicate for a
// mid-onboarding principal.
type Scope struct {
	All            bool
	OrganisationID string
}

// ScopeFor builds the tenant predicate for list queries so out-of-tenant
// rows are never fetched, not merely hidden after the fact.
func ScopeFor(p Principal) Scope {
	if p.Role == RoleSuperadmin {
		return Scope{All: true}
	}
	return Scope{OrganisationID: p.OrganisationID}
}
