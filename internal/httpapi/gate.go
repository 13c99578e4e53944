package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"propdesk.org/internal/auth"
)

const (
	authHeader  = "Authorization"
	bearer      = "Bearer "
	sessionName = "token"
)

type routeClass int

const (
	routePublic routeClass = iota
	routeSetup
	routeProtected
)

type routeKind int

const (
	kindAPI routeKind = iota
	kindPage
)

var publicAPIPaths = map[string]bool{
	"/healthz":          true,
	"/readyz":           true,
	"/metrics":          true,
	"/v1/info":          true,
	"/v1/auth/login":    true,
	"/v1/auth/register": true,
	"/v1/auth/test":     true,
}

var publicPagePaths = map[string]bool{
	"/":         true,
	"/login":    true,
	"/register": true,
}

// Setup routes stay reachable for an authenticated principal that has not
// joined an organisation yet; they are how onboarding completes.
var setupAPIPaths = map[string]bool{
	"/v1/auth/me":       true,
	"/v1/auth/logout":   true,
	"/v1/organizations": true,
}

// classify maps a request path onto (class, kind). Anything under /v1/ is
// an API route; everything else is treated as a browser navigation.
func classify(path string) (routeClass, routeKind) {
	if publicAPIPaths[path] {
		return routePublic, kindAPI
	}
	if strings.HasPrefix(path, "/v1/") {
		if setupAPIPaths[path] {
			return routeSetup, kindAPI
		}
		return routeProtected, kindAPI
	}
	if publicPagePaths[path] {
		return routePublic, kindPage
	}
	if path == "/onboarding" {
		return routeSetup, kindPage
	}
	return routeProtected, kindPage
}

type gateDecision int

const (
	gateAllow gateDecision = iota
	gateDeny
	gateRedirectLogin
	gateRedirectOnboarding
)

// decide is the pure gate function over route classification and token
// state. An unverifiable token is indistinguishable from a missing one.
func decide(class routeClass, kind routeKind, authenticated, onboarded bool) gateDecision {
	if class == routePublic {
		return gateAllow
	}
	if !authenticated {
		if kind == kindPage {
			return gateRedirectLogin
		}
		return gateDeny
	}
	if class == routeSetup {
		return gateAllow
	}
	if !onboarded && kind == kindPage {
		return gateRedirectOnboarding
	}
	// Tenantless API calls pass the gate: onboarding endpoints need them,
	// and the services scope every query to the (empty) tenant anyway.
	return gateAllow
}

// extractToken prefers the session cookie and falls back to the
// Authorization header so both browser and programmatic clients work.
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(sessionName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}

// gate authenticates every request before it reaches the mux and applies
// the route-classification decision. It never touches the store: the token
// carries everything the decision needs.
func (a *API) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		class, kind := classify(r.URL.Path)

		var (
			principal     auth.Principal
			authenticated bool
		)
		if token := extractToken(r); token != "" && a.auth != nil {
			p, err := a.auth.Authenticate(token)
			switch {
			case err == nil:
				principal = p
				authenticated = true
				ctx := auth.ContextWithPrincipal(r.Context(), p)
				ctx = auth.ContextWithToken(ctx, token)
				r = r.WithContext(ctx)
			case !errors.Is(err, auth.ErrInvalidToken):
				writeError(w, r, http.StatusInternalServerError, "authentication error")
				return
			}
		}

		switch decide(class, kind, authenticated, principal.Onboarded()) {
		case gateAllow:
			next.ServeHTTP(w, r)
		case gateDeny:
			writeError(w, r, http.StatusUnauthorized, "authentication required")
		case gateRedirectLogin:
			http.Redirect(w, r, "/login", http.StatusFound)
		case gateRedirectOnboarding:
			http.Redirect(w, r, "/onboarding", http.StatusFound)
		}
	})
}
