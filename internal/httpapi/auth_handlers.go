package httpapi

import (
	"net/http"
	"time"

	"propdesk.org/internal/audit"
	"propdesk.org/internal/auth"
	"propdesk.org/internal/obs"
)

type registerRequest struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	OrganisationID *string `json:"organisation_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const nextStepCreateOrganisation = "create-organization"

func (a *API) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.opts.CookieTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.opts.Production,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.opts.Production,
	})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.auth.Register(r.Context(), auth.Registration{
		Email:          req.Email,
		Password:       req.Password,
		OrganisationID: req.OrganisationID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	obs.CountTokenIssued()
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": session.User.ID,
		"email":   session.User.Email,
	})

	a.setSessionCookie(w, session.Token)
	resp := map[string]any{
		"user":          session.User,
		"token":         session.Token,
		"setupRequired": session.SetupRequired,
	}
	if session.SetupRequired {
		resp["nextStep"] = nextStepCreateOrganisation
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.CountLogin("failed")
		handleServiceError(w, r, err)
		return
	}
	obs.CountLogin("ok")
	obs.CountTokenIssued()
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": session.User.ID,
	})

	a.setSessionCookie(w, session.Token)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"user":       session.User,
		"token":      session.Token,
		"redirectTo": "/dashboard",
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	// Tokens are self-contained; logout just drops the cookie.
	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleTest reports whether the presented token verifies, without the
// user-store round trip handleMe does. Handy for frontends polling
// session validity.
func (a *API) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":              principal.UserID,
			"email":           principal.Email,
			"role":            principal.Role,
			"organisation_id": principal.OrganisationID,
		},
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}
	user, err := a.auth.Identity(r.Context(), principal)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          user,
	})
}
