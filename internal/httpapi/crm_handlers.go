package httpapi

import (
	"net/http"
	"strings"

	"propdesk.org/internal/audit"
	"propdesk.org/internal/auth"
	"propdesk.org/internal/crm"
	"propdesk.org/internal/obs"
)

// requirePrincipal fetches the gate-attached principal. Protected routes
// always carry one; the check is kept so handlers fail closed if a route
// is ever misclassified.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Principal{}, false
	}
	return principal, true
}

// resourceID extracts the id segment from /v1/<collection>/<id>. Anything
// nested deeper is rejected by the caller.
func resourceID(r *http.Request, prefix string) (string, bool) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if path == "" || strings.Contains(path, "/") {
		return "", false
	}
	return path, true
}

// Organisations --------------------------------------------------------------

type createOrganisationRequest struct {
	Name string `json:"organisation_name"`
}

type updateOrganisationRequest struct {
	Name *string `json:"organisation_name"`
}

func (a *API) handleOrganisations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		principal, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		orgs, err := a.crm.ListOrganisations(r.Context(), principal)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
	case http.MethodPost:
		a.createOrganisation(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// createOrganisation is the onboarding step: a tenantless creator is
// attached to the new organisation and gets a fresh token with the tenant
// claim, replacing the session cookie in the same response.
func (a *API) createOrganisation(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req createOrganisationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	org, err := a.crm.CreateOrganisation(r.Context(), principal, req.Name)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "crm.organisation.create", map[string]any{
		"organisation_id": org.ID,
		"name":            org.Name,
	})

	resp := map[string]any{"organization": org}
	if !principal.Onboarded() {
		session, err := a.auth.AttachOrganisation(r.Context(), principal.UserID, org.ID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		obs.CountTokenIssued()
		_ = audit.LogEvent(r.Context(), "auth.token.reissued", map[string]any{
			"organisation_id": org.ID,
		})
		a.setSessionCookie(w, session.Token)
		resp["token"] = session.Token
		resp["user"] = session.User
	}

	w.Header().Set("Location", "/v1/organizations/"+org.ID)
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleOrganisationResource(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := resourceID(r, "/v1/organizations/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		org, err := a.crm.GetOrganisation(r.Context(), principal, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodPut:
		var req updateOrganisationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		org, err := a.crm.UpdateOrganisation(r.Context(), principal, id, crm.OrganisationUpdate{Name: req.Name})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodDelete:
		if err := a.crm.DeleteOrganisation(r.Context(), principal, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "crm.organisation.delete", map[string]any{
			"organisation_id": id,
		})
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// Contacts -------------------------------------------------------------------

type contactRequest struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

type updateContactRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (a *API) handleContacts(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		filter := crm.ContactFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
		contacts, err := a.crm.ListContacts(r.Context(), principal, filter)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
	case http.MethodPost:
		var req contactRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		contact, err := a.crm.CreateContact(r.Context(), principal, crm.NewContact{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/contacts/"+contact.ID)
		writeJSON(w, http.StatusCreated, contact)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleContactResource(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := resourceID(r, "/v1/contacts/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		contact, err := a.crm.GetContact(r.Context(), principal, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, contact)
	case http.MethodPut:
		var req updateContactRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		contact, err := a.crm.UpdateContact(r.Context(), principal, id, crm.ContactUpdate{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, contact)
	case http.MethodDelete:
		if err := a.crm.DeleteContact(r.Context(), principal, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// Properties -----------------------------------------------------------------

type propertyRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
	OwnerID *string `json:"owner_id"`
	Status  string  `json:"status"`
}

type updatePropertyRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	OwnerID *string `json:"owner_id"`
	Status  *string `json:"status"`
}

func (a *API) handleProperties(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		filter := crm.PropertyFilter{
			Status:  strings.TrimSpace(r.URL.Query().Get("status")),
			OwnerID: strings.TrimSpace(r.URL.Query().Get("owner_id")),
		}
		properties, err := a.crm.ListProperties(r.Context(), principal, filter)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"properties": properties})
	case http.MethodPost:
		var req propertyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		property, err := a.crm.CreateProperty(r.Context(), principal, crm.NewProperty{
			Name:    req.Name,
			Address: req.Address,
			OwnerID: req.OwnerID,
			Status:  req.Status,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/properties/"+property.ID)
		writeJSON(w, http.StatusCreated, property)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handlePropertyResource(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := resourceID(r, "/v1/properties/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		property, err := a.crm.GetProperty(r.Context(), principal, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, property)
	case http.MethodPut:
		var req updatePropertyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		property, err := a.crm.UpdateProperty(r.Context(), principal, id, crm.PropertyUpdate{
			Name:    req.Name,
			Address: req.Address,
			OwnerID: req.OwnerID,
			Status:  req.Status,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, property)
	case http.MethodDelete:
		if err := a.crm.DeleteProperty(r.Context(), principal, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
