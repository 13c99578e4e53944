package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"propdesk.org/internal/auth"
)

// Events streams resource-change events over Server-Sent Events. Each
// subscriber only sees events from its own tenant; superadmins see all.
func (a *API) Events(w http.ResponseWriter, r *http.Request) {
	if a.feed == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	scope := principal.OrganisationID
	if principal.Role == auth.RoleSuperadmin {
		scope = "" // all tenants
	} else if scope == "" {
		writeError(w, r, http.StatusForbidden, "organisation membership required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := a.feed.Subscribe(ctx, scope)

	// Send an initial comment to establish the stream
	_, _ = w.Write([]byte(": stream started\n\n"))
	flusher.Flush()

	for event := range ch {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}
}
