package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"propdesk.org/internal/auth"
	"propdesk.org/internal/crm"
	"propdesk.org/internal/obs"
	"propdesk.org/internal/stream"
)

// ReadyProbe reports readiness (DB ping when a pool is attached).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries environment-dependent knobs for the HTTP layer.
type Options struct {
	Production  bool
	CORSOrigins []string
	CookieTTL   time.Duration // Max-Age of the session cookie; mirrors token lifetime
}

// API is the HTTP layer. It owns the mux and delegates all semantics to
// the auth and CRM services.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	auth       *auth.Service
	crm        *crm.Service
	feed       *stream.Feed
	opts       Options
}

func New(rp ReadyProbe, version string, authSvc *auth.Service, crmSvc *crm.Service, feed *stream.Feed, opts Options) *API {
	if opts.CookieTTL <= 0 {
		opts.CookieTTL = auth.DefaultTokenTTL
	}
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		auth:       authSvc,
		crm:        crmSvc,
		feed:       feed,
		opts:       opts,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)
	a.mux.HandleFunc("/v1/auth/test", a.handleTest)

	// CRM resources
	a.mux.HandleFunc("/v1/organizations", a.handleOrganisations)
	a.mux.HandleFunc("/v1/organizations/", a.handleOrganisationResource)
	a.mux.HandleFunc("/v1/contacts", a.handleContacts)
	a.mux.HandleFunc("/v1/contacts/", a.handleContactResource)
	a.mux.HandleFunc("/v1/properties", a.handleProperties)
	a.mux.HandleFunc("/v1/properties/", a.handlePropertyResource)
	a.mux.HandleFunc("/v1/deals", a.handleDeals)
	a.mux.HandleFunc("/v1/deals/", a.handleDealResource)
	a.mux.HandleFunc("/v1/team-members", a.handleTeamMembers)
	a.mux.HandleFunc("/v1/team-members/", a.handleTeamMemberResource)
	a.mux.HandleFunc("/v1/tasks", a.handleTasks)
	a.mux.HandleFunc("/v1/tasks/", a.handleTaskResource)
	a.mux.HandleFunc("/v1/meetings", a.handleMeetings)
	a.mux.HandleFunc("/v1/meetings/", a.handleMeetingResource)
	a.mux.HandleFunc("/v1/documents", a.handleDocuments)
	a.mux.HandleFunc("/v1/documents/", a.handleDocumentResource)

	// live resource-change events (SSE)
	a.mux.HandleFunc("/v1/events", a.Events)

	// root is not a page server
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the full middleware chain around the mux. Order
// matters: metrics wrap everything, the gate runs last so it sees the
// request id and rate limiting has already applied.
func (a *API) Handler() http.Handler {
	h := a.gate(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 25)
	h = CORS(h, a.opts.CORSOrigins)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "propdesk-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "propdesk-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
