package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"propdesk.org/internal/auth"
	"propdesk.org/internal/crm"
	"propdesk.org/internal/stream"
)

type apiClient struct {
	t       *testing.T
	baseURL string
	client  *http.Client
	mock    sqlmock.Sqlmock
	codec   *auth.Codec
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	codec, err := auth.NewCodec("httpapi-test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	store := crm.NewPGStore(db)
	authSvc, err := auth.NewService(auth.NewPGUserStore(db), store, codec)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	crmSvc := crm.NewService(store)

	api := New(ReadyProbe{}, "test", authSvc, crmSvc, stream.New(), Options{
		CORSOrigins: []string{"*"},
	})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})

	return &apiClient{
		t:       t,
		baseURL: srv.URL,
		client:  srv.Client(),
		mock:    mock,
		codec:   codec,
	}
}

func (c *apiClient) tokenFor(id, email, role string, orgID *string) string {
	c.t.Helper()
	token, _, err := c.codec.Issue(&auth.User{
		ID:             id,
		Email:          email,
		Role:           role,
		OrganisationID: orgID,
	}, time.Hour)
	if err != nil {
		c.t.Fatalf("issue token: %v", err)
	}
	return token
}

func (c *apiClient) do(method, path string, body any, token string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestHealthz(t *testing.T) {
	c := newTestAPI(t)
	resp := c.do(http.MethodGet, "/healthz", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["service"] != "propdesk-api" {
		t.Fatalf("unexpected service: %v", body["service"])
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := newTestAPI(t)

	resp := c.do(http.MethodGet, "/v1/contacts", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.do(http.MethodGet, "/v1/contacts", nil, "not-a-jwt")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterSetsCookieAndFlagsSetup(t *testing.T) {
	c := newTestAPI(t)

	c.mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), "new@example.com", sqlmock.AnyArg(), auth.RoleMember, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp := c.do(http.MethodPost, "/v1/auth/register", map[string]any{
		"email":    "New@Example.com",
		"password": "password123",
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	cookie := sessionCookie(t, resp)
	if !cookie.HttpOnly || cookie.Path != "/" || cookie.MaxAge != 604800 {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected SameSite: %v", cookie.SameSite)
	}
	if cookie.Secure {
		t.Fatal("cookie must not be Secure outside production")
	}

	body := decodeBody(t, resp)
	if body["setupRequired"] != true {
		t.Fatalf("expected setupRequired, got %v", body["setupRequired"])
	}
	if body["nextStep"] != "create-organization" {
		t.Fatalf("unexpected nextStep: %v", body["nextStep"])
	}
	principal, err := c.codec.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("cookie token does not verify: %v", err)
	}
	if principal.Onboarded() {
		t.Fatal("fresh registration must not carry a tenant claim")
	}
}

func TestLoginFailuresLookAlike(t *testing.T) {
	c := newTestAPI(t)

	c.mock.ExpectQuery("from users where email=").
		WithArgs("ghost@example.com").
		WillReturnError(auth.ErrNotFound)
	respUnknown := c.do(http.MethodPost, "/v1/auth/login", map[string]any{
		"email": "ghost@example.com", "password": "password123",
	}, "")

	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := time.Now().UTC()
	c.mock.ExpectQuery("from users where email=").
		WithArgs("agent@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "role", "organisation_id", "created_at", "updated_at",
		}).AddRow("user-1", "agent@example.com", hash, auth.RoleMember, "org-1", now, now))
	respWrong := c.do(http.MethodPost, "/v1/auth/login", map[string]any{
		"email": "agent@example.com", "password": "wrong-password",
	}, "")

	if respUnknown.StatusCode != http.StatusUnauthorized || respWrong.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", respUnknown.StatusCode, respWrong.StatusCode)
	}
	bodyUnknown := decodeBody(t, respUnknown)
	bodyWrong := decodeBody(t, respWrong)
	if bodyUnknown["error"] != bodyWrong["error"] {
		t.Fatalf("failure messages differ: %q vs %q", bodyUnknown["error"], bodyWrong["error"])
	}
}

func TestMeReturnsStoredUser(t *testing.T) {
	c := newTestAPI(t)
	orgID := "org-1"
	token := c.tokenFor("user-1", "agent@example.com", auth.RoleMember, &orgID)

	now := time.Now().UTC()
	c.mock.ExpectQuery("from users where id=").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "role", "organisation_id", "created_at", "updated_at",
		}).AddRow("user-1", "agent@example.com", "x", auth.RoleMember, orgID, now, now))

	resp := c.do(http.MethodGet, "/v1/auth/me", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["authenticated"] != true {
		t.Fatalf("expected authenticated, got %v", body)
	}
	user, ok := body["user"].(map[string]any)
	if !ok || user["organisation_id"] != orgID {
		t.Fatalf("unexpected user payload: %v", body["user"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatal("password hash must never serialize")
	}
}

func TestAuthTestProbesTokenWithoutStore(t *testing.T) {
	c := newTestAPI(t)

	// Anonymous probe is allowed and simply reports unauthenticated.
	resp := c.do(http.MethodGet, "/v1/auth/test", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for anonymous probe, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["authenticated"] != false {
		t.Fatalf("expected unauthenticated, got %v", body)
	}

	orgID := "org-1"
	token := c.tokenFor("user-1", "agent@example.com", auth.RoleMember, &orgID)

	// No sqlmock expectations: the probe must not touch the database.
	resp = c.do(http.MethodGet, "/v1/auth/test", nil, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["authenticated"] != true {
		t.Fatalf("expected authenticated, got %v", body)
	}
	user, ok := body["user"].(map[string]any)
	if !ok || user["id"] != "user-1" || user["organisation_id"] != orgID {
		t.Fatalf("unexpected claims payload: %v", body["user"])
	}
	if err := c.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("probe hit the store: %v", err)
	}
}

func TestDeleteContactBlockedPayload(t *testing.T) {
	c := newTestAPI(t)
	orgID := "org-1"
	token := c.tokenFor("user-1", "agent@example.com", auth.RoleMember, &orgID)

	now := time.Now().UTC()
	c.mock.ExpectQuery("from contacts where id=").
		WithArgs("contact-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organisation_id", "name", "email", "phone", "created_at", "updated_at",
		}).AddRow("contact-1", orgID, "Jane Seller", nil, nil, now, now))
	c.mock.ExpectQuery("select count").
		WithArgs("contact-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	resp := c.do(http.MethodDelete, "/v1/contacts/contact-1", nil, token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["propertyCount"] != float64(2) {
		t.Fatalf("expected propertyCount 2, got %v", body)
	}
}

func TestCrossTenantReadIsForbidden(t *testing.T) {
	c := newTestAPI(t)
	orgID := "org-1"
	token := c.tokenFor("user-1", "agent@example.com", auth.RoleMember, &orgID)

	now := time.Now().UTC()
	c.mock.ExpectQuery("from contacts where id=").
		WithArgs("contact-9").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organisation_id", "name", "email", "phone", "created_at", "updated_at",
		}).AddRow("contact-9", "org-2", "Foreign Contact", nil, nil, now, now))

	resp := c.do(http.MethodGet, "/v1/contacts/contact-9", nil, token)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestCreateOrganisationAttachesTenantlessCreator(t *testing.T) {
	c := newTestAPI(t)
	token := c.tokenFor("user-2", "fresh@example.com", auth.RoleMember, nil)

	now := time.Now().UTC()
	c.mock.ExpectExec("insert into organisations").
		WithArgs(sqlmock.AnyArg(), "Acme Realty").
		WillReturnResult(sqlmock.NewResult(1, 1))
	c.mock.ExpectQuery("from organisations where id=").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organisation_name", "created_at", "updated_at",
		}).AddRow("org-new", "Acme Realty", now, now))
	c.mock.ExpectExec("update users set organisation_id=").
		WithArgs("user-2", "org-new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	c.mock.ExpectQuery("from users where id=").
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "role", "organisation_id", "created_at", "updated_at",
		}).AddRow("user-2", "fresh@example.com", "x", auth.RoleMember, "org-new", now, now))

	resp := c.do(http.MethodPost, "/v1/organizations", map[string]any{
		"organisation_name": "Acme Realty",
	}, token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	cookie := sessionCookie(t, resp)
	principal, err := c.codec.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("reissued cookie token does not verify: %v", err)
	}
	if principal.OrganisationID != "org-new" {
		t.Fatalf("reissued token missing tenant claim: %+v", principal)
	}
	body := decodeBody(t, resp)
	if body["token"] == nil || body["user"] == nil {
		t.Fatalf("expected reissued token and user in body: %v", body)
	}
	if err := c.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateDocumentRecordsUploader(t *testing.T) {
	c := newTestAPI(t)
	orgID := "org-1"
	token := c.tokenFor("user-1", "agent@example.com", auth.RoleMember, &orgID)

	now := time.Now().UTC()
	// uploaded_by must be a team-member id, never the login user id.
	c.mock.ExpectQuery("from team_members where id=").
		WithArgs("member-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organisation_id", "team_member_name", "team_member_email_id", "user_id", "created_at", "updated_at",
		}).AddRow("member-1", orgID, "Demo Agent", "agent@example.com", "user-1", now, now))
	c.mock.ExpectExec("insert into documents").
		WithArgs(sqlmock.AnyArg(), orgID, "Deed", "https://files.example.com/deed.pdf", nil, nil, "member-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	c.mock.ExpectQuery("from documents where id=").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organisation_id", "name", "url", "property_id", "deal_id", "uploaded_by", "created_at", "updated_at",
		}).AddRow("doc-1", orgID, "Deed", "https://files.example.com/deed.pdf", nil, nil, "member-1", now, now))

	resp := c.do(http.MethodPost, "/v1/documents", map[string]any{
		"name":        "Deed",
		"url":         "https://files.example.com/deed.pdf",
		"uploaded_by": "member-1",
	}, token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["uploaded_by"] != "member-1" {
		t.Fatalf("unexpected uploaded_by: %v", body["uploaded_by"])
	}
	if err := c.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateDocumentRejectsUnknownUploader(t *testing.T) {
	c := newTestAPI(t)
	orgID := "org-1"
	token := c.tokenFor("user-1", "agent@example.com", auth.RoleMember, &orgID)

	c.mock.ExpectQuery("from team_members where id=").
		WithArgs("user-1").
		WillReturnError(crm.ErrNotFound)

	resp := c.do(http.MethodPost, "/v1/documents", map[string]any{
		"name":        "Deed",
		"url":         "https://files.example.com/deed.pdf",
		"uploaded_by": "user-1",
	}, token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRegisterDuplicateEmailIsBadRequest(t *testing.T) {
	c := newTestAPI(t)

	c.mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), "dup@example.com", sqlmock.AnyArg(), auth.RoleMember, nil).
		WillReturnError(auth.ErrEmailTaken)

	resp := c.do(http.MethodPost, "/v1/auth/register", map[string]any{
		"email":    "dup@example.com",
		"password": "password123",
	}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["error"] != "email already registered" {
		t.Fatalf("unexpected error payload: %v", body)
	}
}
