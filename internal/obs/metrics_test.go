package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/contacts/01ABC":            "/v1/contacts/:id",
		"/v1/properties/01ABC":          "/v1/properties/:id",
		"/v1/meetings/01ABC/notes":      "/v1/meetings/:id/notes",
		"/v1/contacts/01ABC/extra":      "/v1/contacts/01ABC/extra",
		"/v1/contacts":                  "/v1/contacts",
		"/v1/organizations/01ABC":       "/v1/organizations/:id",
		"/v1/team-members/01ABC":        "/v1/team-members/:id",
		"/v1/deals/01ABC?expand=notes":  "/v1/deals/:id",
		"/v1/auth/login":                "/v1/auth/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
