package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// smoke drives a running propdesk-api through the signup flow end to end:
// register, create an organisation, create and read back a contact, then
// confirm the session identity. It exits non-zero on the first failure.

func main() {
	base := os.Getenv("PROPDESK_API_ADDR")
	if base == "" {
		base = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	email := fmt.Sprintf("smoke-%d@propdesk.org", rand.Int())

	var session struct {
		Token string `json:"token"`
	}
	call(client, base, "POST", "/v1/auth/register", "", map[string]any{
		"email":    email,
		"password": "smoke-password",
	}, &session)
	if session.Token == "" {
		log.Fatal("register returned no token")
	}

	var orgResp struct {
		Token string `json:"token"`
	}
	call(client, base, "POST", "/v1/organizations", session.Token, map[string]any{
		"organisation_name": fmt.Sprintf("Smoke Realty %d", rand.Intn(1_000_000)),
	}, &orgResp)
	if orgResp.Token == "" {
		log.Fatal("organisation create returned no reissued token")
	}
	token := orgResp.Token

	// Created entities come back as the bare object, not an envelope.
	var contact struct {
		ID string `json:"id"`
	}
	call(client, base, "POST", "/v1/contacts", token, map[string]any{
		"name": "Smoke Contact",
	}, &contact)
	if contact.ID == "" {
		log.Fatal("contact create returned no id")
	}

	var listResp struct {
		Contacts []struct {
			ID string `json:"id"`
		} `json:"contacts"`
	}
	call(client, base, "GET", "/v1/contacts", token, nil, &listResp)
	found := false
	for _, c := range listResp.Contacts {
		if c.ID == contact.ID {
			found = true
		}
	}
	if !found {
		log.Fatalf("contact %s missing from listing", contact.ID)
	}

	var meResp struct {
		Authenticated bool `json:"authenticated"`
		User          struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	call(client, base, "GET", "/v1/auth/me", token, nil, &meResp)
	if !meResp.Authenticated || meResp.User.Email != email {
		log.Fatalf("identity mismatch: %+v", meResp)
	}

	call(client, base, "DELETE", "/v1/contacts/"+contact.ID, token, nil, nil)

	fmt.Printf("✅ propdesk-api smoke test passed: user=%s\n", email)
}

func call(client *http.Client, base, method, path, token string, body any, out any) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("encode %s %s: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, base+path, &buf)
	if err != nil {
		log.Fatalf("build %s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Fatalf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
}
