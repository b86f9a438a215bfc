package httpserver_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/sitegate/internal/adminapi"
	"github.com/keithlinneman/sitegate/internal/gatehttp"
	"github.com/keithlinneman/sitegate/internal/httpserver"
	"github.com/keithlinneman/sitegate/internal/log"
	"github.com/keithlinneman/sitegate/internal/store"
)

// TestIntegration_FullStack wires httpserver.NewHandler with a real
// admin API and gate handler over a shared in-memory store, then walks
// the whole lifecycle: publish through /_api, hit the login wall on the
// site host, authenticate, and fetch the protected file.
func TestIntegration_FullStack(t *testing.T) {
	const (
		domain     = "sites.example.com"
		superToken = "integration-super-token"
	)

	mem := store.NewMemory()

	api, err := adminapi.New(&adminapi.Options{
		Configs:       mem,
		Files:         mem,
		GatewayDomain: domain,
		SuperToken:    superToken,
		Logger:        log.Nop(),
	})
	if err != nil {
		t.Fatalf("adminapi.New: %v", err)
	}

	gate, err := gatehttp.New(&gatehttp.Options{
		Configs:       mem,
		Files:         mem,
		GatewayDomain: domain,
		Logger:        log.Nop(),
	})
	if err != nil {
		t.Fatalf("gatehttp.New: %v", err)
	}

	handler := httpserver.NewHandler(&httpserver.Options{
		Logger: log.Nop(),
		APIRoutes: func(r chi.Router) {
			r.Mount("/_api", api.Router())
		},
		GateHandler: gate,
	})

	// publish a site through the admin API
	payload := map[string]any{
		"title": "Quarterly Numbers",
		"files": map[string]string{
			"index.html": base64.StdEncoding.EncodeToString([]byte("<h1>the numbers</h1>")),
		},
	}
	body, _ := json.Marshal(payload)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/_api/sites/acme/q1", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+superToken)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("publish status = %d: %s", rec.Code, rec.Body.String())
	}
	var published struct {
		URL      string `json:"url"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &published); err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`^[a-z]+(-[a-z]+)+-\d{4}$`).MatchString(published.Password) {
		t.Fatalf("password %q does not match passphrase grammar", published.Password)
	}

	siteHost := "acme." + domain

	// unauthenticated GET on the site host shows the login wall
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "http://"+siteHost+"/q1/", nil)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login wall status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "the numbers") {
		t.Fatal("protected content served without a session")
	}
	if !strings.Contains(rec.Body.String(), "Quarterly Numbers") {
		t.Fatal("login page missing the site title")
	}

	// login with the generated password
	form := "password=" + published.Password
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "http://"+siteHost+"/q1/", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", rec.Code)
	}
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == gatehttp.CookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("no session cookie issued")
	}

	// the session cookie unlocks the content
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "http://"+siteHost+"/q1/", nil)
	req.AddCookie(session)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "the numbers") {
		t.Fatalf("authenticated body = %q", rec.Body.String())
	}

	// security headers ride every response, login wall included
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatal("HSTS missing on authenticated response")
	}

	// delete the site; the host reverts to the anti-enumeration login wall
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/_api/sites/acme/q1", nil)
	req.Header.Set("Authorization", "Bearer "+superToken)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "http://"+siteHost+"/q1/", nil)
	req.AddCookie(session)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("deleted-site status = %d, want 200 login wall", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "the numbers") {
		t.Fatal("deleted site content still served")
	}
}
