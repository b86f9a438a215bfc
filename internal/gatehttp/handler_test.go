package gatehttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/keithlinneman/sitegate/internal/cryptoutil"
	"github.com/keithlinneman/sitegate/internal/site"
	"github.com/keithlinneman/sitegate/internal/store"
)

const (
	testDomain   = "sites.example.com"
	testPassword = "amber-river-stone-4821"
)

func newTestHandler(t *testing.T) (*Handler, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()

	cfg := site.Config{
		Brand:        "acme",
		Name:         "q1",
		Title:        "Q1 Report",
		PasswordHash: cryptoutil.SHA256Hex([]byte(testPassword)),
		HMACSecret:   "site-secret",
		BrandTokens:  map[string]string{"accent": "#ff6600"},
		Created:      time.Now().UTC(),
	}
	raw, _ := json.Marshal(&cfg)
	if err := mem.Put(context.Background(), cfg.Key(), raw); err != nil {
		t.Fatal(err)
	}
	mem.Put(context.Background(), cfg.FileKey("index.html"), []byte("<h1>hello</h1>"))
	mem.Put(context.Background(), cfg.FileKey("assets/app.css"), []byte("body{}"))

	h, err := New(&Options{
		Configs:       mem,
		Files:         mem,
		GatewayDomain: testDomain,
	})
	if err != nil {
		t.Fatal(err)
	}
	return h, mem
}

func siteGet(t *testing.T, h *Handler, path, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "http://acme."+testDomain+path, http.NoBody)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sitePost(t *testing.T, h *Handler, path, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"password": {password}}
	req := httptest.NewRequest(http.MethodPost, "http://acme."+testDomain+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

// Unauthenticated GET renders the login form, leaks no content.

func TestGet_NoSession_LoginForm(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := siteGet(t, h, "/q1/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<form") || !strings.Contains(body, `name="password"`) {
		t.Fatal("response is not a login form")
	}
	if strings.Contains(body, "hello") {
		t.Fatal("site content leaked to unauthenticated visitor")
	}
	if !strings.Contains(body, "Q1 Report") {
		t.Fatal("site title missing from login page")
	}
	if !strings.Contains(body, "--accent:#ff6600;") {
		t.Fatal("brand token not applied to login page")
	}
}

func TestGet_UnknownSite_SameLoginForm(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := siteGet(t, h, "/nope/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (no enumeration)", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<form") {
		t.Fatal("unknown site did not render a login form")
	}
}

// Login flow

func TestLogin_CorrectPassword(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := sitePost(t, h, "/q1/", testPassword)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/q1/" {
		t.Fatalf("Location = %q", got)
	}

	c := sessionCookie(t, rec)
	if c == nil {
		t.Fatal("no session cookie set")
	}
	if c.Path != "/q1/" {
		t.Errorf("cookie path = %q, want /q1/", c.Path)
	}
	if c.Domain != "acme."+testDomain {
		t.Errorf("cookie domain = %q", c.Domain)
	}
	if !c.HttpOnly || !c.Secure {
		t.Error("cookie must be HttpOnly and Secure")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie SameSite = %v", c.SameSite)
	}
	if !VerifyToken(c.Value, "acme", "q1", "site-secret", time.Now()) {
		t.Fatal("issued cookie does not verify")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := sitePost(t, h, "/q1/", "wrong-guess-here-0000")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if sessionCookie(t, rec) != nil {
		t.Fatal("cookie set on failed login")
	}
	if !strings.Contains(rec.Body.String(), "Incorrect password") {
		t.Fatal("error message missing from re-rendered form")
	}
}

func TestLogin_AbsentSite_IndistinguishableFromWrongPassword(t *testing.T) {
	h, _ := newTestHandler(t)

	wrong := sitePost(t, h, "/q1/", "bad")
	absent := sitePost(t, h, "/ghost/", "bad")

	if wrong.Code != absent.Code {
		t.Fatalf("status differs: existing=%d absent=%d", wrong.Code, absent.Code)
	}
	if !strings.Contains(absent.Body.String(), "Incorrect password") {
		t.Fatal("absent site error differs from wrong-password error")
	}
}

// Authenticated serving

func TestGet_ValidSession_ServesFile(t *testing.T) {
	h, _ := newTestHandler(t)
	token := MintToken("acme", "q1", "site-secret", time.Now().Add(time.Hour))

	rec := siteGet(t, h, "/q1/", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "<h1>hello</h1>" {
		t.Fatalf("body = %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestGet_SessionAmongJunkCookies(t *testing.T) {
	h, _ := newTestHandler(t)
	token := MintToken("acme", "q1", "site-secret", time.Now().Add(time.Hour))

	// Hosted pages set their own cookies. The session lookup must find
	// ours even next to quoted and malformed pairs.
	req := httptest.NewRequest(http.MethodGet, "http://acme."+testDomain+"/q1/", http.NoBody)
	req.Header.Set("Cookie", `pref="dark"; garbage; `+CookieName+`=`+token+`; _ga=GA1.2.3`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "<h1>hello</h1>" {
		t.Fatalf("body = %q", got)
	}
}

func TestGet_ValidSession_NestedAsset(t *testing.T) {
	h, _ := newTestHandler(t)
	token := MintToken("acme", "q1", "site-secret", time.Now().Add(time.Hour))

	rec := siteGet(t, h, "/q1/assets/app.css", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/css; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestGet_ValidSession_MissingFile404(t *testing.T) {
	h, _ := newTestHandler(t)
	token := MintToken("acme", "q1", "site-secret", time.Now().Add(time.Hour))

	rec := siteGet(t, h, "/q1/nope.html", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGet_ExpiredSession_BackToLogin(t *testing.T) {
	h, _ := newTestHandler(t)
	token := MintToken("acme", "q1", "site-secret", time.Now().Add(-time.Minute))

	rec := siteGet(t, h, "/q1/", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 login form", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<form") {
		t.Fatal("expected login form for expired session")
	}
}

// Secret rotation invalidates outstanding sessions.

func TestRotatedSecret_InvalidatesSession(t *testing.T) {
	h, mem := newTestHandler(t)
	token := MintToken("acme", "q1", "site-secret", time.Now().Add(time.Hour))

	// rotate: overwrite config with a new secret
	raw, _ := mem.Get(context.Background(), "acme/q1")
	var cfg site.Config
	json.Unmarshal(raw, &cfg)
	cfg.HMACSecret = "rotated-secret"
	raw, _ = json.Marshal(&cfg)
	mem.Put(context.Background(), cfg.Key(), raw)

	rec := siteGet(t, h, "/q1/", token)
	if !strings.Contains(rec.Body.String(), "<form") {
		t.Fatal("pre-rotation session still accepted")
	}
}

// Host and path handling

func TestUnknownHostShapes404(t *testing.T) {
	h, _ := newTestHandler(t)

	hosts := []string{
		testDomain,              // bare apex
		"a.b." + testDomain,     // nested label
		"evil.example.org",      // foreign domain
		"UPPER!." + testDomain,  // invalid slug label
		"." + testDomain,        // empty label
	}
	for _, host := range hosts {
		req := httptest.NewRequest(http.MethodGet, "http://placeholder/q1/", http.NoBody)
		req.Host = host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("host %q: status = %d, want 404", host, rec.Code)
		}
	}
}

func TestRootPath404(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := siteGet(t, h, "/", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for bare root", rec.Code)
	}
}

func TestTraversalPathRejected(t *testing.T) {
	h, _ := newTestHandler(t)
	token := MintToken("acme", "q1", "site-secret", time.Now().Add(time.Hour))

	rec := siteGet(t, h, "/q1/../other/secret.html", token)
	if rec.Code == http.StatusOK && strings.Contains(rec.Body.String(), "secret") {
		t.Fatal("traversal path served content")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "http://acme."+testDomain+"/q1/", http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if rec.Header().Get("Allow") == "" {
		t.Fatal("missing Allow header")
	}
}

func TestLoginPage_EscapesTitle(t *testing.T) {
	mem := store.NewMemory()
	cfg := site.Config{
		Brand:        "acme",
		Name:         "q1",
		Title:        `<script>alert("x")</script>`,
		PasswordHash: cryptoutil.SHA256Hex([]byte("p")),
		HMACSecret:   "s",
	}
	raw, _ := json.Marshal(&cfg)
	mem.Put(context.Background(), cfg.Key(), raw)

	h, err := New(&Options{Configs: mem, Files: mem, GatewayDomain: testDomain})
	if err != nil {
		t.Fatal(err)
	}

	rec := siteGet(t, h, "/q1/", "")
	if strings.Contains(rec.Body.String(), "<script>alert") {
		t.Fatal("title not escaped in login page")
	}
}
