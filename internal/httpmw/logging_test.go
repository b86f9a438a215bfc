package httpmw

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/keithlinneman/sitegate/internal/log"
)

func testLogger(t *testing.T, buf *bytes.Buffer) log.Logger {
	t.Helper()
	L, err := log.New(log.Options{App: "test", Level: slog.LevelDebug, JsonFormat: true, Writer: buf})
	if err != nil {
		t.Fatal(err)
	}
	return L
}

func TestWithLogger_EnrichesContext(t *testing.T) {
	var buf bytes.Buffer
	base := testLogger(t, &buf)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).Info(r.Context(), "inside handler")
	})

	req := httptest.NewRequest(http.MethodGet, "http://acme.example.com/q1-report/", http.NoBody)
	mw := Chain(h, RequestID(""), ClientIP, WithLogger(base))
	mw.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output not JSON: %v (%q)", err, buf.String())
	}
	if entry["url.path"] != "/q1-report/" {
		t.Errorf("url.path = %v", entry["url.path"])
	}
	if entry["server.address"] != "acme.example.com" {
		t.Errorf("server.address = %v", entry["server.address"])
	}
	if entry["http.request.method"] != http.MethodGet {
		t.Errorf("http.request.method = %v", entry["http.request.method"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("request_id missing from handler log")
	}
}

func TestAccessLog_EmitsRequestLine(t *testing.T) {
	var buf bytes.Buffer
	base := testLogger(t, &buf)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	})

	mw := Chain(h, WithLogger(base), AccessLog())
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/acme/q1/", http.NoBody))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := lines[len(lines)-1]

	var entry map[string]any
	if err := json.Unmarshal([]byte(last), &entry); err != nil {
		t.Fatalf("access log not JSON: %v", err)
	}
	if entry["msg"] != "http request" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if got, _ := entry["http.response.status_code"].(float64); int(got) != http.StatusNotFound {
		t.Errorf("status = %v", entry["http.response.status_code"])
	}
	if got, _ := entry["http.response.body.size"].(float64); int(got) != len("missing") {
		t.Errorf("body size = %v", entry["http.response.body.size"])
	}
}

func TestAccessLog_SkipsHealthEndpoints(t *testing.T) {
	var buf bytes.Buffer
	base := testLogger(t, &buf)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw := Chain(h, WithLogger(base), AccessLog())
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/-/healthy", http.NoBody))

	if strings.Contains(buf.String(), "http request") {
		t.Fatal("health endpoint was access-logged")
	}
}

func TestScope_TagsHandler(t *testing.T) {
	var buf bytes.Buffer
	base := testLogger(t, &buf)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).Info(r.Context(), "scoped")
	})

	mw := Chain(h, WithLogger(base), Scope("login"))
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/q1/", http.NoBody))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["handler"] != "login" {
		t.Fatalf("handler = %v", entry["handler"])
	}
}

func TestResponseWriter_DefaultsTo200(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rw := &responseWriter{ResponseWriter: rec, ctx: req.Context()}

	rw.Write([]byte("hello"))

	if rw.status != http.StatusOK {
		t.Fatalf("status = %d, want implicit 200", rw.status)
	}
	if rw.bytes != 5 {
		t.Fatalf("bytes = %d, want 5", rw.bytes)
	}
}
