package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jxwalker/mdcsync/internal/config"
	"github.com/jxwalker/mdcsync/internal/state"
)

// APIPrefix is the path prefix a pretty-URL Nextcloud exposes MediaDC under.
const APIPrefix = config.DefaultAppPath + "/"

// MockServer is a fake MediaDC API serving canned responses keyed by
// "METHOD relative/path" (e.g. "GET settings/name/installed").
type MockServer struct {
	*httptest.Server
	mu        sync.Mutex
	responses map[string]MockResponse
	requests  []RecordedRequest
}

// MockResponse represents a canned HTTP response
type MockResponse struct {
	StatusCode int
	Body       string
}

// RecordedRequest is a request the mock received.
type RecordedRequest struct {
	Method string
	Path   string // relative to the API prefix
	Body   string
	Header http.Header
}

// NewMockServer creates a new mock MediaDC server. It is closed on test cleanup.
func NewMockServer(t *testing.T) *MockServer {
	t.Helper()
	ms := &MockServer{responses: make(map[string]MockResponse)}
	ms.Server = httptest.NewServer(http.HandlerFunc(ms.serve))
	t.Cleanup(ms.Close)
	return ms
}

func (ms *MockServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rel := strings.TrimPrefix(r.URL.Path, APIPrefix)
	key := r.Method + " " + rel

	ms.mu.Lock()
	ms.requests = append(ms.requests, RecordedRequest{Method: r.Method, Path: rel, Body: string(body), Header: r.Header.Clone()})
	resp, ok := ms.responses[key]
	ms.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintf(w, "No mock response configured for %s", key)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = fmt.Fprint(w, resp.Body)
}

// AddResponse adds a canned response for "METHOD path".
func (ms *MockServer) AddResponse(key string, response MockResponse) {
	ms.mu.Lock()
	ms.responses[key] = response
	ms.mu.Unlock()
}

// AddJSON marshals v as a 200 response for "METHOD path".
func (ms *MockServer) AddJSON(key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	ms.AddResponse(key, MockResponse{StatusCode: http.StatusOK, Body: string(b)})
}

// Requests returns every request received so far.
func (ms *MockServer) Requests() []RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]RecordedRequest(nil), ms.requests...)
}

// RequestsTo returns the requests matching "METHOD path".
func (ms *MockServer) RequestsTo(key string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range ms.Requests() {
		if r.Method+" "+r.Path == key {
			out = append(out, r)
		}
	}
	return out
}

// Config returns a validated config pointing at the mock server with
// pretty URLs and a temp data root.
func (ms *MockServer) Config(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("MDCSYNC_TEST_PASSWORD", "app-password")
	return &config.Config{
		Version: 1,
		General: config.General{DataRoot: t.TempDir()},
		Server: config.Server{
			URL:         ms.URL,
			User:        "admin",
			PasswordEnv: "MDCSYNC_TEST_PASSWORD",
			PrettyURLs:  true,
		},
		Network: config.Network{TimeoutSeconds: 5},
	}
}

// TestDB opens a sqlite store in a temp directory
func TestDB(t *testing.T) *state.DB {
	t.Helper()

	db, err := state.NewDB(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return db
}

// InstalledSettingJSON encodes v the way the server stores it: a JSON
// document inside a JSON string.
func InstalledSettingJSON(v any) json.RawMessage {
	inner, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	outer, err := json.Marshal(string(inner))
	if err != nil {
		panic(err)
	}
	return outer
}

// TempFile creates a temporary file with content
func TempFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	return path
}
