package module

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/GoCodeAlone/modular"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/credentials"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/router"
)

const testAPIKey = "k-test-1234"

var fixedNow = time.Date(2025, 10, 11, 9, 45, 0, 0, time.UTC)

// recordedRequest is what the fake API saw for one call.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// fakeAPI is an httptest server standing in for the ContentStudio API.
type fakeAPI struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeAPI(t *testing.T, handler http.HandlerFunc) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) credential() credentials.Credential {
	return credentials.Credential{APIKey: testAPIKey, BaseURL: f.srv.URL}
}

func (f *fakeAPI) client(opts ...ClientOption) *ContentStudioClient {
	base := []ClientOption{WithRouter(router.New(router.WithClock(func() time.Time { return fixedNow })))}
	return NewContentStudioClient(f.credential(), append(base, opts...)...)
}

func (f *fakeAPI) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// listOf answers every request with a data envelope holding items.
func listOf(items ...map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": items})
	}
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

type testAppConfig struct{}

func newTestApp(t *testing.T) (modular.Application, *bytes.Buffer) {
	t.Helper()
	logger, buf := bufferLogger()
	app := modular.NewStdApplication(modular.NewStdConfigProvider(&testAppConfig{}), logger)
	return app, buf
}

// registerClient puts client into app's service registry under name.
func registerClient(t *testing.T, app modular.Application, name string, client *ContentStudioClient) {
	t.Helper()
	if err := app.RegisterService(name, client); err != nil {
		t.Fatalf("RegisterService(%q): %v", name, err)
	}
}
