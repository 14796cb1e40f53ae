package module

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/apierror"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/credentials"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/options"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/router"
)

var (
	workspaceList = router.Key{Resource: router.ResourceWorkspace, Operation: router.OpList}
	postCreate    = router.Key{Resource: router.ResourcePost, Operation: router.OpCreate}
)

func TestContentStudioClient_SendsHeadersAndQuery(t *testing.T) {
	api := newFakeAPI(t, listOf(map[string]any{"_id": "ws1", "name": "Main"}))
	client := api.client()

	resp, err := client.Call(context.Background(), workspaceList, params.Set{"page": 2, "perPage": 25})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	reqs := api.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	got := reqs[0]
	if got.Method != http.MethodGet || got.Path != "/v1/workspaces" {
		t.Errorf("request = %s %s, want GET /v1/workspaces", got.Method, got.Path)
	}
	if key := got.Header.Get(credentials.HeaderAPIKey); key != testAPIKey {
		t.Errorf("X-API-Key = %q, want %q", key, testAPIKey)
	}
	if accept := got.Header.Get("Accept"); accept != "application/json" {
		t.Errorf("Accept = %q", accept)
	}
	if got.Query.Get("page") != "2" || got.Query.Get("per_page") != "25" {
		t.Errorf("query = %v", got.Query)
	}

	want := map[string]any{"data": []any{map[string]any{"_id": "ws1", "name": "Main"}}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestContentStudioClient_PostsJSONBody(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"status": true, "data": map[string]any{"_id": "p1"}})
	})
	client := api.client()

	_, err := client.Call(context.Background(), postCreate, params.Set{
		"workspaceId": "ws1",
		"contentText": "Hello",
		"accounts":    []any{"acc1"},
		"publishType": "draft",
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	got := api.Requests()[0]
	if got.Method != http.MethodPost || got.Path != "/v1/workspaces/ws1/posts" {
		t.Errorf("request = %s %s", got.Method, got.Path)
	}
	if ct := got.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	content, _ := got.Body["content"].(map[string]any)
	if content["text"] != "Hello" {
		t.Errorf("content.text = %v", content["text"])
	}
	if diff := cmp.Diff([]any{"acc1"}, got.Body["accounts"]); diff != "" {
		t.Errorf("accounts mismatch (-want +got):\n%s", diff)
	}
	scheduling, _ := got.Body["scheduling"].(map[string]any)
	if scheduling["publish_type"] != "draft" {
		t.Errorf("scheduling = %v", scheduling)
	}
}

func TestContentStudioClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  string
		wantMessage string
	}{
		{"json message", http.StatusUnauthorized, `{"message":"bad key"}`, "401", "bad key"},
		{"json error field", http.StatusUnprocessableEntity, `{"error":"Invalid accounts"}`, "422", "Invalid accounts"},
		{"plain text", http.StatusBadGateway, "upstream down", "502", "upstream down"},
		{"empty body", http.StatusInternalServerError, "", "500", "request failed with status code 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := api.client().Call(context.Background(), workspaceList, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			var he *apierror.HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("expected *apierror.HTTPError, got %T", err)
			}
			status, msg := apierror.Extract(err)
			if status != tt.wantStatus || msg != tt.wantMessage {
				t.Errorf("Extract = (%q, %q), want (%q, %q)", status, msg, tt.wantStatus, tt.wantMessage)
			}
		})
	}
}

func TestContentStudioClient_NonJSONSuccessBody(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("  OK  \n"))
	})

	resp, err := api.client().Call(context.Background(), workspaceList, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp != "OK" {
		t.Errorf("response = %#v, want %q", resp, "OK")
	}
}

func TestContentStudioClient_ValidationErrorSkipsHTTP(t *testing.T) {
	api := newFakeAPI(t, listOf())

	_, err := api.client().Call(context.Background(), router.Key{Resource: router.ResourceSocialAccount, Operation: router.OpList}, params.Set{})
	var ve *router.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *router.ValidationError, got %v", err)
	}
	if ve.Message != "Workspace ID is required" {
		t.Errorf("message = %q", ve.Message)
	}
	if n := len(api.Requests()); n != 0 {
		t.Errorf("expected no HTTP calls, got %d", n)
	}
}

func TestContentStudioClient_Timeout(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	_, err := api.client(WithTimeout(50*time.Millisecond)).Call(context.Background(), workspaceList, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if code := apierror.StatusCode(err); code != 0 {
		t.Errorf("StatusCode = %d, want 0 for a transport failure", code)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded in chain, got %v", err)
	}
}

func TestContentStudioClient_Metrics(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/me" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "bad key"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
	})
	metrics := NewContentStudioMetrics("cs.metrics", DefaultMetricsConfig())
	client := api.client(WithMetrics(metrics))

	if _, err := client.Call(context.Background(), workspaceList, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if _, err := client.TestCredential(context.Background()); err == nil {
		t.Fatal("expected credential test to fail")
	}

	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues("workspace", "list", "200")); got != 1 {
		t.Errorf("workspace.list 200 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues("auth", "validateKey", "401")); got != 1 {
		t.Errorf("auth.validateKey 401 = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(metrics.RequestDuration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestContentStudioClient_MockMode(t *testing.T) {
	client := NewContentStudioClient(credentials.Credential{APIKey: "k"}, WithMock())
	if !client.IsMock() {
		t.Fatal("expected mock client")
	}

	resp, err := client.Call(context.Background(), workspaceList, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	opts, err := options.Map(resp, options.Workspace)
	if err != nil {
		t.Fatalf("options.Map: %v", err)
	}
	if diff := cmp.Diff([]options.Option{{Name: "Mock Workspace", Value: "ws-mock"}}, opts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}

	created, err := client.Call(context.Background(), postCreate, params.Set{
		"workspaceId": "ws-mock", "contentText": "Hi", "accounts": "acc-fb", "publishType": "draft",
	})
	if err != nil {
		t.Fatalf("Call post.create: %v", err)
	}
	data, _ := created.(map[string]any)["data"].(map[string]any)
	content, _ := data["content"].(map[string]any)
	if content["text"] != "Hi" {
		t.Errorf("mock post.create did not echo content: %v", data)
	}
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"", map[string]any{}},
		{"   ", map[string]any{}},
		{`{"a":1}`, map[string]any{"a": 1.0}},
		{`[1,2]`, []any{1.0, 2.0}},
		{"not json", "not json"},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, decodeBody([]byte(tt.raw))); diff != "" {
			t.Errorf("decodeBody(%q) mismatch (-want +got):\n%s", tt.raw, diff)
		}
	}
}

// countingTransport counts round trips before delegating.
type countingTransport struct {
	base  http.RoundTripper
	calls int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return c.base.RoundTrip(r)
}

func TestClient_WithHTTPClientKeepsTransport(t *testing.T) {
	api := newFakeAPI(t, listOf(map[string]any{"_id": "ws1"}))
	transport := &countingTransport{base: http.DefaultTransport}
	client := api.client(WithHTTPClient(&http.Client{Transport: transport}))

	if _, err := client.Call(context.Background(), router.Key{Resource: router.ResourceWorkspace, Operation: router.OpList}, params.Set{}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if transport.calls != 1 {
		t.Errorf("custom transport calls = %d, want 1", transport.calls)
	}
}

func TestClient_AuthenticatesFromCredential(t *testing.T) {
	api := newFakeAPI(t, listOf())
	client := api.client()
	key := router.Key{Resource: router.ResourceWorkspace, Operation: router.OpList}
	desc, err := client.Build(key, params.Set{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	delete(desc.Headers, credentials.HeaderAPIKey)

	if _, err := client.Do(context.Background(), key, desc); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := api.Requests()[0].Header.Get(credentials.HeaderAPIKey); got != testAPIKey {
		t.Errorf("X-API-Key = %q, want %q", got, testAPIKey)
	}
}
