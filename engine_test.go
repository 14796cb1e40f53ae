package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/config"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/module"
)

const mockWorkflow = `
name: social-publishing
modules:
  - name: contentstudio
    type: contentstudio.client
    config:
      api_key: "${CS_ENGINE_TEST_KEY}"
      base_url: "mock://"
pipelines:
  publish:
    timeout: 30s
    steps:
      - name: workspaces
        type: step.contentstudio_load_options
        config:
          client: contentstudio
          method: getWorkspaces
      - name: create
        type: step.contentstudio
        config:
          client: contentstudio
          resource: post
          operation: create
          params:
            contentText: Hello from the engine
            accounts: acc-fb
            publishType: draft
  check:
    steps:
      - name: credential
        type: step.contentstudio_test_credential
        config:
          client: contentstudio
`

func newTestEngine(t *testing.T) (*StdEngine, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine, err := NewEngineBuilder().WithLogger(logger).WithDefaultPlugins().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return engine, &buf
}

func mustParse(t *testing.T, yaml string) *config.WorkflowConfig {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	return cfg
}

func TestEngine_MockPipeline(t *testing.T) {
	t.Setenv("CS_ENGINE_TEST_KEY", "k-engine-9876")
	engine, logs := newTestEngine(t)
	if err := engine.BuildFromConfig(mustParse(t, mockWorkflow)); err != nil {
		t.Fatalf("BuildFromConfig: %v", err)
	}
	if diff := cmp.Diff([]string{"check", "publish"}, engine.PipelineNames()); diff != "" {
		t.Errorf("pipelines mismatch (-want +got):\n%s", diff)
	}

	pc, err := engine.ExecutePipeline(context.Background(), "publish", map[string]any{"workspaceId": "ws-mock"})
	if err != nil {
		t.Fatalf("ExecutePipeline: %v", err)
	}

	wantOptions := []any{map[string]any{"name": "Mock Workspace", "value": "ws-mock"}}
	if diff := cmp.Diff(wantOptions, pc.StepOutputs["workspaces"]["options"]); diff != "" {
		t.Errorf("workspace options mismatch (-want +got):\n%s", diff)
	}

	text, err := pc.Lookup("steps.create.response.data.content.text")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if text != "Hello from the engine" {
		t.Errorf("created post text = %v", text)
	}
	if strings.Contains(logs.String(), "k-engine-9876") {
		t.Error("API key leaked into logs")
	}
}

func TestEngine_TestCredentialPipeline(t *testing.T) {
	t.Setenv("CS_ENGINE_TEST_KEY", "k")
	engine, _ := newTestEngine(t)
	if err := engine.BuildFromConfig(mustParse(t, mockWorkflow)); err != nil {
		t.Fatalf("BuildFromConfig: %v", err)
	}
	pc, err := engine.ExecutePipeline(context.Background(), "check", nil)
	if err != nil {
		t.Fatalf("ExecutePipeline: %v", err)
	}
	if pc.StepOutputs["credential"]["valid"] != true {
		t.Errorf("credential output = %v", pc.StepOutputs["credential"])
	}
}

type apiRecorder struct {
	mu    sync.Mutex
	paths []string
	keys  []string
}

func (r *apiRecorder) handler(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.paths = append(r.paths, req.Method+" "+req.URL.Path+"?"+req.URL.RawQuery)
	r.keys = append(r.keys, req.Header.Get("X-API-Key"))
	r.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case req.Method == http.MethodDelete && strings.HasSuffix(req.URL.Path, "/posts/bad"):
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Post not found"})
	case req.Method == http.MethodDelete:
		_ = json.NewEncoder(w).Encode(map[string]any{"status": true})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{map[string]any{"_id": "p1"}, map[string]any{"_id": "p2"}}})
	}
}

func liveWorkflow(baseURL string) string {
	return `
modules:
  - name: cs
    type: contentstudio.client
    config:
      api_key: k-live
      base_url: "` + baseURL + `/v1/"
pipelines:
  cleanup:
    steps:
      - name: list
        type: step.contentstudio
        config:
          client: cs
          resource: post
          operation: list
          params:
            workspaceId: ws1
            statuses: draft
      - name: delete
        type: step.contentstudio
        config:
          client: cs
          resource: post
          operation: delete
          items_from: posts
          params:
            workspaceId: ws1
`
}

func TestEngine_LivePipelineAgainstFakeAPI(t *testing.T) {
	rec := &apiRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	engine, _ := newTestEngine(t)
	if err := engine.BuildFromConfig(mustParse(t, liveWorkflow(srv.URL))); err != nil {
		t.Fatalf("BuildFromConfig: %v", err)
	}

	trigger := map[string]any{"posts": []any{map[string]any{"postId": "p1"}, map[string]any{"postId": "p2"}}}
	pc, err := engine.ExecutePipeline(context.Background(), "cleanup", trigger)
	if err != nil {
		t.Fatalf("ExecutePipeline: %v", err)
	}
	if got := pc.StepOutputs["delete"]["count"]; got != 2 {
		t.Errorf("delete count = %v, want 2", got)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	wantPaths := []string{
		"GET /v1/workspaces/ws1/posts?page=1&per_page=10&status%5B%5D=draft",
		"DELETE /v1/workspaces/ws1/posts/p1?",
		"DELETE /v1/workspaces/ws1/posts/p2?",
	}
	if diff := cmp.Diff(wantPaths, rec.paths); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
	for i, k := range rec.keys {
		if k != "k-live" {
			t.Errorf("request %d X-API-Key = %q", i, k)
		}
	}
}

func TestEngine_LivePipelineStopsOnAPIError(t *testing.T) {
	rec := &apiRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	defer srv.Close()

	engine, _ := newTestEngine(t)
	if err := engine.BuildFromConfig(mustParse(t, liveWorkflow(srv.URL))); err != nil {
		t.Fatalf("BuildFromConfig: %v", err)
	}

	trigger := map[string]any{"posts": []any{map[string]any{"postId": "bad"}, map[string]any{"postId": "p2"}}}
	_, err := engine.ExecutePipeline(context.Background(), "cleanup", trigger)
	if err == nil || !strings.Contains(err.Error(), "Post not found") {
		t.Fatalf("err = %v, want API message", err)
	}
	var execErr *module.ExecutionError
	if !errors.As(err, &execErr) || execErr.Item != 0 {
		t.Errorf("expected ExecutionError for item 0, got %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.paths) != 2 {
		t.Errorf("expected list + one delete, got %v", rec.paths)
	}
}

func TestEngine_BuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "unknown module type",
			yaml: `
modules:
  - name: db
    type: database.postgres
`,
			wantErr: `unknown module type "database.postgres"`,
		},
		{
			name: "unknown step type",
			yaml: `
modules:
  - name: cs
    type: contentstudio.client
    config: {api_key: k, base_url: "mock://"}
pipelines:
  p:
    steps:
      - name: s
        type: step.http_call
`,
			wantErr: `unknown step type "step.http_call"`,
		},
		{
			name: "step factory error",
			yaml: `
modules:
  - name: cs
    type: contentstudio.client
    config: {api_key: k, base_url: "mock://"}
pipelines:
  p:
    steps:
      - name: s
        type: step.contentstudio
        config: {client: cs, resource: workspace, operation: delete}
`,
			wantErr: "unsupported operation workspace.delete",
		},
		{
			name: "dependency cycle",
			yaml: `
modules:
  - name: a
    type: contentstudio.client
    config: {api_key: k, base_url: "mock://"}
    dependsOn: [b]
  - name: b
    type: contentstudio.client
    config: {api_key: k, base_url: "mock://"}
    dependsOn: [a]
`,
			wantErr: "dependency cycle",
		},
		{
			name: "module init error",
			yaml: `
modules:
  - name: cs
    type: contentstudio.client
    config: {base_url: "mock://"}
`,
			wantErr: "failed to initialize modules",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t)
			cfg, err := config.LoadFromBytes([]byte(tt.yaml))
			if err == nil {
				err = engine.BuildFromConfig(cfg)
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_BuildTwice(t *testing.T) {
	engine, _ := newTestEngine(t)
	cfg := config.NewEmptyWorkflowConfig()
	if err := engine.BuildFromConfig(cfg); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if err := engine.BuildFromConfig(cfg); !errors.Is(err, ErrAlreadyBuilt) {
		t.Fatalf("err = %v, want ErrAlreadyBuilt", err)
	}
}

func TestEngine_UnknownPipeline(t *testing.T) {
	engine, _ := newTestEngine(t)
	if err := engine.BuildFromConfig(config.NewEmptyWorkflowConfig()); err != nil {
		t.Fatalf("BuildFromConfig: %v", err)
	}
	_, err := engine.ExecutePipeline(context.Background(), "missing", nil)
	if !errors.Is(err, ErrPipelineNotFound) {
		t.Fatalf("err = %v, want ErrPipelineNotFound", err)
	}
}

func TestModuleOrder(t *testing.T) {
	mods := []config.ModuleConfig{
		{Name: "publisher", DependsOn: []string{"metrics", "client"}},
		{Name: "client"},
		{Name: "metrics", DependsOn: []string{"client"}},
	}
	got, err := moduleOrder(mods)
	if err != nil {
		t.Fatalf("moduleOrder: %v", err)
	}
	var names []string
	for _, m := range got {
		names = append(names, m.Name)
	}
	if diff := cmp.Diff([]string{"client", "metrics", "publisher"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}
