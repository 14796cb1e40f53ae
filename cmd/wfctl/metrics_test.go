package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
)

const metricsConfig = `
modules:
  - name: contentstudio
    type: contentstudio.client
    config:
      api_key: k-cli
      base_url: "mock://"
      metrics: true
  - name: quiet
    type: contentstudio.client
    config:
      api_key: k-cli
      base_url: "mock://"
pipelines:
  workspaces:
    steps:
      - name: list
        type: step.contentstudio
        config:
          client: contentstudio
          resource: workspace
          operation: list
`

func fetch(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d: %s", url, resp.StatusCode, body)
	}
	return string(body)
}

func TestMetricsMux(t *testing.T) {
	path := writeTestConfig(t, t.TempDir(), "cfg.yaml", metricsConfig)
	eng, _, err := buildEngine([]string{path}, false)
	if err != nil {
		t.Fatalf("buildEngine: %v", err)
	}
	if _, err := eng.ExecutePipeline(context.Background(), "workspaces", nil); err != nil {
		t.Fatalf("ExecutePipeline: %v", err)
	}

	mux, names := metricsMux(eng)
	if !slices.Equal(names, []string{"contentstudio"}) {
		t.Fatalf("mounted clients = %v, want [contentstudio]", names)
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, p := range []string{"/metrics", "/metrics/contentstudio"} {
		body := fetch(t, srv.URL+p)
		if !strings.Contains(body, `contentstudio_api_items_processed_total{operation="list",resource="workspace",status="success"} 1`) {
			t.Errorf("%s missing item counter:\n%s", p, body)
		}
	}

	resp, err := http.Get(srv.URL + "/metrics/quiet")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("client without metrics served status %d", resp.StatusCode)
	}
}

func TestRunPipelineRun_MetricsAddr(t *testing.T) {
	out := captureStdout(t)
	path := writeTestConfig(t, t.TempDir(), "cfg.yaml", metricsConfig)
	if err := runPipeline([]string{"run", "-c", path, "-p", "workspaces", "--metrics-addr", "127.0.0.1:0"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Metrics: http://127.0.0.1:") {
		t.Errorf("metrics address not reported:\n%s", out.String())
	}
}

func TestRunPipelineRun_MetricsAddrNeedsMetrics(t *testing.T) {
	captureStdout(t)
	path := writeTestConfig(t, t.TempDir(), "cfg.yaml", mockConfig)
	err := runPipeline([]string{"run", "-c", path, "-p", "check", "--metrics-addr", "127.0.0.1:0"})
	if err == nil || !strings.Contains(err.Error(), "metrics: true") {
		t.Errorf("err = %v, want a metrics: true hint", err)
	}
}
