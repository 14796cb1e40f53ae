package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	workflow "github.com/GoCodeAlone/workflow-plugin-contentstudio"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/module"
)

// metricsMux mounts the registry of every client module built with
// metrics: true at /metrics/<client>, and all of them merged at /metrics.
// It returns the names of the mounted clients.
func metricsMux(eng *workflow.StdEngine) (*http.ServeMux, []string) {
	mux := http.NewServeMux()
	var gatherers prometheus.Gatherers
	var names []string
	for _, mod := range eng.Modules() {
		cm, ok := mod.(*module.ContentStudioClientModule)
		if !ok || cm.Client() == nil {
			continue
		}
		m := cm.Client().Metrics()
		if m == nil {
			continue
		}
		mux.Handle("/metrics/"+cm.Name(), m.Handler())
		gatherers = append(gatherers, m.Registry())
		names = append(names, cm.Name())
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
	return mux, names
}

// serveMetrics listens on addr and serves metricsMux until the returned
// shutdown function is called.
func serveMetrics(eng *workflow.StdEngine, addr string) (func(), error) {
	mux, names := metricsMux(eng)
	if len(names) == 0 {
		return nil, errors.New("--metrics-addr: no contentstudio.client module sets metrics: true")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("--metrics-addr: %w", err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	fmt.Fprintf(stdout, "Metrics: http://%s/metrics\n", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
