package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	workflow "github.com/GoCodeAlone/workflow-plugin-contentstudio"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/config"
)

// newEngine builds an engine with the ContentStudio plugin loaded. Engine
// logs go to stderr and are suppressed below error level unless verbose.
func newEngine(verbose bool) (*workflow.StdEngine, error) {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return workflow.NewEngineBuilder().WithLogger(logger).WithDefaultPlugins().Build()
}

// buildEngine loads the config files and builds an engine from them.
func buildEngine(paths []string, verbose bool) (*workflow.StdEngine, *config.WorkflowConfig, error) {
	cfg, err := config.LoadFromFiles(paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	eng, err := newEngine(verbose)
	if err != nil {
		return nil, nil, err
	}
	if err := eng.BuildFromConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to build engine from config: %w", err)
	}
	return eng, cfg, nil
}

// stringSliceFlag is a flag.Value that accumulates repeated flags.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringSliceFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// applyVars copies key=value entries into data.
func applyVars(data map[string]any, vars []string) error {
	for _, kv := range vars {
		idx := strings.IndexByte(kv, '=')
		if idx < 0 {
			return fmt.Errorf("invalid --var %q: expected key=value format", kv)
		}
		data[kv[:idx]] = kv[idx+1:]
	}
	return nil
}
