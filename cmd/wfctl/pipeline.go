package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/config"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/module"
)

func runPipeline(args []string) error {
	if len(args) < 1 {
		return pipelineUsage()
	}
	switch args[0] {
	case "list":
		return runPipelineList(args[1:])
	case "run":
		return runPipelineRun(args[1:])
	default:
		return pipelineUsage()
	}
}

func pipelineUsage() error {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: wfctl pipeline <subcommand> [options]

Subcommands:
  list   List available pipelines in a config file
  run    Execute a pipeline from a config file
`)
	return fmt.Errorf("pipeline subcommand is required")
}

// runPipelineList lists all pipelines defined in a config file.
func runPipelineList(args []string) error {
	fs := flag.NewFlagSet("pipeline list", flag.ContinueOnError)
	var configPaths stringSliceFlag
	fs.Var(&configPaths, "c", "Path to workflow config YAML file (required, repeatable)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: wfctl pipeline list -c <config.yaml>\n\nList available pipelines in a config file.\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(configPaths) == 0 {
		fs.Usage()
		return fmt.Errorf("-c (config file) is required")
	}

	cfg, err := config.LoadFromFiles(configPaths...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if len(cfg.Pipelines) == 0 {
		fmt.Fprintln(stdout, "No pipelines defined in config.")
		return nil
	}

	names := slices.Sorted(maps.Keys(cfg.Pipelines))
	fmt.Fprintf(stdout, "Pipelines (%d):\n", len(names))
	for _, name := range names {
		fmt.Fprintf(stdout, "  %-40s  (%d steps)\n", name, len(cfg.Pipelines[name].Steps))
	}
	return nil
}

// runPipelineRun executes a named pipeline from a config file.
func runPipelineRun(args []string) error {
	fs := flag.NewFlagSet("pipeline run", flag.ContinueOnError)
	var configPaths, vars stringSliceFlag
	fs.Var(&configPaths, "c", "Path to workflow config YAML file (required, repeatable)")
	pipelineName := fs.String("p", "", "Name of the pipeline to run (required)")
	inputJSON := fs.String("input", "", "Input data as JSON object")
	format := fs.String("format", "text", "Output format for step outputs: text, json or yaml")
	verbose := fs.Bool("verbose", false, "Show engine logs and detailed step output")
	metricsAddr := fs.String("metrics-addr", "", "Serve client metrics on this address while the pipeline runs (e.g. :9090)")
	fs.Var(&vars, "var", "Variable in key=value format (repeatable)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage: wfctl pipeline run -c <config.yaml> -p <pipeline-name> [options]

Execute a pipeline locally from a config file.

Examples:
  wfctl pipeline run -c social.yaml -p publish --var workspaceId=ws1
  wfctl pipeline run -c social.yaml -p cleanup --input '{"posts":[{"postId":"p1"}]}'
  wfctl pipeline run -c social.yaml -p accounts --metrics-addr :9090

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(configPaths) == 0 {
		fs.Usage()
		return fmt.Errorf("-c (config file) is required")
	}
	if *pipelineName == "" {
		fs.Usage()
		return fmt.Errorf("-p (pipeline name) is required")
	}
	if !slices.Contains([]string{"text", "json", "yaml"}, *format) {
		return fmt.Errorf("invalid -format %q: expected text, json or yaml", *format)
	}

	triggerData := make(map[string]any)
	if *inputJSON != "" {
		if err := json.Unmarshal([]byte(*inputJSON), &triggerData); err != nil {
			return fmt.Errorf("invalid --input JSON: %w", err)
		}
	}
	if err := applyVars(triggerData, vars); err != nil {
		return err
	}

	eng, cfg, err := buildEngine(configPaths, *verbose)
	if err != nil {
		return err
	}
	pipeline, ok := eng.Pipeline(*pipelineName)
	if !ok {
		available := slices.Sorted(maps.Keys(cfg.Pipelines))
		if len(available) == 0 {
			return fmt.Errorf("pipeline %q not found (no pipelines defined in config)", *pipelineName)
		}
		return fmt.Errorf("pipeline %q not found; available: %s", *pipelineName, strings.Join(available, ", "))
	}

	if *metricsAddr != "" {
		shutdown, err := serveMetrics(eng, *metricsAddr)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	fmt.Fprintf(stdout, "Pipeline: %s\n", *pipelineName)
	if len(triggerData) > 0 {
		inputBytes, _ := json.Marshal(triggerData)
		fmt.Fprintf(stdout, "Input: %s\n", inputBytes)
	}
	fmt.Fprintln(stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	totalStart := time.Now()
	pc, execErr := executePipelineWithProgress(ctx, pipeline, triggerData, *verbose)
	totalElapsed := time.Since(totalStart)

	if execErr != nil {
		fmt.Fprintf(stdout, "\nPipeline FAILED in %s\n", totalElapsed.Round(time.Millisecond))
		return execErr
	}
	fmt.Fprintf(stdout, "Pipeline completed successfully in %s\n", totalElapsed.Round(time.Millisecond))

	if *format != "text" && pc != nil {
		return writeOutputs(*format, pc.StepOutputs)
	}
	return nil
}

func writeOutputs(format string, outputs map[string]map[string]any) error {
	fmt.Fprintln(stdout)
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(outputs)
	default:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outputs)
	}
}

// executePipelineWithProgress runs the pipeline with every step wrapped in a
// progress reporter.
func executePipelineWithProgress(ctx context.Context, p *module.Pipeline, triggerData map[string]any, verbose bool) (*module.PipelineContext, error) {
	original := p.Steps
	wrapped := make([]module.PipelineStep, len(original))
	for i, step := range original {
		wrapped[i] = &progressStep{inner: step, index: i, total: len(original), verbose: verbose}
	}
	p.Steps = wrapped
	defer func() { p.Steps = original }()

	return p.Execute(ctx, triggerData)
}

// progressStep wraps a PipelineStep and prints progress before/after execution.
type progressStep struct {
	inner   module.PipelineStep
	index   int
	total   int
	verbose bool
}

func (ps *progressStep) Name() string { return ps.inner.Name() }

func (ps *progressStep) Execute(ctx context.Context, pc *module.PipelineContext) (*module.StepResult, error) {
	start := time.Now()
	fmt.Fprintf(stdout, "Step %d/%d: %s ... ", ps.index+1, ps.total, ps.inner.Name())

	result, err := ps.inner.Execute(ctx, pc)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(stdout, "FAILED (%s)\n", elapsed.Round(time.Millisecond))
		fmt.Fprintf(stdout, "  Error: %v\n", err)
		return result, err
	}
	fmt.Fprintf(stdout, "OK (%s)\n", elapsed.Round(time.Millisecond))

	if ps.verbose && result != nil {
		for _, k := range slices.Sorted(maps.Keys(result.Output)) {
			fmt.Fprintf(stdout, "  %s = %v\n", k, result.Output[k])
		}
	}
	return result, nil
}
