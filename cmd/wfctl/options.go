package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/module"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/plugins/contentstudio"
)

// runOptions loads dropdown options through a configured client module.
func runOptions(args []string) error {
	fs := flag.NewFlagSet("options", flag.ContinueOnError)
	var configPaths, vars stringSliceFlag
	fs.Var(&configPaths, "c", "Path to workflow config YAML file (required, repeatable)")
	client := fs.String("client", "", "Name of the contentstudio.client module (required)")
	method := fs.String("method", "", "Load-options method, e.g. getWorkspaces (required)")
	fs.Var(&vars, "var", "Current parameter value in key=value format (repeatable)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage: wfctl options -c <config.yaml> -client <module> -method <method> [--var key=value]

Examples:
  wfctl options -c social.yaml -client contentstudio -method getWorkspaces
  wfctl options -c social.yaml -client contentstudio -method getAccounts --var workspaceId=ws1

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(configPaths) == 0 || *client == "" || *method == "" {
		fs.Usage()
		return fmt.Errorf("-c, -client and -method are required")
	}

	current := make(map[string]any)
	if err := applyVars(current, vars); err != nil {
		return err
	}

	eng, _, err := buildEngine(configPaths, false)
	if err != nil {
		return err
	}
	factory, ok := eng.PluginLoader().StepFactories()[contentstudio.StepTypeLoadOptions]
	if !ok {
		return fmt.Errorf("step type %q is not registered", contentstudio.StepTypeLoadOptions)
	}
	raw, err := factory("options", map[string]any{"client": *client, "method": *method, "params": current}, eng.GetApp())
	if err != nil {
		return err
	}
	step, ok := raw.(module.PipelineStep)
	if !ok {
		return fmt.Errorf("step type %q returned %T", contentstudio.StepTypeLoadOptions, raw)
	}

	result, err := step.Execute(context.Background(), module.NewPipelineContext(nil, nil))
	if err != nil {
		return err
	}
	opts, _ := result.Output["options"].([]any)
	for _, o := range opts {
		m, _ := o.(map[string]any)
		fmt.Fprintf(stdout, "%-40v  %v\n", m["value"], m["name"])
	}
	fmt.Fprintf(stdout, "(%d options)\n", len(opts))
	return nil
}
