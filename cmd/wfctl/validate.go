package main

import (
	"flag"
	"fmt"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/config"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/schema"
)

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	strict := fs.Bool("strict", false, "Enable strict validation (no empty module list allowed)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: wfctl validate [options] <config.yaml> [overlay.yaml...]\n\nValidate a workflow configuration. Later files are merged over earlier ones.\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("config file path is required")
	}

	cfg, err := config.LoadFromFiles(fs.Args()...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var opts []schema.ValidationOption
	if !*strict {
		opts = append(opts, schema.WithAllowEmptyModules())
	}
	eng, err := newEngine(false)
	if err != nil {
		return err
	}
	if err := schema.ValidateConfig(cfg, eng.PluginLoader().SchemaRegistry(), opts...); err != nil {
		return fmt.Errorf("validation failed:\n%v", err)
	}

	steps := 0
	for _, p := range cfg.Pipelines {
		steps += len(p.Steps)
	}
	fmt.Fprintf(stdout, "config %s is valid (%d modules, %d pipelines, %d steps)\n",
		fs.Arg(0), len(cfg.Modules), len(cfg.Pipelines), steps)
	return nil
}
