package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/schema"
)

func runSchema(args []string) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	output := fs.String("output", "", "Write schema to file instead of stdout")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: wfctl schema [options]\n\nGenerate JSON Schema for workflow configuration files.\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := newEngine(false)
	if err != nil {
		return err
	}
	s := schema.GenerateWorkflowSchema(eng.PluginLoader().SchemaRegistry())

	var w io.Writer = stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	if *output != "" {
		fmt.Fprintf(os.Stderr, "Schema written to %s\n", *output)
	}
	return nil
}
