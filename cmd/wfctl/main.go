package main

import (
	"fmt"
	"io"
	"os"
)

var version = "dev"

// stdout receives command output; tests replace it.
var stdout io.Writer = os.Stdout

var commands = map[string]func([]string) error{
	"validate": runValidate,
	"pipeline": runPipeline,
	"options":  runOptions,
	"schema":   runSchema,
	"plugins":  runPlugins,
}

func usage() {
	fmt.Fprintf(os.Stderr, `wfctl - ContentStudio workflow CLI (version %s)

Usage:
  wfctl <command> [options]

Commands:
  validate   Validate one or more workflow configuration files
  pipeline   Pipeline management (list, run)
  options    Load dropdown options (workspaces, accounts, posts, ...)
  schema     Generate JSON Schema for workflow configs
  plugins    List built-in plugins and capability providers

Run 'wfctl <command> -h' for command-specific help.
`, version)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		usage()
		os.Exit(0)
	}
	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Println(version)
		os.Exit(0)
	}

	fn, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err := fn(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
