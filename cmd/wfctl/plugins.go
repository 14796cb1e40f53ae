package main

import (
	"flag"
	"fmt"
	"strings"
)

// runPlugins lists the compiled-in plugins and the capabilities they serve.
func runPlugins(args []string) error {
	fs := flag.NewFlagSet("plugins", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: wfctl plugins\n\nList built-in plugins, their module and step types, and capability providers.\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := newEngine(false)
	if err != nil {
		return err
	}
	loader := eng.PluginLoader()

	fmt.Fprintf(stdout, "%-20s %s\n", "NAME", "VERSION")
	fmt.Fprintf(stdout, "%-20s %s\n", "----", "-------")
	for _, p := range loader.LoadedPlugins() {
		fmt.Fprintf(stdout, "%-20s %s\n", p.Name(), p.Version())
		m := p.EngineManifest()
		if len(m.ModuleTypes) > 0 {
			fmt.Fprintf(stdout, "  modules: %s\n", strings.Join(m.ModuleTypes, ", "))
		}
		if len(m.StepTypes) > 0 {
			fmt.Fprintf(stdout, "  steps:   %s\n", strings.Join(m.StepTypes, ", "))
		}
	}

	caps := loader.CapabilityRegistry()
	names := caps.ListCapabilities()
	if len(names) == 0 {
		return nil
	}
	fmt.Fprintf(stdout, "\nCapabilities (%d):\n", len(names))
	for _, name := range names {
		provider, err := caps.Resolve(name)
		if err != nil {
			fmt.Fprintf(stdout, "  %s  (no provider)\n", name)
			continue
		}
		fmt.Fprintf(stdout, "  %s  provided by %s (%v)\n", name, provider.PluginName, provider.Impl)
		if c, ok := caps.ContractFor(name); ok {
			for _, m := range c.RequiredMethods {
				fmt.Fprintf(stdout, "    %s(%s)\n", m.Name, strings.Join(m.Params, ", "))
			}
		}
	}
	return nil
}
