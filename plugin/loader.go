package plugin

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/capability"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/schema"
)

// PluginLoader loads EnginePlugins and populates registries.
type PluginLoader struct {
	capabilityReg   *capability.Registry
	schemaRegistry  *schema.ModuleSchemaRegistry
	moduleFactories map[string]ModuleFactory
	stepFactories   map[string]StepFactory
	plugins         []EnginePlugin
}

// NewPluginLoader creates a new PluginLoader backed by the given capability and schema registries.
func NewPluginLoader(capReg *capability.Registry, schemaReg *schema.ModuleSchemaRegistry) *PluginLoader {
	return &PluginLoader{
		capabilityReg:   capReg,
		schemaRegistry:  schemaReg,
		moduleFactories: make(map[string]ModuleFactory),
		stepFactories:   make(map[string]StepFactory),
	}
}

// LoadPlugin validates a plugin's manifest and registers its capabilities,
// factories and schemas. Every type the manifest declares must have a
// factory, and a type already registered by another plugin is a conflict.
func (l *PluginLoader) LoadPlugin(p EnginePlugin) error {
	manifest := p.EngineManifest()
	if err := manifest.Validate(); err != nil {
		return fmt.Errorf("plugin %q: %w", manifest.Name, err)
	}

	modules, steps := p.ModuleFactories(), p.StepFactories()
	for _, t := range manifest.ModuleTypes {
		if _, ok := modules[t]; !ok {
			return fmt.Errorf("plugin %q: declared module type %q has no factory", manifest.Name, t)
		}
	}
	for _, t := range manifest.StepTypes {
		if _, ok := steps[t]; !ok {
			return fmt.Errorf("plugin %q: declared step type %q has no factory", manifest.Name, t)
		}
	}
	for typeName := range modules {
		if _, exists := l.moduleFactories[typeName]; exists {
			return fmt.Errorf("plugin %q: module type %q already registered", manifest.Name, typeName)
		}
	}
	for typeName := range steps {
		if _, exists := l.stepFactories[typeName]; exists {
			return fmt.Errorf("plugin %q: step type %q already registered", manifest.Name, typeName)
		}
	}

	for _, c := range p.Capabilities() {
		if err := l.capabilityReg.RegisterContract(c); err != nil {
			return fmt.Errorf("plugin %q: register contract %q: %w", manifest.Name, c.Name, err)
		}
	}
	for _, decl := range manifest.Capabilities {
		if decl.Role != "provider" {
			continue
		}
		if err := l.capabilityReg.RegisterProvider(decl.Name, manifest.Name, decl.Priority, providerType(p, decl.Name)); err != nil {
			return fmt.Errorf("plugin %q: register provider for %q: %w", manifest.Name, decl.Name, err)
		}
	}

	maps.Copy(l.moduleFactories, modules)
	maps.Copy(l.stepFactories, steps)
	for _, s := range p.ModuleSchemas() {
		l.schemaRegistry.Register(s)
	}
	l.plugins = append(l.plugins, p)
	return nil
}

// CapabilityProvider is implemented by plugins whose capability is served
// by a type other than the plugin itself.
type CapabilityProvider interface {
	ProviderType(capabilityName string) reflect.Type
}

func providerType(p EnginePlugin, capabilityName string) reflect.Type {
	if cp, ok := p.(CapabilityProvider); ok {
		if t := cp.ProviderType(capabilityName); t != nil {
			return t
		}
	}
	return reflect.TypeOf(p)
}

// ModuleFactories returns a copy of all registered module factories.
func (l *PluginLoader) ModuleFactories() map[string]ModuleFactory {
	return maps.Clone(l.moduleFactories)
}

// StepFactories returns a copy of all registered step factories.
func (l *PluginLoader) StepFactories() map[string]StepFactory {
	return maps.Clone(l.stepFactories)
}

// StepTypes returns the registered step types, sorted.
func (l *PluginLoader) StepTypes() []string {
	return slices.Sorted(maps.Keys(l.stepFactories))
}

// CapabilityRegistry returns the loader's capability registry.
func (l *PluginLoader) CapabilityRegistry() *capability.Registry {
	return l.capabilityReg
}

// SchemaRegistry returns the loader's schema registry.
func (l *PluginLoader) SchemaRegistry() *schema.ModuleSchemaRegistry {
	return l.schemaRegistry
}

// LoadedPlugins returns all successfully loaded plugins in load order.
func (l *PluginLoader) LoadedPlugins() []EnginePlugin {
	return slices.Clone(l.plugins)
}
