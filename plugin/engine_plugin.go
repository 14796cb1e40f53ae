package plugin

import (
	"github.com/GoCodeAlone/modular"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/capability"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/schema"
)

// EnginePlugin contributes module types, pipeline step types, capability
// contracts and UI schemas to a workflow engine.
type EnginePlugin interface {
	Name() string
	Version() string
	Description() string

	// EngineManifest returns the plugin manifest with capability declarations.
	EngineManifest() *PluginManifest

	// Capabilities returns the capability contracts this plugin defines.
	Capabilities() []capability.Contract

	// ModuleFactories returns module type factories keyed by module type
	// (e.g., "contentstudio.client").
	ModuleFactories() map[string]ModuleFactory

	// StepFactories returns pipeline step type factories keyed by step type
	// (e.g., "step.contentstudio").
	StepFactories() map[string]StepFactory

	// ModuleSchemas returns UI schema definitions for this plugin's types.
	ModuleSchemas() []*schema.ModuleSchema
}

// ModuleFactory creates a modular.Module from a name and config map.
type ModuleFactory func(name string, config map[string]any) modular.Module

// StepFactory creates a pipeline step from config.
// The returned value should implement module.PipelineStep; any keeps this
// package free of the module package.
type StepFactory func(name string, config map[string]any, app modular.Application) (any, error)

// BaseEnginePlugin provides no-op defaults for all EnginePlugin methods.
// Embed this in concrete plugin implementations to only override what you need.
type BaseEnginePlugin struct {
	PluginName        string
	PluginVersion     string
	PluginDescription string
	Manifest          PluginManifest
}

func (b *BaseEnginePlugin) Name() string        { return b.PluginName }
func (b *BaseEnginePlugin) Version() string     { return b.PluginVersion }
func (b *BaseEnginePlugin) Description() string { return b.PluginDescription }

// EngineManifest returns the plugin manifest.
func (b *BaseEnginePlugin) EngineManifest() *PluginManifest { return &b.Manifest }

// Capabilities returns an empty capability list.
func (b *BaseEnginePlugin) Capabilities() []capability.Contract { return nil }

// ModuleFactories returns no module factories.
func (b *BaseEnginePlugin) ModuleFactories() map[string]ModuleFactory { return nil }

// StepFactories returns no step factories.
func (b *BaseEnginePlugin) StepFactories() map[string]StepFactory { return nil }

// ModuleSchemas returns no module schemas.
func (b *BaseEnginePlugin) ModuleSchemas() []*schema.ModuleSchema { return nil }
