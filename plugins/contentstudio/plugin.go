// Package contentstudio provides an EnginePlugin that registers the
// ContentStudio integration:
//   - Module types: contentstudio.client
//   - Step types: step.contentstudio, step.contentstudio_load_options,
//     step.contentstudio_test_credential
package contentstudio

import (
	"context"
	"reflect"

	"github.com/GoCodeAlone/modular"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/capability"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/module"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/options"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/plugin"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/schema"
)

const (
	// CapabilitySocialPublishing is the capability served by *module.Node.
	CapabilitySocialPublishing = "social-publishing"

	ModuleTypeClient       = "contentstudio.client"
	StepTypeCall           = "step.contentstudio"
	StepTypeLoadOptions    = "step.contentstudio_load_options"
	StepTypeTestCredential = "step.contentstudio_test_credential"

	pluginVersion = "1.0.0"
)

// SocialPublisher is the contract of the social-publishing capability.
type SocialPublisher interface {
	Execute(ctx context.Context, items []map[string]any) ([]map[string]any, error)
	LoadOptions(ctx context.Context, method string, current map[string]any) ([]options.Option, error)
	TestCredential(ctx context.Context) error
}

// Plugin registers the ContentStudio module type and pipeline step types.
type Plugin struct {
	plugin.BaseEnginePlugin
	schemas *schema.ModuleSchemaRegistry
}

// New creates a new ContentStudio plugin.
func New() *Plugin {
	return &Plugin{
		BaseEnginePlugin: plugin.BaseEnginePlugin{
			PluginName:        "contentstudio",
			PluginVersion:     pluginVersion,
			PluginDescription: "ContentStudio integration: API client module and pipeline steps",
			Manifest: plugin.PluginManifest{
				Name:        "contentstudio",
				Version:     pluginVersion,
				Author:      "GoCodeAlone",
				Description: "ContentStudio integration: API client (contentstudio.client), resource/operation calls, dropdown option loading and credential checks.",
				Repository:  "https://github.com/GoCodeAlone/workflow-plugin-contentstudio",
				Tags:        []string{"social", "publishing", "contentstudio"},
				ModuleTypes: []string{ModuleTypeClient},
				StepTypes:   []string{StepTypeCall, StepTypeLoadOptions, StepTypeTestCredential},
				Capabilities: []plugin.CapabilityDecl{
					{Name: CapabilitySocialPublishing, Role: "provider", Priority: 50},
				},
			},
		},
		schemas: schema.NewModuleSchemaRegistry(),
	}
}

// Capabilities returns the capability contracts defined by this plugin.
func (p *Plugin) Capabilities() []capability.Contract {
	c, err := capability.ContractFor(CapabilitySocialPublishing,
		"Social media post management: list, create, delete and approve posts; load dropdown options",
		(*SocialPublisher)(nil))
	if err != nil {
		return nil
	}
	return []capability.Contract{c}
}

// ProviderType reports *module.Node as the type serving social-publishing.
func (p *Plugin) ProviderType(capabilityName string) reflect.Type {
	if capabilityName == CapabilitySocialPublishing {
		return reflect.TypeOf((*module.Node)(nil))
	}
	return nil
}

// ModuleFactories returns the factory for the contentstudio.client module type.
func (p *Plugin) ModuleFactories() map[string]plugin.ModuleFactory {
	return map[string]plugin.ModuleFactory{
		ModuleTypeClient: func(name string, cfg map[string]any) modular.Module {
			return module.NewContentStudioClientModule(name, cfg)
		},
	}
}

// StepFactories returns factories for the ContentStudio pipeline step types.
func (p *Plugin) StepFactories() map[string]plugin.StepFactory {
	steps := module.NewStepRegistry()
	steps.Register(StepTypeCall, module.NewContentStudioStepFactory())
	steps.Register(StepTypeLoadOptions, module.NewContentStudioLoadOptionsStepFactory())
	steps.Register(StepTypeTestCredential, module.NewContentStudioTestCredentialStepFactory())

	out := make(map[string]plugin.StepFactory, len(steps.Types()))
	for _, stepType := range steps.Types() {
		out[stepType] = func(name string, cfg map[string]any, app modular.Application) (any, error) {
			return steps.Create(stepType, name, cfg, app)
		}
	}
	return out
}

// ModuleSchemas returns the UI schemas of the module and step types.
func (p *Plugin) ModuleSchemas() []*schema.ModuleSchema {
	out := make([]*schema.ModuleSchema, 0, 4)
	for _, t := range []string{ModuleTypeClient, StepTypeCall, StepTypeLoadOptions, StepTypeTestCredential} {
		if s := p.schemas.Get(t); s != nil {
			out = append(out, s)
		}
	}
	return out
}
