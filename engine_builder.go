package workflow

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/GoCodeAlone/modular"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/config"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/plugin"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/plugins/contentstudio"
)

// EngineBuilder provides a fluent API for constructing a StdEngine.
//
//	engine, err := workflow.NewEngineBuilder().
//	    WithDefaultPlugins().
//	    BuildFromConfig(cfg)
type EngineBuilder struct {
	app     modular.Application
	logger  modular.Logger
	plugins []plugin.EnginePlugin

	pluginLoader *plugin.PluginLoader
	configPaths  []string
}

// appConfig is the empty root config section used when no application is supplied.
type appConfig struct{}

// NewEngineBuilder creates a new EngineBuilder with no plugins.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{}
}

// WithApplication sets a custom modular.Application on the builder.
// If not called, Build() creates a default StdApplication.
func (b *EngineBuilder) WithApplication(app modular.Application) *EngineBuilder {
	b.app = app
	return b
}

// WithLogger sets a custom logger on the builder.
// If not called, Build() creates a default slog.Logger writing to stdout.
func (b *EngineBuilder) WithLogger(logger modular.Logger) *EngineBuilder {
	b.logger = logger
	return b
}

// WithPlugin adds a plugin to be loaded during Build().
func (b *EngineBuilder) WithPlugin(p plugin.EnginePlugin) *EngineBuilder {
	b.plugins = append(b.plugins, p)
	return b
}

// WithDefaultPlugins adds the ContentStudio plugin.
func (b *EngineBuilder) WithDefaultPlugins() *EngineBuilder {
	return b.WithPlugin(contentstudio.New())
}

// WithPluginLoader sets a custom plugin loader on the engine.
func (b *EngineBuilder) WithPluginLoader(loader *plugin.PluginLoader) *EngineBuilder {
	b.pluginLoader = loader
	return b
}

// WithConfigPaths stores config files for BuildAndConfigure. Later files
// are merged over earlier ones.
func (b *EngineBuilder) WithConfigPaths(paths ...string) *EngineBuilder {
	b.configPaths = append(b.configPaths, paths...)
	return b
}

// Build creates a StdEngine and loads every plugin.
func (b *EngineBuilder) Build() (*StdEngine, error) {
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	if b.app == nil {
		b.app = modular.NewStdApplication(modular.NewStdConfigProvider(&appConfig{}), b.logger)
	}

	engine := NewStdEngine(b.app, b.logger)
	if b.pluginLoader != nil {
		engine.SetPluginLoader(b.pluginLoader)
	}
	for _, p := range b.plugins {
		if err := engine.LoadPlugin(p); err != nil {
			return nil, fmt.Errorf("failed to load plugin %q: %w", p.Name(), err)
		}
	}
	return engine, nil
}

// BuildFromConfig builds the engine and then configures it from cfg.
func (b *EngineBuilder) BuildFromConfig(cfg *config.WorkflowConfig) (*StdEngine, error) {
	engine, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := engine.BuildFromConfig(cfg); err != nil {
		return nil, fmt.Errorf("failed to build from config: %w", err)
	}
	return engine, nil
}

// BuildAndConfigure loads the files set by WithConfigPaths and builds from them.
func (b *EngineBuilder) BuildAndConfigure() (*StdEngine, error) {
	if len(b.configPaths) == 0 {
		return nil, fmt.Errorf("no config path set; call WithConfigPaths first")
	}
	cfg, err := config.LoadFromFiles(b.configPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return b.BuildFromConfig(cfg)
}
