package workflow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/GoCodeAlone/modular"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/capability"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/config"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/module"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/plugin"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/schema"
)

var (
	// ErrPipelineNotFound is returned when executing a pipeline that was not built.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrAlreadyBuilt is returned when BuildFromConfig is called twice.
	ErrAlreadyBuilt = errors.New("engine already built")
)

// StdEngine builds modules and pipelines from a WorkflowConfig using the
// factories contributed by loaded plugins.
type StdEngine struct {
	app          modular.Application
	logger       modular.Logger
	pluginLoader *plugin.PluginLoader
	modules      []modular.Module
	pipelines    map[string]*module.Pipeline
	built        bool
}

// NewStdEngine creates a new workflow engine
func NewStdEngine(app modular.Application, logger modular.Logger) *StdEngine {
	return &StdEngine{
		app:          app,
		logger:       logger,
		pluginLoader: plugin.NewPluginLoader(capability.NewRegistry(), schema.NewModuleSchemaRegistry()),
		pipelines:    make(map[string]*module.Pipeline),
	}
}

// SetPluginLoader replaces the engine's plugin loader.
func (e *StdEngine) SetPluginLoader(loader *plugin.PluginLoader) {
	e.pluginLoader = loader
}

// PluginLoader returns the engine's plugin loader.
func (e *StdEngine) PluginLoader() *plugin.PluginLoader {
	return e.pluginLoader
}

// LoadPlugin registers a plugin's module and step factories.
func (e *StdEngine) LoadPlugin(p plugin.EnginePlugin) error {
	if err := e.pluginLoader.LoadPlugin(p); err != nil {
		return err
	}
	e.logger.Debug("Loaded plugin", "plugin", p.Name(), "version", p.Version())
	return nil
}

// BuildFromConfig creates and initializes every configured module, then
// compiles every configured pipeline.
func (e *StdEngine) BuildFromConfig(cfg *config.WorkflowConfig) error {
	if e.built {
		return ErrAlreadyBuilt
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ordered, err := moduleOrder(cfg.Modules)
	if err != nil {
		return err
	}
	factories := e.pluginLoader.ModuleFactories()
	for _, modCfg := range ordered {
		factory, ok := factories[modCfg.Type]
		if !ok {
			return fmt.Errorf("module %q: unknown module type %q", modCfg.Name, modCfg.Type)
		}
		mod := factory(modCfg.Name, modCfg.Config)
		if len(modCfg.DependsOn) > 0 {
			mod = &dependentModule{Module: mod, deps: modCfg.DependsOn}
		}
		e.logger.Debug("Registering module", "module", modCfg.Name, "type", modCfg.Type)
		e.app.RegisterModule(mod)
		e.modules = append(e.modules, mod)
	}

	if err := e.app.Init(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	steps := e.pluginLoader.StepFactories()
	for _, name := range slices.Sorted(maps.Keys(cfg.Pipelines)) {
		p, err := e.buildPipeline(name, cfg.Pipelines[name], steps)
		if err != nil {
			return fmt.Errorf("pipeline %q: %w", name, err)
		}
		e.pipelines[name] = p
		e.logger.Debug("Pipeline compiled", "pipeline", name, "steps", len(p.Steps))
	}

	e.built = true
	return nil
}

func (e *StdEngine) buildPipeline(name string, pcfg config.PipelineConfig, factories map[string]plugin.StepFactory) (*module.Pipeline, error) {
	timeout, err := pcfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	onError := module.ErrorStrategyStop
	if pcfg.OnError != "" {
		onError = module.ErrorStrategy(pcfg.OnError)
	}

	steps := make([]module.PipelineStep, 0, len(pcfg.Steps))
	for _, sc := range pcfg.Steps {
		factory, ok := factories[sc.Type]
		if !ok {
			return nil, fmt.Errorf("step %q: unknown step type %q", sc.Name, sc.Type)
		}
		raw, err := factory(sc.Name, sc.Config, e.app)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", sc.Name, err)
		}
		step, ok := raw.(module.PipelineStep)
		if !ok {
			return nil, fmt.Errorf("step %q: factory for %q returned %T, not a pipeline step", sc.Name, sc.Type, raw)
		}
		steps = append(steps, module.NewTracedStep(step))
	}

	return &module.Pipeline{
		Name:    name,
		Steps:   steps,
		OnError: onError,
		Timeout: timeout,
		Logger:  e.logger,
	}, nil
}

// dependentModule reports configured dependsOn entries to the application
// so it initializes dependencies first.
type dependentModule struct {
	modular.Module
	deps []string
}

func (m *dependentModule) Dependencies() []string { return m.deps }

// moduleOrder sorts modules so each follows the modules it depends on.
// Ties keep configuration order.
func moduleOrder(mods []config.ModuleConfig) ([]config.ModuleConfig, error) {
	byName := make(map[string]config.ModuleConfig, len(mods))
	for _, m := range mods {
		byName[m.Name] = m
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(mods))
	out := make([]config.ModuleConfig, 0, len(mods))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("module %q: dependency cycle", name)
		}
		state[name] = visiting
		for _, dep := range byName[name].DependsOn {
			if _, ok := byName[dep]; !ok {
				return fmt.Errorf("module %q depends on unknown module %q", name, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		out = append(out, byName[name])
		return nil
	}

	for _, m := range mods {
		if err := visit(m.Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Start starts the underlying application.
func (e *StdEngine) Start(ctx context.Context) error {
	if err := e.app.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	return nil
}

// Stop stops the underlying application.
func (e *StdEngine) Stop(ctx context.Context) error {
	if err := e.app.Stop(); err != nil {
		err = fmt.Errorf("failed to stop application: %w", err)
		e.logger.Error(err.Error())
		return err
	}
	return nil
}

// Pipeline returns a compiled pipeline by name.
func (e *StdEngine) Pipeline(name string) (*module.Pipeline, bool) {
	p, ok := e.pipelines[name]
	return p, ok
}

// PipelineNames returns the compiled pipeline names, sorted.
func (e *StdEngine) PipelineNames() []string {
	return slices.Sorted(maps.Keys(e.pipelines))
}

// ExecutePipeline runs a compiled pipeline with the given trigger data.
func (e *StdEngine) ExecutePipeline(ctx context.Context, name string, triggerData map[string]any) (*module.PipelineContext, error) {
	p, ok := e.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPipelineNotFound, name)
	}

	started := time.Now()
	e.logger.Info("Executing pipeline", "pipeline", name)
	pc, err := p.Execute(ctx, triggerData)
	if err != nil {
		e.logger.Error("Pipeline failed", "pipeline", name, "error", err, "elapsed", time.Since(started))
		return pc, err
	}
	e.logger.Info("Pipeline completed", "pipeline", name, "elapsed", time.Since(started))
	return pc, nil
}

// Modules returns the modules created by BuildFromConfig in init order.
func (e *StdEngine) Modules() []modular.Module {
	return slices.Clone(e.modules)
}

// GetApp returns the underlying modular Application.
func (e *StdEngine) GetApp() modular.Application {
	return e.app
}

// Engine is the surface used by the CLI.
type Engine interface {
	LoadPlugin(p plugin.EnginePlugin) error
	BuildFromConfig(cfg *config.WorkflowConfig) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ExecutePipeline(ctx context.Context, name string, triggerData map[string]any) (*module.PipelineContext, error)
}
