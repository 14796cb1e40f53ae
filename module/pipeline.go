package module

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/GoCodeAlone/modular"
)

// PipelineStep is a single unit of work in a ContentStudio pipeline.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, pc *PipelineContext) (*StepResult, error)
}

// StepResult is the output of a single step execution.
type StepResult struct {
	Output map[string]any

	// Stop ends the pipeline successfully after this step.
	Stop bool
}

// PipelineContext carries data through a pipeline execution.
type PipelineContext struct {
	// TriggerData is the input the pipeline was started with.
	TriggerData map[string]any

	// StepOutputs maps step name to that step's output.
	StepOutputs map[string]map[string]any

	// Current is the trigger data overlaid with every step output so far.
	Current map[string]any

	// Metadata holds execution metadata (pipeline name, execution ID, timings).
	Metadata map[string]any
}

// NewPipelineContext creates a PipelineContext initialized with trigger data.
func NewPipelineContext(triggerData, metadata map[string]any) *PipelineContext {
	pc := &PipelineContext{
		TriggerData: make(map[string]any, len(triggerData)),
		StepOutputs: make(map[string]map[string]any),
		Current:     make(map[string]any, len(triggerData)),
		Metadata:    make(map[string]any, len(metadata)),
	}
	maps.Copy(pc.TriggerData, triggerData)
	maps.Copy(pc.Current, triggerData)
	maps.Copy(pc.Metadata, metadata)
	return pc
}

// MergeStepOutput records a step's output and merges it into Current.
func (pc *PipelineContext) MergeStepOutput(stepName string, output map[string]any) {
	if output == nil {
		output = map[string]any{}
	}
	pc.StepOutputs[stepName] = maps.Clone(output)
	maps.Copy(pc.Current, output)
}

// Lookup resolves a dotted path against Data.
func (pc *PipelineContext) Lookup(path string) (any, error) {
	return resolveDottedPath(pc.Data(), path)
}

// Data returns a copy of Current with step outputs reachable under
// "steps.<name>".
func (pc *PipelineContext) Data() map[string]any {
	data := maps.Clone(pc.Current)
	if data == nil {
		data = map[string]any{}
	}
	if len(pc.StepOutputs) > 0 {
		steps := make(map[string]any, len(pc.StepOutputs))
		for k, v := range pc.StepOutputs {
			steps[k] = v
		}
		data["steps"] = steps
	}
	return data
}

// resolveDottedPath walks a dotted key path (e.g. "steps.fetch.items")
// through nested maps.
func resolveDottedPath(data any, path string) (any, error) {
	current := data
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		key := path[start:i]
		start = i + 1
		if key == "" {
			continue
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot traverse into non-map at %q", path[:i])
		}
		val, exists := m[key]
		if !exists {
			return nil, fmt.Errorf("key %q not found at path %q", key, path[:i])
		}
		current = val
	}
	return current, nil
}

// StepFactory creates a PipelineStep from its name and config.
type StepFactory func(name string, config map[string]any, app modular.Application) (PipelineStep, error)

// StepRegistry maps step type strings to factory functions.
type StepRegistry struct {
	factories map[string]StepFactory
}

// NewStepRegistry creates an empty StepRegistry.
func NewStepRegistry() *StepRegistry {
	return &StepRegistry{factories: make(map[string]StepFactory)}
}

// Register adds a step factory for the given type string.
func (r *StepRegistry) Register(stepType string, factory StepFactory) {
	r.factories[stepType] = factory
}

// Create instantiates a PipelineStep of the given type.
func (r *StepRegistry) Create(stepType, name string, config map[string]any, app modular.Application) (PipelineStep, error) {
	factory, ok := r.factories[stepType]
	if !ok {
		return nil, fmt.Errorf("unknown step type: %s", stepType)
	}
	return factory(name, config, app)
}

// Types returns all registered step type names, sorted.
func (r *StepRegistry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ErrorStrategy defines how a pipeline handles step errors.
type ErrorStrategy string

const (
	ErrorStrategyStop ErrorStrategy = "stop"
	ErrorStrategySkip ErrorStrategy = "skip"
)

// Pipeline is an ordered sequence of steps.
type Pipeline struct {
	Name    string
	Steps   []PipelineStep
	OnError ErrorStrategy
	Timeout time.Duration
	Logger  modular.Logger
}

// Execute runs the pipeline from trigger data. With the default stop
// strategy the first failing step ends the run.
func (p *Pipeline) Execute(ctx context.Context, triggerData map[string]any) (*PipelineContext, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	pc := NewPipelineContext(triggerData, map[string]any{
		"pipeline":   p.Name,
		"started_at": time.Now().UTC().Format(time.RFC3339),
	})
	logger := p.Logger
	if logger == nil {
		logger = discardLogger()
	}
	logger.Debug("Pipeline started", "pipeline", p.Name, "steps", len(p.Steps))

	for _, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return pc, fmt.Errorf("pipeline %q cancelled: %w", p.Name, err)
		}

		started := time.Now()
		result, err := step.Execute(ctx, pc)
		elapsed := time.Since(started)
		if err != nil {
			logger.Error("Step failed", "pipeline", p.Name, "step", step.Name(), "error", err, "elapsed", elapsed)
			if p.OnError == ErrorStrategySkip {
				pc.MergeStepOutput(step.Name(), map[string]any{"_error": err.Error(), "_skipped": true})
				continue
			}
			return pc, fmt.Errorf("step %q failed: %w", step.Name(), err)
		}
		logger.Debug("Step completed", "pipeline", p.Name, "step", step.Name(), "elapsed", elapsed)

		if result == nil {
			result = &StepResult{}
		}
		pc.MergeStepOutput(step.Name(), result.Output)
		if result.Stop {
			logger.Debug("Pipeline stopped early", "pipeline", p.Name, "step", step.Name())
			break
		}
	}

	pc.Metadata["completed_at"] = time.Now().UTC().Format(time.RFC3339)
	logger.Debug("Pipeline completed", "pipeline", p.Name)
	return pc, nil
}
