package config

import (
	"fmt"
	"time"
)

// PipelineConfig represents a single composable pipeline definition.
type PipelineConfig struct {
	Steps   []PipelineStepConfig `json:"steps" yaml:"steps" validate:"min=1,dive"`
	OnError string               `json:"on_error,omitempty" yaml:"on_error,omitempty" validate:"omitempty,oneof=stop skip"`
	Timeout string               `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// PipelineStepConfig defines a single step in a pipeline.
type PipelineStepConfig struct {
	Name   string         `json:"name" yaml:"name" validate:"required"`
	Type   string         `json:"type" yaml:"type" validate:"required"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// TimeoutDuration parses Timeout. An empty timeout is zero.
func (p PipelineConfig) TimeoutDuration() (time.Duration, error) {
	if p.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", p.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", p.Timeout)
	}
	return d, nil
}

func (p PipelineConfig) validate() error {
	if _, err := p.TimeoutDuration(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(p.Steps))
	for _, s := range p.Steps {
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate step name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
