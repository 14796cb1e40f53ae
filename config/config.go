package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ModuleConfig represents a single module configuration
type ModuleConfig struct {
	Name      string         `json:"name" yaml:"name" validate:"required"`
	Type      string         `json:"type" yaml:"type" validate:"required"`
	Config    map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	DependsOn []string       `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// WorkflowConfig is the workflow file: the client modules to create and the
// pipelines that call them.
type WorkflowConfig struct {
	Name        string                    `json:"name,omitempty" yaml:"name,omitempty"`
	Description string                    `json:"description,omitempty" yaml:"description,omitempty"`
	Modules     []ModuleConfig            `json:"modules" yaml:"modules" validate:"dive"`
	Pipelines   map[string]PipelineConfig `json:"pipelines,omitempty" yaml:"pipelines,omitempty" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadFromFile loads and validates a workflow configuration from a YAML file.
func LoadFromFile(filepath string) (*WorkflowConfig, error) {
	cfg, err := readFile(filepath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath, err)
	}
	return cfg, nil
}

// LoadFromFiles loads each file in order and merges later files over earlier
// ones, e.g. an environment overlay on a base workflow. Only the merged
// result is validated, so overlays may carry partial module entries.
func LoadFromFiles(paths ...string) (*WorkflowConfig, error) {
	var merged *WorkflowConfig
	for _, p := range paths {
		cfg, err := readFile(p)
		if err != nil {
			return nil, err
		}
		merged = DeepMergeConfigs(merged, cfg)
	}
	if merged == nil {
		return NewEmptyWorkflowConfig(), nil
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// LoadFromBytes parses and validates YAML workflow configuration.
func LoadFromBytes(data []byte) (*WorkflowConfig, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*WorkflowConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parse(data []byte) (*WorkflowConfig, error) {
	var cfg WorkflowConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// NewEmptyWorkflowConfig creates a new empty workflow configuration
func NewEmptyWorkflowConfig() *WorkflowConfig {
	return &WorkflowConfig{
		Modules:   make([]ModuleConfig, 0),
		Pipelines: make(map[string]PipelineConfig),
	}
}

// Validate checks required fields, name uniqueness, module dependencies
// and pipeline settings.
func (c *WorkflowConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	names := make(map[string]struct{}, len(c.Modules))
	for _, m := range c.Modules {
		if _, dup := names[m.Name]; dup {
			return fmt.Errorf("invalid config: duplicate module name %q", m.Name)
		}
		names[m.Name] = struct{}{}
	}
	for _, m := range c.Modules {
		for _, dep := range m.DependsOn {
			if _, ok := names[dep]; !ok {
				return fmt.Errorf("invalid config: module %q depends on unknown module %q", m.Name, dep)
			}
		}
	}

	for name, p := range c.Pipelines {
		if err := p.validate(); err != nil {
			return fmt.Errorf("invalid config: pipeline %q: %w", name, err)
		}
	}
	return nil
}
