package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/config"
)

// ValidationError represents a single validation failure with the path to the
// offending field and a human-readable message.
type ValidationError struct {
	Path    string // dot-separated path (e.g. "modules[0].type")
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []*ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("config validation failed with %d error(s):\n  - %s",
		len(ve), strings.Join(msgs, "\n  - "))
}

// ValidationOption configures validation behaviour.
type ValidationOption func(*validationOpts)

type validationOpts struct {
	extraModuleTypes  []string
	extraStepTypes    []string
	allowEmptyModules bool
}

// WithExtraModuleTypes accepts module types that have no registered schema.
func WithExtraModuleTypes(types ...string) ValidationOption {
	return func(o *validationOpts) {
		o.extraModuleTypes = append(o.extraModuleTypes, types...)
	}
}

// WithExtraStepTypes accepts step types that have no registered schema.
func WithExtraStepTypes(types ...string) ValidationOption {
	return func(o *validationOpts) {
		o.extraStepTypes = append(o.extraStepTypes, types...)
	}
}

// WithAllowEmptyModules disables the "at least one module" check.
func WithAllowEmptyModules() ValidationOption {
	return func(o *validationOpts) {
		o.allowEmptyModules = true
	}
}

// ValidateConfig checks a parsed config against the registered schemas:
// module and step types must be known, required config fields present and
// select fields set to one of their options. Step "client" fields must name
// a configured module. All failures are collected.
func ValidateConfig(cfg *config.WorkflowConfig, reg *ModuleSchemaRegistry, opts ...ValidationOption) error {
	var o validationOpts
	for _, fn := range opts {
		fn(&o)
	}

	var errs ValidationErrors
	if len(cfg.Modules) == 0 && !o.allowEmptyModules {
		errs = append(errs, &ValidationError{Path: "modules", Message: "at least one module is required"})
	}

	moduleTypes := makeSet(o.extraModuleTypes)
	stepTypes := makeSet(o.extraStepTypes)
	for _, t := range reg.Types() {
		if IsStepType(t) {
			stepTypes[t] = true
		} else {
			moduleTypes[t] = true
		}
	}

	moduleNames := make(map[string]bool, len(cfg.Modules))
	for i, mod := range cfg.Modules {
		prefix := fmt.Sprintf("modules[%d]", i)
		moduleNames[mod.Name] = true
		if !moduleTypes[mod.Type] {
			errs = append(errs, &ValidationError{
				Path:    prefix + ".type",
				Message: fmt.Sprintf("unknown module type %q", mod.Type),
			})
			continue
		}
		validateFields(reg.Get(mod.Type), mod.Config, prefix, &errs)
	}

	for _, name := range sortedKeys(cfg.Pipelines) {
		for i, step := range cfg.Pipelines[name].Steps {
			prefix := fmt.Sprintf("pipelines.%s.steps[%d]", name, i)
			if !stepTypes[step.Type] {
				errs = append(errs, &ValidationError{
					Path:    prefix + ".type",
					Message: fmt.Sprintf("unknown step type %q", step.Type),
				})
				continue
			}
			validateFields(reg.Get(step.Type), step.Config, prefix, &errs)
			if client, ok := step.Config["client"].(string); ok && client != "" && !moduleNames[client] {
				errs = append(errs, &ValidationError{
					Path:    prefix + ".config.client",
					Message: fmt.Sprintf("references undefined module %q", client),
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateFields checks required and select fields of one config section.
func validateFields(s *ModuleSchema, cfg map[string]any, prefix string, errs *ValidationErrors) {
	if s == nil {
		return
	}
	for _, field := range s.ConfigFields {
		fieldPath := prefix + ".config." + field.Key
		v, present := cfg[field.Key]
		if !present {
			if field.Required {
				msg := fmt.Sprintf("required config field %q is missing", field.Key)
				if cfg == nil {
					msg += " (no config section)"
				}
				*errs = append(*errs, &ValidationError{Path: fieldPath, Message: msg})
			}
			continue
		}

		str, isString := v.(string)
		switch {
		case field.Required && isString && str == "" &&
			(field.Type == FieldTypeString || field.Type == FieldTypeDuration || field.Type == FieldTypeSelect):
			*errs = append(*errs, &ValidationError{
				Path:    fieldPath,
				Message: fmt.Sprintf("required config field %q must be a non-empty string", field.Key),
			})
		case field.Type == FieldTypeSelect && isString && str != "" && len(field.Options) > 0 && !slices.Contains(field.Options, str):
			*errs = append(*errs, &ValidationError{
				Path:    fieldPath,
				Message: fmt.Sprintf("%q is not one of %s", str, strings.Join(field.Options, ", ")),
			})
		}
	}
}

// IsStepType reports whether a registered type is a pipeline step type.
func IsStepType(t string) bool {
	return strings.HasPrefix(t, "step.")
}

func makeSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}
