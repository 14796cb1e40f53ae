package plugin

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// PluginManifest describes a plugin's metadata and the types it contributes.
type PluginManifest struct {
	Name         string           `json:"name" yaml:"name" validate:"required,pluginname"`
	Version      string           `json:"version" yaml:"version" validate:"required,semver"`
	Author       string           `json:"author" yaml:"author" validate:"required"`
	Description  string           `json:"description" yaml:"description" validate:"required"`
	License      string           `json:"license,omitempty" yaml:"license,omitempty"`
	Tags         []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	Repository   string           `json:"repository,omitempty" yaml:"repository,omitempty" validate:"omitempty,url"`
	ModuleTypes  []string         `json:"moduleTypes,omitempty" yaml:"moduleTypes,omitempty"`
	StepTypes    []string         `json:"stepTypes,omitempty" yaml:"stepTypes,omitempty"`
	Capabilities []CapabilityDecl `json:"capabilities,omitempty" yaml:"capabilities,omitempty" validate:"dive"`
}

// CapabilityDecl declares a capability relationship for a plugin.
type CapabilityDecl struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Role     string `json:"role" yaml:"role" validate:"oneof=provider consumer"`
	Priority int    `json:"priority,omitempty" yaml:"priority,omitempty"`
}

var pluginNameRe = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

var manifestValidator = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("pluginname", func(fl validator.FieldLevel) bool {
		return pluginNameRe.MatchString(fl.Field().String())
	})
	return v
}()

// Validate checks that a manifest has all required fields and a valid semver.
func (m *PluginManifest) Validate() error {
	err := manifestValidator.Struct(m)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("manifest: %w", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("manifest: %s is required", fe.Namespace())
	case "pluginname":
		return fmt.Errorf("manifest: name %q must be lowercase alphanumeric with hyphens", m.Name)
	case "semver":
		return fmt.Errorf("manifest: invalid version %q", m.Version)
	}
	return fmt.Errorf("manifest: %s failed %q", fe.Namespace(), fe.Tag())
}
