package schema

import (
	"sort"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
)

// ConfigFieldType represents the type of a configuration field.
type ConfigFieldType string

const (
	FieldTypeString      ConfigFieldType = "string"
	FieldTypeNumber      ConfigFieldType = "number"
	FieldTypeBool        ConfigFieldType = "boolean"
	FieldTypeSelect      ConfigFieldType = "select"
	FieldTypeMultiSelect ConfigFieldType = "multiselect"
	FieldTypeCollection  ConfigFieldType = "collection"
	FieldTypeDuration    ConfigFieldType = "duration"
	FieldTypeMap         ConfigFieldType = "map"
)

// DisplayOptions limits when a field is shown: every key in Show must hold
// one of the listed values.
type DisplayOptions struct {
	Show map[string][]any `json:"show,omitempty"`
}

// ConfigFieldDef describes a single configuration field.
type ConfigFieldDef struct {
	Key                  string          `json:"key"`
	Label                string          `json:"label"`
	Type                 ConfigFieldType `json:"type"`
	Description          string          `json:"description,omitempty"`
	Required             bool            `json:"required,omitempty"`
	DefaultValue         any             `json:"defaultValue,omitempty"`
	Options              []string        `json:"options,omitempty"` // for select types
	Placeholder          string          `json:"placeholder,omitempty"`
	Sensitive            bool            `json:"sensitive,omitempty"`
	LoadOptionsMethod    string          `json:"loadOptionsMethod,omitempty"`
	LoadOptionsDependsOn []string        `json:"loadOptionsDependsOn,omitempty"`
	MinValue             *int            `json:"minValue,omitempty"`
	MaxValue             *int            `json:"maxValue,omitempty"`
	DisplayOptions       *DisplayOptions `json:"displayOptions,omitempty"`
}

// VisibleFor reports whether the field is shown for the given values.
func (f ConfigFieldDef) VisibleFor(values map[string]any) bool {
	if f.DisplayOptions == nil {
		return true
	}
	for key, allowed := range f.DisplayOptions.Show {
		current := params.Stringify(values[key])
		match := false
		for _, a := range allowed {
			if params.Stringify(a) == current {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

// ModuleSchema describes the configuration schema for a module or step type.
type ModuleSchema struct {
	Type          string           `json:"type"`
	Label         string           `json:"label"`
	Category      string           `json:"category"`
	Description   string           `json:"description,omitempty"`
	ConfigFields  []ConfigFieldDef `json:"configFields"`
	DefaultConfig map[string]any   `json:"defaultConfig,omitempty"`
}

// ModuleSchemaRegistry holds the schemas of the module and step types the
// plugin provides.
type ModuleSchemaRegistry struct {
	schemas map[string]*ModuleSchema
}

// NewModuleSchemaRegistry creates a registry with the ContentStudio schemas
// pre-registered.
func NewModuleSchemaRegistry() *ModuleSchemaRegistry {
	r := &ModuleSchemaRegistry{schemas: make(map[string]*ModuleSchema)}
	r.registerBuiltins()
	return r
}

// Register adds or replaces a schema.
func (r *ModuleSchemaRegistry) Register(s *ModuleSchema) {
	r.schemas[s.Type] = s
}

// Get returns the schema for a type, or nil if not found.
func (r *ModuleSchemaRegistry) Get(moduleType string) *ModuleSchema {
	return r.schemas[moduleType]
}

// Types returns a sorted list of all registered type identifiers.
func (r *ModuleSchemaRegistry) Types() []string {
	types := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func intPtr(v int) *int { return &v }

func (r *ModuleSchemaRegistry) registerBuiltins() {
	r.Register(&ModuleSchema{
		Type:        "contentstudio.client",
		Label:       "ContentStudio Client",
		Category:    "integration",
		Description: "Authenticated client for the ContentStudio REST API",
		ConfigFields: []ConfigFieldDef{
			{Key: "api_key", Label: "API Key", Type: FieldTypeString, Required: true, Sensitive: true, Description: "ContentStudio API key; ${ENV} references are expanded", Placeholder: "${CONTENTSTUDIO_API_KEY}"},
			{Key: "base_url", Label: "Base URL", Type: FieldTypeString, Description: "Override of the API root (legacy credentials); use mock:// for canned responses", Placeholder: "https://api-prod.contentstudio.io/api"},
			{Key: "timeout", Label: "Timeout", Type: FieldTypeDuration, DefaultValue: "60s", Description: "Per-request timeout"},
			{Key: "metrics", Label: "Metrics", Type: FieldTypeBool, DefaultValue: false, Description: "Record Prometheus metrics for API calls"},
		},
		DefaultConfig: map[string]any{"timeout": "60s"},
	})

	r.Register(&ModuleSchema{
		Type:        "step.contentstudio",
		Label:       "ContentStudio",
		Category:    "pipeline",
		Description: "Calls one ContentStudio resource/operation per item and returns the raw responses",
		ConfigFields: []ConfigFieldDef{
			{Key: "client", Label: "Client", Type: FieldTypeString, Required: true, Description: "Name of the contentstudio.client module"},
			{Key: "resource", Label: "Resource", Type: FieldTypeSelect, Required: true, Options: resourceValues},
			{Key: "operation", Label: "Operation", Type: FieldTypeString, Required: true},
			{Key: "params", Label: "Parameters", Type: FieldTypeMap, Description: "Static parameters; values in the pipeline context with the same name take precedence"},
			{Key: "items_from", Label: "Items From", Type: FieldTypeString, Description: "Dotted path to a list of parameter maps, one request per entry", Placeholder: "steps.fetch.rows"},
			{Key: "items_jq", Label: "Items (jq)", Type: FieldTypeString, Description: "jq expression over the pipeline context yielding parameter maps; exclusive with items_from", Placeholder: ".steps.list.items[0].data | map({postId: ._id})"},
		},
	})

	r.Register(&ModuleSchema{
		Type:        "step.contentstudio_load_options",
		Label:       "ContentStudio Options",
		Category:    "pipeline",
		Description: "Loads label/value options for a ContentStudio dropdown",
		ConfigFields: []ConfigFieldDef{
			{Key: "client", Label: "Client", Type: FieldTypeString, Required: true, Description: "Name of the contentstudio.client module"},
			{Key: "method", Label: "Method", Type: FieldTypeSelect, Required: true, Options: LoadOptionsMethods},
			{Key: "params", Label: "Parameters", Type: FieldTypeMap, Description: "Current parameter values, e.g. workspaceId"},
		},
	})

	r.Register(&ModuleSchema{
		Type:        "step.contentstudio_test_credential",
		Label:       "ContentStudio Credential Test",
		Category:    "pipeline",
		Description: "Checks the client's API key against GET /v1/me; outputs valid and, on failure, error",
		ConfigFields: []ConfigFieldDef{
			{Key: "client", Label: "Client", Type: FieldTypeString, Required: true, Description: "Name of the contentstudio.client module"},
			{Key: "stop_on_invalid", Label: "Stop On Invalid", Type: FieldTypeBool, DefaultValue: false, Description: "End the pipeline after this step when the key is rejected"},
		},
	})
}
