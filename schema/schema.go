// Package schema describes the ContentStudio node and its module and step
// types, generates a JSON Schema for workflow configuration files and
// validates parsed configs against the registered types.
package schema

import (
	"encoding/json"
	"maps"
	"slices"
)

// Schema is the subset of JSON Schema used for workflow config files.
type Schema struct {
	Schema               string             `json:"$schema,omitempty"`
	Title                string             `json:"title,omitempty"`
	Description          string             `json:"description,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	AdditionalProperties json.RawMessage    `json:"additionalProperties,omitempty"`
	AllOf                []*Schema          `json:"allOf,omitempty"`
	If                   *Schema            `json:"if,omitempty"`
	Then                 *Schema            `json:"then,omitempty"`
	Default              any                `json:"default,omitempty"`
	MinItems             *int               `json:"minItems,omitempty"`
	Minimum              *float64           `json:"minimum,omitempty"`
	Maximum              *float64           `json:"maximum,omitempty"`
	Pattern              string             `json:"pattern,omitempty"`
}

// setAdditionalProperties sets additionalProperties to a boolean or a schema.
func (s *Schema) setAdditionalProperties(v any) {
	switch v := v.(type) {
	case bool:
		if v {
			s.AdditionalProperties = json.RawMessage(`true`)
		} else {
			s.AdditionalProperties = json.RawMessage(`false`)
		}
	case *Schema:
		raw, _ := json.Marshal(v)
		s.AdditionalProperties = raw
	}
}

// configFieldDefToSchema converts a ConfigFieldDef to a JSON Schema property.
func configFieldDefToSchema(f ConfigFieldDef) *Schema {
	s := &Schema{Description: f.Description}
	if f.DefaultValue != nil {
		s.Default = f.DefaultValue
	}
	switch f.Type {
	case FieldTypeNumber:
		s.Type = "number"
		if f.MinValue != nil {
			lo := float64(*f.MinValue)
			s.Minimum = &lo
		}
		if f.MaxValue != nil {
			hi := float64(*f.MaxValue)
			s.Maximum = &hi
		}
	case FieldTypeBool:
		s.Type = "boolean"
	case FieldTypeSelect:
		s.Type = "string"
		if len(f.Options) > 0 {
			s.Enum = f.Options
		}
	case FieldTypeMultiSelect:
		s.Type = "array"
		s.Items = &Schema{Type: "string"}
	case FieldTypeMap, FieldTypeCollection:
		s.Type = "object"
	default:
		s.Type = "string"
	}
	return s
}

// typeIfThen constrains the config section of entries whose type is typeName.
func typeIfThen(typeName string, ms *ModuleSchema) *Schema {
	props := make(map[string]*Schema, len(ms.ConfigFields))
	var required []string
	for _, f := range ms.ConfigFields {
		props[f.Key] = configFieldDefToSchema(f)
		if f.Required {
			required = append(required, f.Key)
		}
	}
	cfg := &Schema{Type: "object", Properties: props, Required: required}
	return &Schema{
		If:   &Schema{Properties: map[string]*Schema{"type": {Enum: []string{typeName}}}},
		Then: &Schema{Required: []string{"config"}, Properties: map[string]*Schema{"config": cfg}},
	}
}

// GenerateWorkflowSchema produces the JSON Schema describing a valid
// workflow config file for the types in reg.
func GenerateWorkflowSchema(reg *ModuleSchemaRegistry) *Schema {
	one := 1
	var moduleTypes, stepTypes []string
	for _, t := range reg.Types() {
		if IsStepType(t) {
			stepTypes = append(stepTypes, t)
		} else {
			moduleTypes = append(moduleTypes, t)
		}
	}

	moduleSchema := &Schema{
		Type:     "object",
		Required: []string{"name", "type"},
		Properties: map[string]*Schema{
			"name": {
				Type:        "string",
				Description: "Unique name for this module instance; steps reference it as client",
				Pattern:     "^[a-zA-Z][a-zA-Z0-9._-]*$",
			},
			"type":   {Type: "string", Description: "Module type identifier", Enum: moduleTypes},
			"config": {Type: "object", Description: "Module-specific configuration key/value pairs"},
			"dependsOn": {
				Type:        "array",
				Description: "Modules initialized before this one",
				Items:       &Schema{Type: "string"},
			},
		},
	}
	moduleSchema.setAdditionalProperties(false)
	for _, t := range moduleTypes {
		if ms := reg.Get(t); ms != nil && len(ms.ConfigFields) > 0 {
			moduleSchema.AllOf = append(moduleSchema.AllOf, typeIfThen(t, ms))
		}
	}

	stepSchema := &Schema{
		Type:     "object",
		Required: []string{"name", "type"},
		Properties: map[string]*Schema{
			"name":   {Type: "string", Description: "Step name; later steps read its output under steps.<name>"},
			"type":   {Type: "string", Description: "Step type identifier", Enum: stepTypes},
			"config": {Type: "object", Description: "Step-specific configuration"},
		},
	}
	stepSchema.setAdditionalProperties(false)
	for _, t := range stepTypes {
		if ms := reg.Get(t); ms != nil && len(ms.ConfigFields) > 0 {
			stepSchema.AllOf = append(stepSchema.AllOf, typeIfThen(t, ms))
		}
	}

	pipelineSchema := &Schema{
		Type:     "object",
		Required: []string{"steps"},
		Properties: map[string]*Schema{
			"steps": {
				Type:        "array",
				Description: "Ordered list of pipeline steps",
				Items:       stepSchema,
				MinItems:    &one,
			},
			"on_error": {Type: "string", Description: "Failure strategy", Enum: []string{"stop", "skip"}, Default: "stop"},
			"timeout":  {Type: "string", Description: "Overall pipeline timeout (Go duration, e.g. 2m)"},
		},
	}
	pipelineSchema.setAdditionalProperties(false)

	pipelines := &Schema{Type: "object", Description: "Named pipeline definitions"}
	pipelines.setAdditionalProperties(pipelineSchema)

	return &Schema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		Title:       "ContentStudio Workflow Configuration",
		Description: "Schema for workflow YAML files using the ContentStudio plugin",
		Type:        "object",
		Properties: map[string]*Schema{
			"name":        {Type: "string"},
			"description": {Type: "string"},
			"modules": {
				Type:        "array",
				Description: "List of module definitions to instantiate",
				Items:       moduleSchema,
			},
			"pipelines": pipelines,
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
