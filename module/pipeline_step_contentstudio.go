package module

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/GoCodeAlone/modular"
	"github.com/itchyny/gojq"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/options"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/router"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/schema"
)

// NewContentStudioStepFactory returns a StepFactory for step.contentstudio.
//
//	- type: step.contentstudio
//	  config:
//	    client: contentstudio      # name of the contentstudio.client module
//	    resource: post
//	    operation: create
//	    params:
//	      workspaceId: "ws-1"
//	      contentText: "Hello"
//	    items_from: steps.fetch.rows  # optional; one request per entry
//	    items_jq: '.steps.list.items[0].data | map({postId: ._id})'  # alternative to items_from
func NewContentStudioStepFactory() StepFactory {
	return func(name string, config map[string]any, app modular.Application) (PipelineStep, error) {
		clientName, _ := config["client"].(string)
		if clientName == "" {
			return nil, fmt.Errorf("contentstudio step %q: 'client' is required", name)
		}
		resource, _ := config["resource"].(string)
		if resource == "" {
			return nil, fmt.Errorf("contentstudio step %q: 'resource' is required", name)
		}
		operation, _ := config["operation"].(string)
		if operation == "" {
			return nil, fmt.Errorf("contentstudio step %q: 'operation' is required", name)
		}

		client, err := contentStudioClientFromService(app, clientName)
		if err != nil {
			return nil, fmt.Errorf("contentstudio step %q: %w", name, err)
		}
		if !client.Router().Has(router.Key{Resource: resource, Operation: operation}) {
			return nil, fmt.Errorf("contentstudio step %q: unsupported operation %s.%s", name, resource, operation)
		}

		staticParams, _ := config["params"].(map[string]any)
		itemsFrom, _ := config["items_from"].(string)
		itemsJQ, _ := config["items_jq"].(string)
		if itemsFrom != "" && itemsJQ != "" {
			return nil, fmt.Errorf("contentstudio step %q: 'items_from' and 'items_jq' are mutually exclusive", name)
		}
		var itemsCode *gojq.Code
		if itemsJQ != "" {
			if itemsCode, err = compileJQ(itemsJQ); err != nil {
				return nil, fmt.Errorf("contentstudio step %q: items_jq: %w", name, err)
			}
		}
		node := NewNode(client, WithNodeLogger(app.Logger()))

		return &contentStudioStep{
			name:      name,
			node:      node,
			resource:  resource,
			operation: operation,
			params:    maps.Clone(staticParams),
			itemsFrom: itemsFrom,
			itemsJQ:   itemsCode,
			paramKeys: node.Description().ParameterNames(),
		}, nil
	}
}

type contentStudioStep struct {
	name      string
	node      *Node
	resource  string
	operation string
	params    map[string]any
	itemsFrom string
	itemsJQ   *gojq.Code
	paramKeys []string
}

func (s *contentStudioStep) Name() string { return s.name }

func (s *contentStudioStep) Execute(ctx context.Context, pc *PipelineContext) (*StepResult, error) {
	items, err := s.items(pc)
	if err != nil {
		return nil, fmt.Errorf("contentstudio step %q: %w", s.name, err)
	}

	executionID, out, err := s.node.execute(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("contentstudio step %q: %w", s.name, err)
	}

	output := map[string]any{
		"items":        out,
		"count":        len(out),
		"execution_id": executionID,
	}
	if len(out) == 1 {
		output["response"] = out[0]
	}
	return &StepResult{Output: output}, nil
}

// items builds the node input. Static params are the base, context values
// for declared node parameters override them, and each items_from entry
// overrides both. resource and operation always come from the step config.
func (s *contentStudioStep) items(pc *PipelineContext) ([]map[string]any, error) {
	base := maps.Clone(s.params)
	if base == nil {
		base = map[string]any{}
	}
	for _, key := range s.paramKeys {
		if key == "resource" || key == "operation" {
			continue
		}
		if v, ok := pc.Current[key]; ok {
			base[key] = v
		}
	}

	var entries []map[string]any
	switch {
	case s.itemsFrom != "":
		raw, err := pc.Lookup(s.itemsFrom)
		if err != nil {
			return nil, fmt.Errorf("items_from %q: %w", s.itemsFrom, err)
		}
		if entries, err = objectList(raw); err != nil {
			return nil, fmt.Errorf("items_from %q: %w", s.itemsFrom, err)
		}
	case s.itemsJQ != nil:
		results, err := runJQ(s.itemsJQ, pc.Data())
		if err != nil {
			return nil, fmt.Errorf("items_jq: %w", err)
		}
		// A single array result is the item list; otherwise each emitted
		// value is one item.
		var raw any = results
		if len(results) == 1 {
			if list, ok := results[0].([]any); ok {
				raw = list
			}
		}
		if entries, err = objectList(raw); err != nil {
			return nil, fmt.Errorf("items_jq: %w", err)
		}
	default:
		return []map[string]any{s.withSelector(base)}, nil
	}

	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		item := maps.Clone(base)
		maps.Copy(item, e)
		items = append(items, s.withSelector(item))
	}
	return items, nil
}

// objectList converts a list of objects into parameter maps.
func objectList(raw any) ([]map[string]any, error) {
	switch list := raw.(type) {
	case []map[string]any:
		return list, nil
	case []any:
		entries := make([]map[string]any, 0, len(list))
		for i, e := range list {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("entry %d is %T, want an object", i, e)
			}
			entries = append(entries, m)
		}
		return entries, nil
	}
	return nil, fmt.Errorf("got %T, want a list", raw)
}

func (s *contentStudioStep) withSelector(item map[string]any) map[string]any {
	item["resource"] = s.resource
	item["operation"] = s.operation
	return item
}

// NewContentStudioLoadOptionsStepFactory returns a StepFactory for
// step.contentstudio_load_options.
//
//	- type: step.contentstudio_load_options
//	  config:
//	    client: contentstudio
//	    method: getAccounts
//	    params:
//	      workspaceId: "ws-1"
func NewContentStudioLoadOptionsStepFactory() StepFactory {
	return func(name string, config map[string]any, app modular.Application) (PipelineStep, error) {
		clientName, _ := config["client"].(string)
		if clientName == "" {
			return nil, fmt.Errorf("contentstudio_load_options step %q: 'client' is required", name)
		}
		method, _ := config["method"].(string)
		if !slices.Contains(schema.LoadOptionsMethods, method) {
			return nil, fmt.Errorf("contentstudio_load_options step %q: %w: %q", name, ErrUnknownLoadOptionsMethod, method)
		}

		client, err := contentStudioClientFromService(app, clientName)
		if err != nil {
			return nil, fmt.Errorf("contentstudio_load_options step %q: %w", name, err)
		}

		staticParams, _ := config["params"].(map[string]any)
		node := NewNode(client, WithNodeLogger(app.Logger()))
		return &contentStudioLoadOptionsStep{
			name:      name,
			node:      node,
			method:    method,
			params:    maps.Clone(staticParams),
			paramKeys: node.Description().ParameterNames(),
		}, nil
	}
}

type contentStudioLoadOptionsStep struct {
	name      string
	node      *Node
	method    string
	params    map[string]any
	paramKeys []string
}

func (s *contentStudioLoadOptionsStep) Name() string { return s.name }

func (s *contentStudioLoadOptionsStep) Execute(ctx context.Context, pc *PipelineContext) (*StepResult, error) {
	current := maps.Clone(s.params)
	if current == nil {
		current = map[string]any{}
	}
	for _, key := range s.paramKeys {
		if v, ok := pc.Current[key]; ok {
			current[key] = v
		}
	}

	opts, err := s.node.LoadOptions(ctx, s.method, current)
	if err != nil {
		return nil, fmt.Errorf("contentstudio_load_options step %q: %w", s.name, err)
	}
	return &StepResult{Output: map[string]any{
		"options": optionMaps(opts),
		"count":   len(opts),
	}}, nil
}

// NewContentStudioTestCredentialStepFactory returns a StepFactory for
// step.contentstudio_test_credential, which checks the client's API key.
//
//	- type: step.contentstudio_test_credential
//	  config:
//	    client: contentstudio
//	    stop_on_invalid: true
//
// With stop_on_invalid a rejected key ends the pipeline successfully after
// this step.
func NewContentStudioTestCredentialStepFactory() StepFactory {
	return func(name string, config map[string]any, app modular.Application) (PipelineStep, error) {
		clientName, _ := config["client"].(string)
		if clientName == "" {
			return nil, fmt.Errorf("contentstudio_test_credential step %q: 'client' is required", name)
		}
		client, err := contentStudioClientFromService(app, clientName)
		if err != nil {
			return nil, fmt.Errorf("contentstudio_test_credential step %q: %w", name, err)
		}
		stopOnInvalid, _ := config["stop_on_invalid"].(bool)
		return &contentStudioTestCredentialStep{
			name:          name,
			node:          NewNode(client, WithNodeLogger(app.Logger())),
			stopOnInvalid: stopOnInvalid,
		}, nil
	}
}

type contentStudioTestCredentialStep struct {
	name          string
	node          *Node
	stopOnInvalid bool
}

func (s *contentStudioTestCredentialStep) Name() string { return s.name }

func (s *contentStudioTestCredentialStep) Execute(ctx context.Context, _ *PipelineContext) (*StepResult, error) {
	if err := s.node.TestCredential(ctx); err != nil {
		return &StepResult{
			Output: map[string]any{"valid": false, "error": err.Error()},
			Stop:   s.stopOnInvalid,
		}, nil
	}
	return &StepResult{Output: map[string]any{"valid": true}}, nil
}

func optionMaps(opts []options.Option) []any {
	out := make([]any, 0, len(opts))
	for _, o := range opts {
		out = append(out, map[string]any{"name": o.Name, "value": o.Value})
	}
	return out
}
