package module

import (
	"context"
	"fmt"
	"maps"

	"github.com/GoCodeAlone/modular"
	"github.com/google/uuid"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/apierror"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/router"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/schema"
)

// Node executes the ContentStudio node: one API call per input item,
// processed in order.
type Node struct {
	client      *ContentStudioClient
	description *schema.NodeDescription
	logger      modular.Logger
	newID       func() string
}

// NodeOption configures a Node.
type NodeOption func(*Node)

// WithNodeLogger sets the diagnostics logger. The default discards output.
func WithNodeLogger(l modular.Logger) NodeOption {
	return func(n *Node) { n.logger = l }
}

// WithExecutionIDs overrides the execution ID generator.
func WithExecutionIDs(gen func() string) NodeOption {
	return func(n *Node) { n.newID = gen }
}

// NewNode creates a Node backed by client.
func NewNode(client *ContentStudioClient, opts ...NodeOption) *Node {
	n := &Node{
		client:      client,
		description: schema.ContentStudioNode(),
		logger:      discardLogger(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Description returns the node's property declarations.
func (n *Node) Description() *schema.NodeDescription { return n.description }

// Client returns the underlying API client.
func (n *Node) Client() *ContentStudioClient { return n.client }

// Execute runs every item and returns one output item per input item. The
// first failing item aborts the batch with an *ExecutionError.
func (n *Node) Execute(ctx context.Context, items []map[string]any) ([]map[string]any, error) {
	_, out, err := n.execute(ctx, items)
	return out, err
}

func (n *Node) execute(ctx context.Context, items []map[string]any) (string, []map[string]any, error) {
	executionID := n.newID()
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return executionID, out, fmt.Errorf("contentstudio: execution %s cancelled: %w", executionID, err)
		}
		result, err := n.executeItem(ctx, executionID, i, item)
		if err != nil {
			return executionID, out, err
		}
		out = append(out, result)
	}
	return executionID, out, nil
}

func (n *Node) executeItem(ctx context.Context, executionID string, index int, item map[string]any) (result map[string]any, err error) {
	p := params.Set(n.description.ApplyDefaults(item))
	resource, operation := p.Trimmed("resource"), p.Trimmed("operation")
	if resource == "" || operation == "" {
		return nil, &ExecutionError{Resource: resource, Operation: operation, Item: index, Err: ErrMissingSelector}
	}

	ctx, span := startItemSpan(ctx, executionID, resource, operation, index)
	defer func() {
		n.client.Metrics().RecordItem(resource, operation, err)
		endSpan(span, err)
	}()

	key := router.Key{Resource: resource, Operation: operation}
	resp, callErr := n.client.Call(ctx, key, p)
	if callErr != nil {
		status, _ := apierror.Extract(callErr)
		n.logger.Error("ContentStudio item failed", "execution_id", executionID, "item", index, "route", key.String(), "status", status, "error", callErr)
		return nil, &ExecutionError{Resource: resource, Operation: operation, Item: index, Err: callErr}
	}
	n.logger.Debug("ContentStudio item completed", "execution_id", executionID, "item", index, "route", key.String())
	return asItem(resp), nil
}

// TestCredential validates the client's API key against GET /v1/me.
func (n *Node) TestCredential(ctx context.Context) error {
	if _, err := n.client.TestCredential(ctx); err != nil {
		return apierror.Wrap("Credential test failed", err)
	}
	return nil
}

// asItem turns a response into an output item. Objects pass through; other
// JSON values are wrapped under "data".
func asItem(resp any) map[string]any {
	if m, ok := resp.(map[string]any); ok {
		return maps.Clone(m)
	}
	return map[string]any{"data": resp}
}
