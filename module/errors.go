package module

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/GoCodeAlone/modular"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/apierror"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/router"
)

var (
	// ErrClientNotFound is returned when a step names a client module that is
	// not registered.
	ErrClientNotFound = errors.New("contentstudio: client service not found")

	// ErrUnknownLoadOptionsMethod is returned for a dropdown loader the node
	// does not declare.
	ErrUnknownLoadOptionsMethod = errors.New("contentstudio: unknown load options method")

	// ErrMissingSelector is returned when an item has no resource or operation.
	ErrMissingSelector = errors.New("contentstudio: resource and operation are required")
)

// ExecutionError reports the failure of one item. It renders as
// "<resource>.<operation> failed: <message>".
type ExecutionError struct {
	Resource  string
	Operation string
	Item      int
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s.%s failed: %s", e.Resource, e.Operation, failureMessage(e.Err))
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// failureMessage picks the author-facing message of err: the text of a
// validation error, or the API message of a failed call.
func failureMessage(err error) string {
	var ve *router.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	_, msg := apierror.Extract(err)
	if msg == "" {
		return "Request failed"
	}
	return msg
}

func discardLogger() modular.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
