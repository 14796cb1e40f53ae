// Package apierror turns the failures of ContentStudio API calls (transport
// errors and non-2xx responses with heterogeneous bodies) into a status code
// and one human-readable message.
package apierror

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// UnknownStatus is reported when no status code can be found on an error.
const UnknownStatus = "unknown"

// Response is the part of an HTTP response the extractor inspects. Body is
// the decoded or raw payload; Data is an alternative location some HTTP
// helpers use for the same payload.
type Response struct {
	StatusCode int
	Status     int
	Body       any
	Data       any
}

// HTTPError describes a failed API call. StatusCode, when set, takes
// precedence over the status recorded on Response.
type HTTPError struct {
	StatusCode int
	Message    string
	Response   *Response
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if code := e.status(); code != 0 {
		return fmt.Sprintf("request failed with status code %d", code)
	}
	return "request failed"
}

func (e *HTTPError) Unwrap() error { return e.Err }

func (e *HTTPError) status() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	if e.Response != nil {
		if e.Response.StatusCode != 0 {
			return e.Response.StatusCode
		}
		return e.Response.Status
	}
	return 0
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.status()
	}
	return 0
}

// Extract returns the status code and the most specific message available
// for err. The status is UnknownStatus when err carries none.
func Extract(err error) (status string, message string) {
	if err == nil {
		return UnknownStatus, ""
	}

	status = UnknownStatus
	var he *HTTPError
	if !errors.As(err, &he) {
		return status, err.Error()
	}

	if code := he.status(); code != 0 {
		status = strconv.Itoa(code)
	}
	if he.Response != nil {
		body := he.Response.Body
		if body == nil {
			body = he.Response.Data
		}
		if msg := MessageFromBody(body); msg != "" {
			return status, msg
		}
	}
	if he.Message != "" {
		return status, he.Message
	}
	if he.Err != nil {
		return status, he.Err.Error()
	}
	return status, err.Error()
}

// MessageFromBody pulls a message out of a response payload: the message,
// error or errors field of a JSON object, the object itself serialized, or
// the raw text of a non-JSON body.
func MessageFromBody(body any) string {
	switch b := body.(type) {
	case nil:
		return ""
	case []byte:
		return messageFromText(b)
	case string:
		return messageFromText([]byte(b))
	case json.RawMessage:
		return messageFromText(b)
	case map[string]any:
		for _, key := range []string{"message", "error", "errors"} {
			if v, ok := b[key]; ok && truthy(v) {
				if s, isStr := v.(string); isStr {
					return s
				}
				return stringify(v)
			}
		}
		return stringify(b)
	}
	return stringify(body)
}

func messageFromText(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err == nil {
		if obj, ok := decoded.(map[string]any); ok {
			return MessageFromBody(obj)
		}
	}
	return string(trimmed)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	}
	return true
}

func stringify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Error is a failure annotated with the operation that produced it. It
// renders as "<context>: (<status>) <message>".
type Error struct {
	Context    string
	StatusCode string
	Message    string
	Hint       string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: (%s) %s", e.Context, e.StatusCode, e.Message)
	if e.Hint != "" {
		msg += " " + strings.TrimSpace(e.Hint)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap extracts the status and message of err and attaches context.
func Wrap(context string, err error) *Error {
	status, msg := Extract(err)
	if msg == "" {
		msg = "Request failed"
	}
	return &Error{Context: context, StatusCode: status, Message: msg, Err: err}
}
