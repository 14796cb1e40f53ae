package module

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GoCodeAlone/modular"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/apierror"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/credentials"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/router"
)

// MockBaseURL switches a client to canned responses for testing.
const MockBaseURL = "mock://"

// ContentStudioClient performs ContentStudio API calls. Each call builds a
// fresh request descriptor and is attempted exactly once.
type ContentStudioClient struct {
	cred    credentials.Credential
	router  *router.Router
	http    *http.Client
	timeout time.Duration
	mock    bool
	metrics *ContentStudioMetrics
	logger  modular.Logger
}

// ClientOption configures a ContentStudioClient.
type ClientOption func(*ContentStudioClient)

// WithHTTPClient replaces the underlying HTTP client. Its transport is still
// wrapped for tracing.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *ContentStudioClient) { cl.http = c }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *ContentStudioClient) { cl.timeout = d }
}

// WithMetrics records every call on m.
func WithMetrics(m *ContentStudioMetrics) ClientOption {
	return func(cl *ContentStudioClient) { cl.metrics = m }
}

// WithLogger sets the diagnostics logger. The default discards output.
func WithLogger(l modular.Logger) ClientOption {
	return func(cl *ContentStudioClient) { cl.logger = l }
}

// WithRouter replaces the route table, e.g. to pin the clock in tests.
func WithRouter(r *router.Router) ClientOption {
	return func(cl *ContentStudioClient) { cl.router = r }
}

// WithMock makes the client answer every call with canned data.
func WithMock() ClientOption {
	return func(cl *ContentStudioClient) { cl.mock = true }
}

// NewContentStudioClient creates a client for cred.
func NewContentStudioClient(cred credentials.Credential, opts ...ClientOption) *ContentStudioClient {
	c := &ContentStudioClient{
		cred:   cred,
		router: router.New(),
		http:   &http.Client{},
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{
		Transport:     newInstrumentedTransport(c.http.Transport),
		CheckRedirect: c.http.CheckRedirect,
		Jar:           c.http.Jar,
		Timeout:       c.http.Timeout,
	}
	return c
}

// Credential returns the credential the client authenticates with.
func (c *ContentStudioClient) Credential() credentials.Credential { return c.cred }

// Router returns the route table used to build requests.
func (c *ContentStudioClient) Router() *router.Router { return c.router }

// Metrics returns the metrics recorder, or nil.
func (c *ContentStudioClient) Metrics() *ContentStudioMetrics { return c.metrics }

// IsMock reports whether the client serves canned responses.
func (c *ContentStudioClient) IsMock() bool { return c.mock }

// Build produces the request descriptor for one route.
func (c *ContentStudioClient) Build(key router.Key, p params.Set) (*router.RequestDescriptor, error) {
	return c.router.Build(key, p, c.cred)
}

// Call builds and performs the request for key.
func (c *ContentStudioClient) Call(ctx context.Context, key router.Key, p params.Set) (any, error) {
	desc, err := c.Build(key, p)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, key, desc)
}

// TestCredential validates the API key with GET /v1/me.
func (c *ContentStudioClient) TestCredential(ctx context.Context) (any, error) {
	key := router.Key{Resource: router.ResourceAuth, Operation: router.OpValidateKey}
	return c.Do(ctx, key, router.CredentialTest(c.cred))
}

// Do performs desc and decodes the JSON response. Non-2xx responses are
// returned as *apierror.HTTPError carrying the decoded body.
func (c *ContentStudioClient) Do(ctx context.Context, key router.Key, desc *router.RequestDescriptor) (any, error) {
	if c.mock {
		return mockResponse(key, desc), nil
	}

	timeout := desc.Timeout
	if c.timeout > 0 {
		timeout = c.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if desc.Body != nil {
		data, err := json.Marshal(desc.Body)
		if err != nil {
			return nil, fmt.Errorf("contentstudio: failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, desc.Method, desc.FullURL(), body)
	if err != nil {
		return nil, fmt.Errorf("contentstudio: failed to create request: %w", err)
	}
	for k, v := range desc.Headers {
		req.Header.Set(k, v)
	}
	c.cred.Authenticate(req)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordRequest(key.Resource, key.Operation, 0, time.Since(started))
		c.logger.Warn("ContentStudio request failed", "route", key.String(), "method", desc.Method, "url", desc.URL, "error", err)
		return nil, &apierror.HTTPError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.metrics.RecordRequest(key.Resource, key.Operation, resp.StatusCode, time.Since(started))
	if err != nil {
		return nil, &apierror.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    "contentstudio: failed to read response: " + err.Error(),
			Err:        err,
		}
	}
	decoded := decodeBody(raw)
	c.logger.Debug("ContentStudio response", "route", key.String(), "method", desc.Method, "url", desc.URL, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody any
		if len(bytes.TrimSpace(raw)) > 0 {
			errBody = decoded
		}
		return nil, &apierror.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request failed with status code %d", resp.StatusCode),
			Response:   &apierror.Response{StatusCode: resp.StatusCode, Body: errBody},
		}
	}
	return decoded, nil
}

// decodeBody returns the JSON value of raw, the trimmed text when it is not
// JSON, or an empty object for an empty body.
func decodeBody(raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return strings.TrimSpace(string(trimmed))
	}
	return v
}
