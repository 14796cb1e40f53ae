// Package router maps a (resource, operation) pair and the normalized form
// parameters of one item onto the HTTP request the ContentStudio API expects.
// Every route is a pure function, so routes can be tested without a network.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/credentials"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
)

// DefaultTimeout is applied to every outbound request.
const DefaultTimeout = 60 * time.Second

const (
	ResourceAuth            = "auth"
	ResourceWorkspace       = "workspace"
	ResourceSocialAccount   = "socialAccount"
	ResourceContentCategory = "contentCategory"
	ResourceTeamMember      = "teamMember"
	ResourcePost            = "post"
)

const (
	OpValidateKey = "validateKey"
	OpList        = "list"
	OpCreate      = "create"
	OpDelete      = "delete"
	OpApprove     = "approve"
)

// ErrUnknownRoute is returned when no route is registered for a pair.
var ErrUnknownRoute = errors.New("router: unsupported resource/operation")

// Key identifies a route.
type Key struct {
	Resource  string
	Operation string
}

func (k Key) String() string { return k.Resource + "." + k.Operation }

// RequestDescriptor is everything needed to perform one API call. It is
// built fresh for every item and never reused.
type RequestDescriptor struct {
	Method  string
	URL     string
	Query   url.Values
	Body    any
	Headers map[string]string
	Timeout time.Duration
}

// FullURL returns URL with the encoded query string appended.
func (d *RequestDescriptor) FullURL() string {
	if len(d.Query) == 0 {
		return d.URL
	}
	return d.URL + "?" + d.Query.Encode()
}

// Input is what a route receives.
type Input struct {
	Params     params.Set
	Credential credentials.Credential
	Now        time.Time
}

// RouteFunc builds the request for one route.
type RouteFunc func(in Input) (*RequestDescriptor, error)

// ValidationError is an input problem detected before any network call. The
// message is meant for the workflow author.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Router holds the route table.
type Router struct {
	routes map[Key]RouteFunc
	now    func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithClock overrides the clock used for default schedule times.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// New returns a Router populated with the ContentStudio route table.
func New(opts ...Option) *Router {
	r := &Router{routes: defaultRoutes(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces the route for key.
func (r *Router) Register(key Key, fn RouteFunc) {
	r.routes[key] = fn
}

// Has reports whether a route exists for key.
func (r *Router) Has(key Key) bool {
	_, ok := r.routes[key]
	return ok
}

// Keys returns all registered routes sorted by resource then operation.
func (r *Router) Keys() []Key {
	keys := make([]Key, 0, len(r.routes))
	for k := range r.routes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Resource != keys[j].Resource {
			return keys[i].Resource < keys[j].Resource
		}
		return keys[i].Operation < keys[j].Operation
	})
	return keys
}

// Build produces the request descriptor for one item.
func (r *Router) Build(key Key, p params.Set, cred credentials.Credential) (*RequestDescriptor, error) {
	fn, ok := r.routes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, key)
	}
	if p == nil {
		p = params.Set{}
	}
	return fn(Input{Params: p, Credential: cred, Now: r.now()})
}

// CredentialTest returns the request the host uses to validate a key before
// saving it.
func CredentialTest(cred credentials.Credential) *RequestDescriptor {
	return newRequest("GET", cred, "/v1/me")
}

func newRequest(method string, cred credentials.Credential, path string, segments ...string) *RequestDescriptor {
	escaped := make([]any, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	if len(escaped) > 0 {
		path = fmt.Sprintf(path, escaped...)
	}
	return &RequestDescriptor{
		Method: method,
		URL:    cred.Root() + path,
		Query:  url.Values{},
		Headers: map[string]string{
			"accept":                 "application/json",
			credentials.HeaderAPIKey: cred.APIKey,
		},
		Timeout: DefaultTimeout,
	}
}

func (d *RequestDescriptor) withJSONBody(body any) *RequestDescriptor {
	d.Body = body
	d.Headers["Content-Type"] = "application/json"
	return d
}

func requireWorkspace(p params.Set) (string, error) {
	ws := params.TrimQuotes(p.String("workspaceId"))
	if ws == "" {
		return "", invalid("workspaceId", "Workspace ID is required")
	}
	return ws, nil
}

func setPaging(q url.Values, p params.Set) {
	page := p.Int("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := p.Int("perPage", 10)
	switch {
	case perPage < 1:
		perPage = 1
	case perPage > 100:
		perPage = 100
	}
	q.Set("page", fmt.Sprint(page))
	q.Set("per_page", fmt.Sprint(perPage))
}

func setOptional(q url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		q.Set(key, v)
	}
}
