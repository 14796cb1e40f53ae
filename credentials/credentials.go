// Package credentials models the ContentStudio API credential the host hands
// to the plugin for each call.
package credentials

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
)

const (
	// Name is the credential type identifier the node requests from the host.
	Name             = "contentStudioApi"
	DisplayName      = "ContentStudio API"
	DocumentationURL = "https://api.contentstudio.io/guide"

	// DefaultBaseURL is the production API root. Paths are appended as /v1/...
	DefaultBaseURL = "https://api-prod.contentstudio.io/api"

	// HeaderAPIKey carries the key on every request.
	HeaderAPIKey = "X-API-Key"
)

// ErrMissingAPIKey is returned when a credential has no API key.
var ErrMissingAPIKey = errors.New("credentials: apiKey is required")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Credential is the decrypted credential supplied by the host. BaseURL is
// only set by the legacy credential variant; it is empty otherwise.
type Credential struct {
	APIKey  string `json:"apiKey" yaml:"api_key" validate:"required"`
	BaseURL string `json:"baseUrl,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
}

// FromMap reads a credential from the host's decrypted credential data,
// accepting both camelCase and snake_case keys.
func FromMap(data map[string]any) (Credential, error) {
	set := params.Set(data)
	c := Credential{
		APIKey:  firstNonEmpty(set.Trimmed("apiKey"), set.Trimmed("api_key")),
		BaseURL: firstNonEmpty(set.Trimmed("baseUrl"), set.Trimmed("base_url")),
	}
	if err := c.Validate(); err != nil {
		return Credential{}, err
	}
	return c, nil
}

// Validate checks the credential fields.
func (c Credential) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("credentials: %w", err)
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "APIKey":
			return ErrMissingAPIKey
		case "BaseURL":
			return fmt.Errorf("credentials: baseUrl %q is not a valid URL", c.BaseURL)
		}
	}
	return fmt.Errorf("credentials: %w", err)
}

// Root returns the normalized API root the /v1 paths are appended to.
func (c Credential) Root() string {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return params.NormalizeBase(base)
}

// Authenticate sets the API key header on req.
func (c Credential) Authenticate(req *http.Request) {
	req.Header.Set(HeaderAPIKey, c.APIKey)
}

// Redacted returns a printable form of the credential that never exposes the key.
func (c Credential) Redacted() string {
	key := "<empty>"
	if n := len(c.APIKey); n > 4 {
		key = strings.Repeat("*", n-4) + c.APIKey[n-4:]
	} else if n > 0 {
		key = strings.Repeat("*", n)
	}
	return fmt.Sprintf("apiKey=%s base=%s", key, c.Root())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
