package module

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/GoCodeAlone/modular"
	"github.com/go-playground/validator/v10"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/credentials"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/router"
)

// ClientModuleConfig is the decoded config of a contentstudio.client module.
type ClientModuleConfig struct {
	APIKey  string        `yaml:"api_key" json:"api_key" validate:"required"`
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gte=0"`
	Metrics bool          `yaml:"metrics" json:"metrics"`
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// ContentStudioClientModule is a workflow module that creates a
// ContentStudioClient and registers it in the service registry under its
// module name. With metrics enabled it also registers a
// *ContentStudioMetrics as "<name>.metrics".
//
// Config:
//
//   - name: contentstudio
//     type: contentstudio.client
//     config:
//     api_key: "${CONTENTSTUDIO_API_KEY}"
//     base_url: "mock://"   # optional; legacy credentials may carry their own root
//     timeout: 30s
//     metrics: true
type ContentStudioClientModule struct {
	name    string
	config  map[string]any
	client  *ContentStudioClient
	metrics *ContentStudioMetrics
	opts    []ClientOption
}

// NewContentStudioClientModule creates a new contentstudio.client module.
// opts are applied to the client after the config-derived options.
func NewContentStudioClientModule(name string, cfg map[string]any, opts ...ClientOption) *ContentStudioClientModule {
	return &ContentStudioClientModule{name: name, config: cfg, opts: opts}
}

// Name returns the module name.
func (m *ContentStudioClientModule) Name() string { return m.name }

// Client returns the client created by Init.
func (m *ContentStudioClientModule) Client() *ContentStudioClient { return m.client }

// Init resolves configuration, creates the client and registers it as a service.
func (m *ContentStudioClientModule) Init(app modular.Application) error {
	cfg, err := parseClientModuleConfig(m.config)
	if err != nil {
		return fmt.Errorf("contentstudio.client %q: %w", m.name, err)
	}

	opts := []ClientOption{WithLogger(app.Logger())}
	cred := credentials.Credential{APIKey: cfg.APIKey}
	if strings.HasPrefix(cfg.BaseURL, "mock:") {
		opts = append(opts, WithMock())
	} else {
		cred.BaseURL = cfg.BaseURL
	}
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("contentstudio.client %q: %w", m.name, err)
	}
	if cfg.Timeout > 0 && cfg.Timeout != router.DefaultTimeout {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	if cfg.Metrics {
		m.metrics = NewContentStudioMetrics(m.name+".metrics", DefaultMetricsConfig())
		opts = append(opts, WithMetrics(m.metrics))
		if err := app.RegisterService(m.metrics.Name(), m.metrics); err != nil {
			return fmt.Errorf("contentstudio.client %q: register metrics: %w", m.name, err)
		}
	}

	m.client = NewContentStudioClient(cred, append(opts, m.opts...)...)
	app.Logger().Debug("ContentStudio client initialized", "module", m.name, "credential", cred.Redacted(), "mock", m.client.IsMock())
	return app.RegisterService(m.name, m.client)
}

// ProvidesServices declares the services provided by this module.
func (m *ContentStudioClientModule) ProvidesServices() []modular.ServiceProvider {
	providers := []modular.ServiceProvider{
		{
			Name:        m.name,
			Description: "ContentStudio API client: " + m.name,
			Instance:    m.client,
		},
	}
	if m.metrics != nil {
		providers = append(providers, m.metrics.ProvidesServices()...)
	}
	return providers
}

func parseClientModuleConfig(raw map[string]any) (ClientModuleConfig, error) {
	cfg := ClientModuleConfig{Timeout: router.DefaultTimeout}

	apiKey, _ := raw["api_key"].(string)
	if apiKey == "" {
		apiKey, _ = raw["apiKey"].(string)
	}
	cfg.APIKey = strings.TrimSpace(expandEnvVars(apiKey))

	baseURL, _ := raw["base_url"].(string)
	if baseURL == "" {
		baseURL, _ = raw["baseUrl"].(string)
	}
	cfg.BaseURL = strings.TrimSpace(expandEnvVars(baseURL))

	switch v := raw["timeout"].(type) {
	case string:
		if v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return cfg, fmt.Errorf("invalid timeout %q: %w", v, err)
			}
			cfg.Timeout = d
		}
	case int:
		cfg.Timeout = time.Duration(v) * time.Second
	case float64:
		cfg.Timeout = time.Duration(v * float64(time.Second))
	}

	switch v := raw["metrics"].(type) {
	case bool:
		cfg.Metrics = v
	case string:
		cfg.Metrics = v == "true"
	}

	if err := configValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "APIKey" {
			return cfg, credentials.ErrMissingAPIKey
		}
		return cfg, err
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR} and $VAR references with environment values.
func expandEnvVars(s string) string {
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		if v := os.Getenv(s[2 : len(s)-1]); v != "" {
			return v
		}
	}
	return os.ExpandEnv(s)
}

// contentStudioClientFromService looks up a *ContentStudioClient from the
// application service registry.
func contentStudioClientFromService(app modular.Application, clientName string) (*ContentStudioClient, error) {
	var raw any
	if err := app.GetService(clientName, &raw); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrClientNotFound, clientName, err)
	}
	client, ok := raw.(*ContentStudioClient)
	if !ok {
		return nil, fmt.Errorf("contentstudio: service %q is not a *ContentStudioClient", clientName)
	}
	return client, nil
}
