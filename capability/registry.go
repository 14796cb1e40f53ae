package capability

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ProviderEntry represents a plugin that implements a capability.
type ProviderEntry struct {
	PluginName string

	// Priority determines provider selection order; higher values win.
	Priority int

	// Impl is the concrete type serving the capability.
	Impl reflect.Type
}

// Registry manages capability contracts and their providers.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]Contract
	providers map[string][]ProviderEntry
}

// NewRegistry creates a new empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		contracts: make(map[string]Contract),
		providers: make(map[string][]ProviderEntry),
	}
}

// RegisterContract adds a capability contract. Re-registering the same name
// with the same interface is a no-op.
func (r *Registry) RegisterContract(c Contract) error {
	if c.Name == "" {
		return fmt.Errorf("capability: contract name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.contracts[c.Name]; ok {
		if existing.InterfaceType != c.InterfaceType {
			return fmt.Errorf("capability: contract %q already registered with interface %v", c.Name, existing.InterfaceType)
		}
		return nil
	}
	r.contracts[c.Name] = c
	return nil
}

// RegisterProvider registers pluginName as a provider of capabilityName.
// impl must implement the contract's interface when the contract has one.
func (r *Registry) RegisterProvider(capabilityName, pluginName string, priority int, impl reflect.Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contracts[capabilityName]
	if !ok {
		return fmt.Errorf("capability: %q is not a registered capability", capabilityName)
	}
	if c.InterfaceType != nil && (impl == nil || !impl.Implements(c.InterfaceType)) {
		return fmt.Errorf("capability: %v does not implement %v required by %q", impl, c.InterfaceType, capabilityName)
	}

	r.providers[capabilityName] = append(r.providers[capabilityName], ProviderEntry{
		PluginName: pluginName,
		Priority:   priority,
		Impl:       impl,
	})
	return nil
}

// Resolve returns the highest-priority provider for a capability. Ties go
// to the earliest registration.
func (r *Registry) Resolve(capabilityName string) (*ProviderEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.providers[capabilityName]
	if len(entries) == 0 {
		return nil, fmt.Errorf("capability: no providers registered for %q", capabilityName)
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Priority > best.Priority {
			best = e
		}
	}
	return &best, nil
}

// ListCapabilities returns a sorted list of all registered capability names.
func (r *Registry) ListCapabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.contracts))
	for name := range r.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContractFor returns the contract registered under name.
func (r *Registry) ContractFor(name string) (Contract, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[name]
	return c, ok
}
