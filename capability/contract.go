package capability

import (
	"fmt"
	"reflect"
)

// Contract defines a capability category that plugins can provide.
// Providers must implement InterfaceType when it is set.
type Contract struct {
	// Name is the capability identifier (e.g., "social-publishing").
	Name string

	// Description is a human-readable explanation of what this capability provides.
	Description string

	// InterfaceType is the reflect.Type of the Go interface that providers must implement.
	InterfaceType reflect.Type

	// RequiredMethods lists the method signatures for documentation.
	RequiredMethods []MethodSignature
}

// MethodSignature describes a single method on a capability interface.
type MethodSignature struct {
	Name    string
	Params  []string
	Returns []string
}

// ContractFor builds a contract for the interface pointed to by iface,
// e.g. ContractFor("social-publishing", "...", (*Publisher)(nil)). The
// method list is derived from the interface.
func ContractFor(name, description string, iface any) (Contract, error) {
	t := reflect.TypeOf(iface)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
		return Contract{}, fmt.Errorf("capability: %q: want a nil pointer to an interface, got %T", name, iface)
	}
	it := t.Elem()

	methods := make([]MethodSignature, 0, it.NumMethod())
	for i := 0; i < it.NumMethod(); i++ {
		m := it.Method(i)
		sig := MethodSignature{Name: m.Name}
		for j := 0; j < m.Type.NumIn(); j++ {
			sig.Params = append(sig.Params, m.Type.In(j).String())
		}
		for j := 0; j < m.Type.NumOut(); j++ {
			sig.Returns = append(sig.Returns, m.Type.Out(j).String())
		}
		methods = append(methods, sig)
	}
	return Contract{Name: name, Description: description, InterfaceType: it, RequiredMethods: methods}, nil
}
