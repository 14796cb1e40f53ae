package capability

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type publisher interface {
	Publish(ctx context.Context, text string) (string, error)
}

type fakePublisher struct{}

func (fakePublisher) Publish(context.Context, string) (string, error) { return "", nil }

func TestContractFor(t *testing.T) {
	c, err := ContractFor("social-publishing", "publishes posts", (*publisher)(nil))
	if err != nil {
		t.Fatalf("ContractFor: %v", err)
	}
	want := []MethodSignature{{
		Name:    "Publish",
		Params:  []string{"context.Context", "string"},
		Returns: []string{"string", "error"},
	}}
	if diff := cmp.Diff(want, c.RequiredMethods); diff != "" {
		t.Errorf("methods mismatch (-want +got):\n%s", diff)
	}

	if _, err := ContractFor("bad", "", fakePublisher{}); err == nil {
		t.Error("expected error for a non-interface value")
	}
}

func TestRegistry_ProvidersAndResolve(t *testing.T) {
	r := NewRegistry()
	c, _ := ContractFor("social-publishing", "publishes posts", (*publisher)(nil))
	if err := r.RegisterContract(c); err != nil {
		t.Fatalf("RegisterContract: %v", err)
	}
	if err := r.RegisterContract(c); err != nil {
		t.Errorf("re-registering the same contract should be a no-op: %v", err)
	}
	if err := r.RegisterContract(Contract{Name: "social-publishing", InterfaceType: reflect.TypeOf((*error)(nil)).Elem()}); err == nil {
		t.Error("expected conflict for a different interface")
	}

	impl := reflect.TypeOf(fakePublisher{})
	if err := r.RegisterProvider("social-publishing", "low", 10, impl); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}
	if err := r.RegisterProvider("social-publishing", "high", 50, impl); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}
	err := r.RegisterProvider("social-publishing", "wrong", 99, reflect.TypeOf(""))
	if err == nil || !strings.Contains(err.Error(), "does not implement") {
		t.Errorf("err = %v, want interface mismatch", err)
	}
	if err := r.RegisterProvider("unknown", "p", 1, impl); err == nil {
		t.Error("expected error for unregistered capability")
	}

	best, err := r.Resolve("social-publishing")
	if err != nil || best.PluginName != "high" {
		t.Errorf("Resolve = (%v, %v), want high", best, err)
	}
	if _, err := r.Resolve("unknown"); err == nil {
		t.Error("expected error resolving a capability without providers")
	}
	if diff := cmp.Diff([]string{"social-publishing"}, r.ListCapabilities()); diff != "" {
		t.Errorf("ListCapabilities mismatch (-want +got):\n%s", diff)
	}
}
