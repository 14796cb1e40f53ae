package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestApplyDefaults_ResourceAndOperation(t *testing.T) {
	node := ContentStudioNode()

	got := node.ApplyDefaults(nil)
	if got["resource"] != "auth" || got["operation"] != "validateKey" {
		t.Errorf("empty input defaults = %v", got)
	}

	got = node.ApplyDefaults(map[string]any{"resource": "post"})
	if got["operation"] != "list" {
		t.Errorf("post operation default = %v", got["operation"])
	}
	if got["page"] != 1 || got["perPage"] != 10 {
		t.Errorf("paging defaults = %v / %v", got["page"], got["perPage"])
	}
	if _, ok := got["contentText"]; ok {
		t.Error("create-only field should not be defaulted for post.list")
	}
}

func TestApplyDefaults_ConditionalFields(t *testing.T) {
	node := ContentStudioNode()
	in := map[string]any{"resource": "post", "operation": "create", "requestApproval": true}
	got := node.ApplyDefaults(in)

	if got["publishType"] != "scheduled" {
		t.Errorf("publishType = %v", got["publishType"])
	}
	if got["approveOption"] != "anyone" {
		t.Errorf("approveOption = %v", got["approveOption"])
	}
	if _, ok := got["firstCommentMessage"]; ok {
		t.Error("first comment fields should stay hidden when addFirstComment is false")
	}
	if _, ok := in["publishType"]; ok {
		t.Error("ApplyDefaults must not mutate its input")
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	got := ContentStudioNode().ApplyDefaults(map[string]any{"resource": "workspace", "operation": "list", "perPage": 50})
	if got["perPage"] != 50 {
		t.Errorf("perPage = %v, want 50", got["perPage"])
	}
}

func TestApplyDefaults_ClonesCollectionDefaults(t *testing.T) {
	node := ContentStudioNode()
	a := node.ApplyDefaults(map[string]any{"resource": "post", "operation": "create"})
	a["mediaImages"].(map[string]any)["images"] = []any{}
	b := node.ApplyDefaults(map[string]any{"resource": "post", "operation": "create"})
	if len(b["mediaImages"].(map[string]any)) != 0 {
		t.Error("defaults leaked between calls")
	}
}

func TestParameterNamesAreUnique(t *testing.T) {
	names := ContentStudioNode().ParameterNames()
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			t.Fatalf("duplicate parameter %q", n)
		}
		seen[n] = true
	}
	for _, want := range []string{"resource", "operation", "workspaceId", "accounts", "firstCommentAccounts", "planId"} {
		if !seen[want] {
			t.Errorf("missing parameter %q", want)
		}
	}
}

func TestLoadOptionsMethodsAreDeclared(t *testing.T) {
	used := map[string]bool{}
	for _, p := range ContentStudioNode().Properties {
		if p.LoadOptionsMethod != "" {
			used[p.LoadOptionsMethod] = true
		}
	}
	for _, m := range LoadOptionsMethods {
		if !used[m] {
			t.Errorf("load options method %q is not referenced by any property", m)
		}
	}
}

func TestPropertyVisibility(t *testing.T) {
	values := map[string]any{"resource": "post", "operation": "delete"}
	var keys []string
	for _, p := range ContentStudioNode().Properties {
		if p.VisibleFor(values) {
			keys = append(keys, p.Key)
		}
	}
	want := []string{"resource", "operation", "workspaceId", "postId"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("visible keys mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryTypes(t *testing.T) {
	r := NewModuleSchemaRegistry()
	want := []string{"contentstudio.client", "step.contentstudio", "step.contentstudio_load_options", "step.contentstudio_test_credential"}
	if diff := cmp.Diff(want, r.Types()); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	if r.Get("contentstudio.client") == nil {
		t.Error("client schema missing")
	}
}
