package module

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/apierror"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/options"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/schema"
)

func TestLoadOptions_Workspaces(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"items": []any{
			map[string]any{"_id": "ws1", "name": "Main"},
			map[string]any{"id": "ws2"},
			map[string]any{"name": "no id"},
		}}})
	})

	opts, err := NewNode(api.client()).LoadOptions(context.Background(), schema.MethodGetWorkspaces, nil)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	want := []options.Option{{Name: "Main", Value: "ws1"}, {Name: "ws2", Value: "ws2"}}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	if got := api.Requests()[0].Query.Get("per_page"); got != "100" {
		t.Errorf("per_page = %q, want 100", got)
	}
}

func TestLoadOptions_EmptyWithoutWorkspace(t *testing.T) {
	api := newFakeAPI(t, listOf())
	node := NewNode(api.client())

	for _, method := range []string{
		schema.MethodGetPosts, schema.MethodGetAccounts, schema.MethodGetFirstCommentAccounts,
		schema.MethodGetContentCategories, schema.MethodGetTeamMembers,
	} {
		opts, err := node.LoadOptions(context.Background(), method, map[string]any{"workspaceId": `""`})
		if err != nil {
			t.Errorf("%s: unexpected error %v", method, err)
		}
		if opts == nil || len(opts) != 0 {
			t.Errorf("%s: expected empty non-nil list, got %#v", method, opts)
		}
	}
	if n := len(api.Requests()); n != 0 {
		t.Errorf("expected no HTTP calls, got %d", n)
	}
}

func TestLoadOptions_PostsPageSize(t *testing.T) {
	api := newFakeAPI(t, listOf(map[string]any{"_id": "p1", "content": map[string]any{"text": "Launch day"}, "status": "draft"}))

	opts, err := NewNode(api.client()).LoadOptions(context.Background(), schema.MethodGetPosts, map[string]any{"workspaceId": "ws1"})
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if diff := cmp.Diff([]options.Option{{Name: "Launch day (draft)", Value: "p1"}}, opts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	req := api.Requests()[0]
	if req.Path != "/v1/workspaces/ws1/posts" || req.Query.Get("per_page") != "50" {
		t.Errorf("request = %s ?%s", req.Path, req.Query.Encode())
	}
}

func TestLoadOptions_ErrorContext(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "bad key"})
	})
	metrics := NewContentStudioMetrics("cs.metrics", DefaultMetricsConfig())

	_, err := NewNode(api.client(WithMetrics(metrics))).LoadOptions(context.Background(), schema.MethodGetWorkspaces, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if got, want := err.Error(), "Failed to load Workspaces: (401) bad key"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
	if got := testutil.ToFloat64(metrics.LoadOptions.WithLabelValues(schema.MethodGetWorkspaces, "error")); got != 1 {
		t.Errorf("load_options error count = %v, want 1", got)
	}
}

func TestLoadOptions_AccountsForbiddenHint(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "forbidden"})
	})

	_, err := NewNode(api.client()).LoadOptions(context.Background(), schema.MethodGetAccounts, map[string]any{"workspaceId": "ws1"})
	var ae *apierror.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierror.Error, got %v", err)
	}
	if ae.Hint != accountsForbiddenHint {
		t.Errorf("Hint = %q", ae.Hint)
	}
	if !strings.HasPrefix(err.Error(), "Failed to load Accounts for workspace ws1: (403) forbidden ") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestLoadOptions_CommentAccountsFallback(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": "unknown filter"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{
			map[string]any{"_id": "a", "platform": "facebook", "account_name": "Page A"},
			map[string]any{"_id": "b", "platform": "twitter", "username": "bee"},
			map[string]any{"_id": "c", "platform": "instagram", "name": "Cee"},
		}})
	})

	opts, err := NewNode(api.client()).LoadOptions(context.Background(), schema.MethodGetFirstCommentAccounts, map[string]any{
		"workspaceId": "ws1",
		"accounts":    []any{"a", "c"},
	})
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	want := []options.Option{
		{Name: "facebook - Page A", Value: "a"},
		{Name: "instagram - Cee", Value: "c"},
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}

	reqs := api.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if got := reqs[0].Query.Get("ids"); got != "a,c" {
		t.Errorf("first request ids = %q, want a,c", got)
	}
	if reqs[1].Query.Has("ids") {
		t.Errorf("retry should not carry ids: %v", reqs[1].Query)
	}
}

func TestLoadOptions_CommentAccountsNeedMainAccounts(t *testing.T) {
	api := newFakeAPI(t, listOf(
		map[string]any{"_id": "a", "platform": "facebook"},
		map[string]any{"_id": "z", "platform": "linkedin"},
	))
	node := NewNode(api.client())

	for _, accounts := range []any{nil, "", []any{}} {
		opts, err := node.LoadOptions(context.Background(), schema.MethodGetFirstCommentAccounts, map[string]any{
			"workspaceId": "ws1",
			"accounts":    accounts,
		})
		if err != nil {
			t.Fatalf("accounts=%#v: LoadOptions: %v", accounts, err)
		}
		if opts == nil || len(opts) != 0 {
			t.Errorf("accounts=%#v: options = %#v, want empty list", accounts, opts)
		}
	}
	if n := len(api.Requests()); n != 0 {
		t.Errorf("expected no requests without selected accounts, got %d", n)
	}
}

func TestLoadOptions_CommentAccountsPageSize(t *testing.T) {
	api := newFakeAPI(t, listOf(map[string]any{"_id": "a", "platform": "facebook"}))

	_, err := NewNode(api.client()).LoadOptions(context.Background(), schema.MethodGetFirstCommentAccounts, map[string]any{
		"workspaceId": "ws1",
		"accounts":    []any{"a", "b", "a"},
	})
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	q := api.Requests()[0].Query
	if got := q.Get("per_page"); got != "2" {
		t.Errorf("per_page = %q, want 2", got)
	}
	if got := q.Get("ids"); got != "a,b" {
		t.Errorf("ids = %q, want a,b", got)
	}
}

func TestLoadOptions_CommentAccountsErrorContext(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	})

	_, err := NewNode(api.client()).LoadOptions(context.Background(), schema.MethodGetFirstCommentAccounts, map[string]any{
		"workspaceId": "ws1",
		"accounts":    "a",
	})
	if err == nil || err.Error() != "Failed to load First Comment Accounts: (500) boom" {
		t.Errorf("err = %v", err)
	}
}

func TestLoadOptions_CommentAccountsServerFilter(t *testing.T) {
	api := newFakeAPI(t, listOf(
		map[string]any{"_id": "a", "platform": "facebook"},
		map[string]any{"_id": "z", "platform": "linkedin"},
	))

	opts, err := NewNode(api.client()).LoadOptions(context.Background(), schema.MethodGetFirstCommentAccounts, map[string]any{
		"workspaceId": "ws1",
		"accounts":    "a",
	})
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if diff := cmp.Diff([]options.Option{{Name: "facebook", Value: "a"}}, opts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	if n := len(api.Requests()); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
}

func TestLoadOptions_UnknownMethod(t *testing.T) {
	api := newFakeAPI(t, listOf())

	_, err := NewNode(api.client()).LoadOptions(context.Background(), "getPlanets", nil)
	if !errors.Is(err, ErrUnknownLoadOptionsMethod) {
		t.Fatalf("expected ErrUnknownLoadOptionsMethod, got %v", err)
	}
}

func TestLoadOptions_EveryDeclaredMethodHasLoader(t *testing.T) {
	for _, method := range schema.LoadOptionsMethods {
		if _, ok := loaders[method]; !ok {
			t.Errorf("no loader for declared method %q", method)
		}
	}
}
