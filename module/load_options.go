package module

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/apierror"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/options"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/router"
	"github.com/GoCodeAlone/workflow-plugin-contentstudio/schema"
)

type optionsLoader struct {
	label             string
	key               router.Key
	kind              options.Kind
	perPage           int
	requiresWorkspace bool
	namesWorkspace    bool
	forbiddenHint     string
}

const accountsForbiddenHint = "Forbidden: check that the API key has access to this workspace's social accounts."

var loaders = map[string]optionsLoader{
	schema.MethodGetWorkspaces: {
		label: "Workspaces", key: router.Key{Resource: router.ResourceWorkspace, Operation: router.OpList},
		kind: options.Workspace, perPage: 100,
	},
	schema.MethodGetPosts: {
		label: "Posts", key: router.Key{Resource: router.ResourcePost, Operation: router.OpList},
		kind: options.Post, perPage: 50, requiresWorkspace: true,
	},
	schema.MethodGetAccounts: {
		label: "Accounts", key: router.Key{Resource: router.ResourceSocialAccount, Operation: router.OpList},
		kind: options.Account, perPage: 100, requiresWorkspace: true, namesWorkspace: true,
		forbiddenHint: accountsForbiddenHint,
	},
	schema.MethodGetFirstCommentAccounts: {
		label: "First Comment Accounts", key: router.Key{Resource: router.ResourceSocialAccount, Operation: router.OpList},
		kind: options.Account, perPage: 100, requiresWorkspace: true,
	},
	schema.MethodGetContentCategories: {
		label: "Content Categories", key: router.Key{Resource: router.ResourceContentCategory, Operation: router.OpList},
		kind: options.ContentCategory, perPage: 100, requiresWorkspace: true,
	},
	schema.MethodGetTeamMembers: {
		label: "Team Members", key: router.Key{Resource: router.ResourceTeamMember, Operation: router.OpList},
		kind: options.TeamMember, perPage: 100, requiresWorkspace: true,
	},
}

// LoadOptions populates the dropdown served by method. current holds the
// parameter values already chosen in the form. Methods scoped to a workspace
// return an empty list until workspaceId is set.
func (n *Node) LoadOptions(ctx context.Context, method string, current map[string]any) (opts []options.Option, err error) {
	loader, ok := loaders[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLoadOptionsMethod, method)
	}
	defer func() { n.client.Metrics().RecordLoadOptions(method, err) }()

	p := params.Set(current)
	workspaceID := params.TrimQuotes(p.String("workspaceId"))
	if loader.requiresWorkspace && workspaceID == "" {
		return []options.Option{}, nil
	}
	query := params.Set{"workspaceId": p.String("workspaceId"), "page": 1, "perPage": loader.perPage}

	if method == schema.MethodGetFirstCommentAccounts {
		opts, err = n.loadCommentAccounts(ctx, loader, query, params.Dedupe(p.Accounts("accounts")))
	} else {
		opts, err = n.loadList(ctx, loader, query, nil)
	}
	if err != nil {
		what := "Failed to load " + loader.label
		if loader.namesWorkspace {
			what += " for workspace " + workspaceID
		}
		wrapped := apierror.Wrap(what, err)
		if loader.forbiddenHint != "" && apierror.StatusCode(err) == http.StatusForbidden {
			wrapped.Hint = loader.forbiddenHint
		}
		n.logger.Warn("ContentStudio load options failed", "method", method, "error", wrapped)
		return nil, wrapped
	}
	return opts, nil
}

// loadCommentAccounts asks the API for the selected accounts only. When the
// API rejects the ids filter it fetches every account and filters locally.
// Nothing is requested until main accounts are selected.
func (n *Node) loadCommentAccounts(ctx context.Context, loader optionsLoader, query params.Set, selected []string) ([]options.Option, error) {
	if len(selected) == 0 {
		return []options.Option{}, nil
	}
	filter := func(q url.Values) {
		q.Set("per_page", strconv.Itoa(min(max(len(selected), 1), 100)))
		q.Set("ids", strings.Join(selected, ","))
	}
	opts, err := n.loadList(ctx, loader, query, filter)
	if err != nil {
		switch apierror.StatusCode(err) {
		case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
			n.logger.Debug("ContentStudio rejected ids filter, filtering locally", "status", apierror.StatusCode(err))
			opts, err = n.loadList(ctx, loader, query, nil)
		}
	}
	if err != nil {
		return nil, err
	}
	return options.Filter(opts, selected), nil
}

func (n *Node) loadList(ctx context.Context, loader optionsLoader, query params.Set, adjust func(url.Values)) ([]options.Option, error) {
	desc, err := n.client.Build(loader.key, query)
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(desc.Query)
	}
	resp, err := n.client.Do(ctx, loader.key, desc)
	if err != nil {
		return nil, err
	}
	return options.Map(resp, loader.kind)
}
