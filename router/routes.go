package router

import (
	"net/http"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
)

func defaultRoutes() map[Key]RouteFunc {
	return map[Key]RouteFunc{
		{ResourceAuth, OpValidateKey}:     validateKey,
		{ResourceWorkspace, OpList}:       listWorkspaces,
		{ResourceSocialAccount, OpList}:   listSocialAccounts,
		{ResourceContentCategory, OpList}: listContentCategories,
		{ResourceTeamMember, OpList}:      listTeamMembers,
		{ResourcePost, OpList}:            listPosts,
		{ResourcePost, OpCreate}:          createPost,
		{ResourcePost, OpDelete}:          deletePost,
		{ResourcePost, OpApprove}:         approvePost,
	}
}

func validateKey(in Input) (*RequestDescriptor, error) {
	return CredentialTest(in.Credential), nil
}

func listWorkspaces(in Input) (*RequestDescriptor, error) {
	req := newRequest(http.MethodGet, in.Credential, "/v1/workspaces")
	setPaging(req.Query, in.Params)
	return req, nil
}

func listSocialAccounts(in Input) (*RequestDescriptor, error) {
	ws, err := requireWorkspace(in.Params)
	if err != nil {
		return nil, err
	}
	req := newRequest(http.MethodGet, in.Credential, "/v1/workspaces/%s/accounts", ws)
	setPaging(req.Query, in.Params)
	setOptional(req.Query, "platform", in.Params.String("platform"))
	return req, nil
}

func listContentCategories(in Input) (*RequestDescriptor, error) {
	ws, err := requireWorkspace(in.Params)
	if err != nil {
		return nil, err
	}
	req := newRequest(http.MethodGet, in.Credential, "/v1/workspaces/%s/content-categories", ws)
	setPaging(req.Query, in.Params)
	return req, nil
}

func listTeamMembers(in Input) (*RequestDescriptor, error) {
	ws, err := requireWorkspace(in.Params)
	if err != nil {
		return nil, err
	}
	req := newRequest(http.MethodGet, in.Credential, "/v1/workspaces/%s/team-members", ws)
	setPaging(req.Query, in.Params)
	setOptional(req.Query, "search", in.Params.String("search"))
	return req, nil
}

func listPosts(in Input) (*RequestDescriptor, error) {
	ws, err := requireWorkspace(in.Params)
	if err != nil {
		return nil, err
	}
	req := newRequest(http.MethodGet, in.Credential, "/v1/workspaces/%s/posts", ws)
	q := req.Query
	setPaging(q, in.Params)

	statuses := append(in.Params.Strings("statuses"), in.Params.Strings("statusesCsv")...)
	for _, s := range params.Dedupe(statuses) {
		q.Add("status[]", s)
	}
	setOptional(q, "date_from", in.Params.String("dateFrom"))
	setOptional(q, "date_to", in.Params.String("dateTo"))
	for _, id := range quotedIDs(in.Params, "approvalAssignedTo") {
		q.Add("approval_assigned_to[]", id)
	}
	for _, id := range quotedIDs(in.Params, "approvalRequestedBy") {
		q.Add("approval_requested_by[]", id)
	}
	return req, nil
}

func deletePost(in Input) (*RequestDescriptor, error) {
	ws, err := requireWorkspace(in.Params)
	if err != nil {
		return nil, err
	}
	postID := params.TrimQuotes(in.Params.String("postId"))
	if postID == "" {
		return nil, invalid("postId", "Post ID is required")
	}
	return newRequest(http.MethodDelete, in.Credential, "/v1/workspaces/%s/posts/%s", ws, postID), nil
}

// quotedIDs reads a list or CSV of IDs, stripping the quotes that pasted
// expressions tend to leave around each value.
func quotedIDs(p params.Set, key string) []string {
	raw := p.Strings(key)
	out := make([]string, 0, len(raw))
	for _, id := range raw {
		if v := params.TrimQuotes(id); v != "" {
			out = append(out, v)
		}
	}
	return params.Dedupe(out)
}
