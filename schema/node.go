package schema

import (
	"maps"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/credentials"
)

// Load-options method names referenced by node properties.
const (
	MethodGetWorkspaces           = "getWorkspaces"
	MethodGetPosts                = "getPosts"
	MethodGetAccounts             = "getAccounts"
	MethodGetFirstCommentAccounts = "getFirstCommentAccounts"
	MethodGetContentCategories    = "getContentCategories"
	MethodGetTeamMembers          = "getTeamMembers"
)

// LoadOptionsMethods lists every dropdown loader the node declares.
var LoadOptionsMethods = []string{
	MethodGetWorkspaces,
	MethodGetPosts,
	MethodGetAccounts,
	MethodGetFirstCommentAccounts,
	MethodGetContentCategories,
	MethodGetTeamMembers,
}

var resourceValues = []string{"auth", "workspace", "socialAccount", "contentCategory", "teamMember", "post"}

// CredentialRef names a credential type the node needs.
type CredentialRef struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// NodeDescription is the form the host renders for the ContentStudio node.
type NodeDescription struct {
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName"`
	Description string           `json:"description"`
	Version     []int            `json:"version"`
	Credentials []CredentialRef  `json:"credentials"`
	Properties  []ConfigFieldDef `json:"properties"`
}

func show(pairs ...any) *DisplayOptions {
	d := &DisplayOptions{Show: make(map[string][]any)}
	for i := 0; i+1 < len(pairs); i += 2 {
		d.Show[pairs[i].(string)] = pairs[i+1].([]any)
	}
	return d
}

func vals(v ...any) []any { return v }

// ContentStudioNode returns the full property list of the node. Properties
// are ordered so that every field's display conditions refer only to fields
// declared before it.
func ContentStudioNode() *NodeDescription {
	listResources := vals("workspace", "socialAccount", "contentCategory", "teamMember", "post")
	scoped := vals("socialAccount", "contentCategory", "teamMember", "post")
	postList := show("resource", vals("post"), "operation", vals("list"))
	postCreate := show("resource", vals("post"), "operation", vals("create"))
	postApprove := show("resource", vals("post"), "operation", vals("approve"))

	return &NodeDescription{
		Name:        "contentStudio",
		DisplayName: "ContentStudio",
		Description: "Integrate with ContentStudio API",
		Version:     []int{4, 5},
		Credentials: []CredentialRef{{Name: credentials.Name, Required: true}},
		Properties: []ConfigFieldDef{
			{Key: "resource", Label: "Resource", Type: FieldTypeSelect, Options: resourceValues, DefaultValue: "auth", Required: true},

			{Key: "operation", Label: "Operation", Type: FieldTypeSelect, Options: []string{"validateKey"}, DefaultValue: "validateKey",
				DisplayOptions: show("resource", vals("auth"))},
			{Key: "operation", Label: "Operation", Type: FieldTypeSelect, Options: []string{"list"}, DefaultValue: "list",
				DisplayOptions: show("resource", vals("workspace", "socialAccount", "contentCategory", "teamMember"))},
			{Key: "operation", Label: "Operation", Type: FieldTypeSelect, Options: []string{"list", "create", "delete", "approve"}, DefaultValue: "list",
				DisplayOptions: show("resource", vals("post"))},

			{Key: "workspaceId", Label: "Workspace ID", Type: FieldTypeSelect, Required: true, DefaultValue: "",
				LoadOptionsMethod: MethodGetWorkspaces, DisplayOptions: show("resource", scoped)},
			{Key: "page", Label: "Page", Type: FieldTypeNumber, DefaultValue: 1, MinValue: intPtr(1),
				DisplayOptions: show("resource", listResources, "operation", vals("list"))},
			{Key: "perPage", Label: "Per Page", Type: FieldTypeNumber, DefaultValue: 10, MinValue: intPtr(1), MaxValue: intPtr(100),
				DisplayOptions: show("resource", listResources, "operation", vals("list"))},

			{Key: "platform", Label: "Platform", Type: FieldTypeString, DefaultValue: "", Description: "Optional platform filter",
				DisplayOptions: show("resource", vals("socialAccount"), "operation", vals("list"))},
			{Key: "search", Label: "Search", Type: FieldTypeString, DefaultValue: "", Description: "Filter team members by name or email",
				DisplayOptions: show("resource", vals("teamMember"), "operation", vals("list"))},

			{Key: "statuses", Label: "Statuses", Type: FieldTypeMultiSelect, DefaultValue: []any{},
				Options:        []string{"scheduled", "published", "draft", "failed", "partially_failed", "under_review", "missed_review", "rejected"},
				DisplayOptions: postList},
			{Key: "statusesCsv", Label: "Statuses (CSV)", Type: FieldTypeString, DefaultValue: "",
				Description: "Comma-separated statuses to filter by (e.g. scheduled,published,queued)", DisplayOptions: postList},
			{Key: "dateFrom", Label: "Date From", Type: FieldTypeString, DefaultValue: "", Placeholder: "YYYY-MM-DD", DisplayOptions: postList},
			{Key: "dateTo", Label: "Date To", Type: FieldTypeString, DefaultValue: "", Placeholder: "YYYY-MM-DD", DisplayOptions: postList},
			{Key: "approvalAssignedTo", Label: "Approval Assigned To", Type: FieldTypeMultiSelect, DefaultValue: []any{},
				LoadOptionsMethod: MethodGetTeamMembers, LoadOptionsDependsOn: []string{"workspaceId"}, DisplayOptions: postList},
			{Key: "approvalRequestedBy", Label: "Approval Requested By", Type: FieldTypeMultiSelect, DefaultValue: []any{},
				LoadOptionsMethod: MethodGetTeamMembers, LoadOptionsDependsOn: []string{"workspaceId"}, DisplayOptions: postList},

			{Key: "postId", Label: "Post ID", Type: FieldTypeSelect, Required: true, DefaultValue: "",
				Description: "The ID of the post to delete", LoadOptionsMethod: MethodGetPosts, LoadOptionsDependsOn: []string{"workspaceId"},
				DisplayOptions: show("resource", vals("post"), "operation", vals("delete"))},

			{Key: "planId", Label: "Plan ID", Type: FieldTypeSelect, Required: true, DefaultValue: "",
				Description: "The post awaiting approval", LoadOptionsMethod: MethodGetPosts, LoadOptionsDependsOn: []string{"workspaceId"},
				DisplayOptions: postApprove},
			{Key: "action", Label: "Action", Type: FieldTypeSelect, Options: []string{"approve", "reject"}, DefaultValue: "approve", DisplayOptions: postApprove},
			{Key: "comment", Label: "Comment", Type: FieldTypeString, DefaultValue: "", DisplayOptions: postApprove},

			{Key: "contentText", Label: "Content Text", Type: FieldTypeString, DefaultValue: "", DisplayOptions: postCreate},
			{Key: "mediaImages", Label: "Media Images", Type: FieldTypeCollection, DefaultValue: map[string]any{},
				Description: "Image URLs as {images: [{url}]}", DisplayOptions: postCreate},
			{Key: "mediaVideo", Label: "Media Video", Type: FieldTypeCollection, DefaultValue: map[string]any{},
				Description: "Video URL as {video: {url}}", DisplayOptions: postCreate},
			{Key: "accounts", Label: "Accounts", Type: FieldTypeMultiSelect, DefaultValue: []any{},
				Description: "Select one or more social accounts to publish to", LoadOptionsMethod: MethodGetAccounts,
				LoadOptionsDependsOn: []string{"workspaceId"}, DisplayOptions: postCreate},
			{Key: "contentCategoryId", Label: "Content Category", Type: FieldTypeSelect, DefaultValue: "",
				LoadOptionsMethod: MethodGetContentCategories, LoadOptionsDependsOn: []string{"workspaceId"}, DisplayOptions: postCreate},
			{Key: "postType", Label: "Post Type", Type: FieldTypeString, DefaultValue: "", DisplayOptions: postCreate},
			{Key: "publishType", Label: "Publish Type", Type: FieldTypeSelect, Options: []string{"scheduled", "draft"}, DefaultValue: "scheduled",
				DisplayOptions: postCreate},
			{Key: "scheduledAt", Label: "Scheduled At", Type: FieldTypeString, DefaultValue: "", Placeholder: "2025-10-11 11:15:00",
				Description: "Schedule date and time in format: YYYY-MM-DD HH:MM:SS", DisplayOptions: postCreate},

			{Key: "addFirstComment", Label: "Add First Comment", Type: FieldTypeBool, DefaultValue: false, DisplayOptions: postCreate},
			{Key: "firstCommentMessage", Label: "First Comment", Type: FieldTypeString, DefaultValue: "",
				DisplayOptions: show("resource", vals("post"), "operation", vals("create"), "addFirstComment", vals(true))},
			{Key: "firstCommentAccounts", Label: "First Comment Accounts", Type: FieldTypeMultiSelect, DefaultValue: []any{},
				LoadOptionsMethod: MethodGetFirstCommentAccounts, LoadOptionsDependsOn: []string{"workspaceId", "accounts"},
				DisplayOptions: show("resource", vals("post"), "operation", vals("create"), "addFirstComment", vals(true))},

			{Key: "requestApproval", Label: "Request Approval", Type: FieldTypeBool, DefaultValue: false, DisplayOptions: postCreate},
			{Key: "approvers", Label: "Approvers", Type: FieldTypeString, DefaultValue: "", Placeholder: "userId1, userId2",
				Description: "Comma-separated team member IDs",
				DisplayOptions: show("resource", vals("post"), "operation", vals("create"), "requestApproval", vals(true))},
			{Key: "approveOption", Label: "Approval Mode", Type: FieldTypeSelect, Options: []string{"anyone", "everyone"}, DefaultValue: "anyone",
				DisplayOptions: show("resource", vals("post"), "operation", vals("create"), "requestApproval", vals(true))},
			{Key: "approvalNotes", Label: "Approval Notes", Type: FieldTypeString, DefaultValue: "",
				DisplayOptions: show("resource", vals("post"), "operation", vals("create"), "requestApproval", vals(true))},
		},
	}
}

// ApplyDefaults returns a copy of values with the default of every visible,
// unset property filled in. Properties are visited in declaration order, so
// a defaulted resource selects which operation default applies.
func (n *NodeDescription) ApplyDefaults(values map[string]any) map[string]any {
	out := make(map[string]any, len(values)+len(n.Properties))
	maps.Copy(out, values)
	for _, p := range n.Properties {
		if v, ok := out[p.Key]; ok && v != nil {
			continue
		}
		if !p.VisibleFor(out) || p.DefaultValue == nil {
			continue
		}
		out[p.Key] = cloneDefault(p.DefaultValue)
	}
	return out
}

// ParameterNames returns the distinct property keys in declaration order.
func (n *NodeDescription) ParameterNames() []string {
	seen := make(map[string]struct{}, len(n.Properties))
	names := make([]string, 0, len(n.Properties))
	for _, p := range n.Properties {
		if _, dup := seen[p.Key]; dup {
			continue
		}
		seen[p.Key] = struct{}{}
		names = append(names, p.Key)
	}
	return names
}

func cloneDefault(v any) any {
	switch t := v.(type) {
	case []any:
		return append([]any{}, t...)
	case map[string]any:
		return maps.Clone(t)
	}
	return v
}
