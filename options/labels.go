package options

import (
	"strings"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
)

type labeler func(item map[string]any, id string) string

func labelerFor(kind Kind) labeler {
	switch kind {
	case Workspace:
		return workspaceLabel
	case Post:
		return postLabel
	case Account:
		return accountLabel
	case ContentCategory:
		return categoryLabel
	case TeamMember:
		return teamMemberLabel
	}
	return workspaceLabel
}

func workspaceLabel(item map[string]any, id string) string {
	return orDefault(firstString(item, "name", "title"), id)
}

func postLabel(item map[string]any, id string) string {
	text := ""
	if content, ok := item["content"].(map[string]any); ok {
		text = firstString(content, "text")
	}
	if text == "" {
		text = firstString(item, "title")
	}
	label := strings.TrimSpace(truncate(text, PostLabelLimit))
	if status := firstString(item, "status"); status != "" {
		label += " (" + status + ")"
	}
	return orDefault(strings.TrimSpace(label), id)
}

func accountLabel(item map[string]any, id string) string {
	parts := make([]string, 0, 2)
	if platform := firstString(item, "platform", "provider"); platform != "" {
		parts = append(parts, platform)
	}
	if name := firstString(item, "account_name", "username", "handle", "name"); name != "" {
		parts = append(parts, name)
	}
	return orDefault(strings.Join(parts, " - "), id)
}

func categoryLabel(item map[string]any, id string) string {
	return orDefault(firstString(item, "name"), id)
}

func teamMemberLabel(item map[string]any, id string) string {
	label := firstString(item, "name", "email")
	if label == "" {
		label = id
	}
	if role := firstString(item, "role"); role != "" {
		label += " (" + role + ")"
	}
	return label
}

// firstString returns the first key of item holding a truthy value, rendered
// as a string.
func firstString(item map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := item[k]; ok && params.Truthy(v) {
			return params.Stringify(v)
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
