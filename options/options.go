// Package options converts ContentStudio list responses into the label/value
// pairs used to populate dropdowns.
package options

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/itchyny/gojq"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
)

// Option is one dropdown entry.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Kind selects the label rules and the named collection looked up in the
// response envelope.
type Kind string

const (
	Workspace       Kind = "workspaces"
	Post            Kind = "posts"
	Account         Kind = "accounts"
	ContentCategory Kind = "content_categories"
	TeamMember      Kind = "team_members"
)

// PostLabelLimit is the number of characters of post text shown in a label.
const PostLabelLimit = 60

// listQuery returns the first array found among the known envelope
// locations, or an empty array.
const listQuery = `first((.data.data?, .data.items?, .data.results?, .data[$collection]?, .data?, .[$collection]?, .items?, .results?, .) | select(type == "array")) // []`

var listCode *gojq.Code

func init() {
	q, err := gojq.Parse(listQuery)
	if err != nil {
		panic(fmt.Sprintf("options: parse list query: %v", err))
	}
	listCode, err = gojq.Compile(q, gojq.WithVariables([]string{"$collection"}))
	if err != nil {
		panic(fmt.Sprintf("options: compile list query: %v", err))
	}
}

// List locates the item array in a response body of unknown envelope shape.
func List(body any, kind Kind) ([]any, error) {
	input, err := normalize(body)
	if err != nil {
		return nil, fmt.Errorf("options: normalize response: %w", err)
	}
	iter := listCode.Run(input, string(kind))
	v, ok := iter.Next()
	if !ok {
		return []any{}, nil
	}
	if err, isErr := v.(error); isErr {
		return nil, fmt.Errorf("options: locate list: %w", err)
	}
	list, _ := v.([]any)
	if list == nil {
		list = []any{}
	}
	return list, nil
}

// Map extracts the items of body and labels them according to kind. Items
// without an identifier are skipped and duplicate values keep their first
// occurrence.
func Map(body any, kind Kind) ([]Option, error) {
	list, err := List(body, kind)
	if err != nil {
		return nil, err
	}
	label := labelerFor(kind)
	out := make([]Option, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, raw := range list {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id := identifier(item)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Option{Name: label(item, id), Value: id})
	}
	return out, nil
}

// Filter keeps the options whose value is in ids, preserving order.
func Filter(opts []Option, ids []string) []Option {
	if len(ids) == 0 {
		return opts
	}
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		if _, ok := keep[o.Value]; ok {
			out = append(out, o)
		}
	}
	return out
}

func identifier(item map[string]any) string {
	for _, key := range []string{"_id", "id"} {
		if v, ok := item[key]; ok && params.Truthy(v) {
			if s := strings.TrimSpace(params.Stringify(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

// normalize converts typed values into the JSON shapes gojq accepts.
func normalize(v any) (any, error) {
	if raw, ok := v.([]byte); ok {
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "…"
}
