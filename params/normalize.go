package params

import (
	"encoding/json"
	"strings"
)

// ParseArray returns list values unchanged. A string is decoded as JSON: a
// JSON array is returned as decoded, anything else (including malformed JSON)
// becomes a single-element list holding the trimmed string. Blank strings and
// every other shape yield an empty, non-nil list.
func ParseArray(v Value) []any {
	switch v.kind {
	case KindList:
		if v.list == nil {
			return []any{}
		}
		return v.list
	case KindString:
		t := strings.TrimSpace(v.str)
		if t == "" {
			return []any{}
		}
		var parsed any
		if err := json.Unmarshal([]byte(t), &parsed); err == nil {
			if list, ok := parsed.([]any); ok {
				return list
			}
		}
		return []any{t}
	}
	return []any{}
}

// ParseAccounts accepts a multi-select list or a legacy JSON string of
// account IDs. Falsy entries are dropped so the result never holds blanks.
func ParseAccounts(v Value) []string {
	out := []string{}
	for _, item := range ParseArray(v) {
		if !Truthy(item) {
			continue
		}
		if s := Stringify(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseMaybeObject decodes strings that look like JSON objects or arrays and
// returns everything else trimmed. Blank input returns nil.
func ParseMaybeObject(s string) any {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		var parsed any
		if err := json.Unmarshal([]byte(t), &parsed); err == nil {
			return parsed
		}
	}
	return t
}

// ParseMediaImages reads image URLs from the fixed-collection shape
// {"images": [{"url": ...}, ...]} or, failing that, from a list or JSON
// string of URLs.
func ParseMediaImages(v Value) []string {
	if images, ok := v.Field("images"); ok {
		switch images.kind {
		case KindList:
			out := []string{}
			for _, entry := range images.list {
				if u := urlOf(entry); u != "" {
					out = append(out, u)
				}
			}
			return out
		case KindObject:
			if u := urlOf(images.obj); u != "" {
				return []string{u}
			}
			return []string{}
		}
	}

	out := []string{}
	for _, item := range ParseArray(v) {
		var u string
		if _, isObj := item.(map[string]any); isObj {
			u = urlOf(item)
		} else if Truthy(item) {
			u = Stringify(item)
		}
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// ParseMediaVideo reads a single video URL from {"video": {"url": ...}},
// {"video": [{"url": ...}]} or a plain (possibly JSON-encoded) string. An
// empty result means no video.
func ParseMediaVideo(v Value) string {
	if video, ok := v.Field("video"); ok {
		switch video.kind {
		case KindObject:
			return urlOf(video.obj)
		case KindList:
			if len(video.list) > 0 {
				return urlOf(video.list[0])
			}
		}
		return ""
	}

	if s, ok := v.Str(); ok {
		switch parsed := ParseMaybeObject(s).(type) {
		case nil:
			return ""
		case string:
			return parsed
		case map[string]any:
			if _, hasVideo := parsed["video"]; hasVideo {
				return ParseMediaVideo(Of(parsed))
			}
			return urlOf(parsed)
		case []any:
			if len(parsed) > 0 {
				return urlOf(parsed[0])
			}
		}
	}
	return ""
}

// NormalizeBase strips trailing slashes and trailing "/v1" segments until the
// URL is stable, so NormalizeBase(NormalizeBase(u)) == NormalizeBase(u).
func NormalizeBase(u string) string {
	for {
		next := strings.TrimSuffix(u, "/")
		next = strings.TrimSuffix(next, "/v1")
		if next == u {
			return u
		}
		u = next
	}
}

// ParseCSV splits a comma-separated string, trims each entry, drops blanks
// and removes duplicates while keeping first-seen order.
func ParseCSV(s string) []string {
	return Dedupe(strings.Split(s, ","))
}

// Dedupe trims entries, drops blanks and removes duplicates in order.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// TrimQuotes removes whitespace and one pair of surrounding single or double
// quotes, as left behind by expression-mapped IDs.
func TrimQuotes(s string) string {
	t := strings.TrimSpace(s)
	if len(t) >= 2 {
		first, last := t[0], t[len(t)-1]
		if (first == '"' || first == '\'') && first == last {
			t = strings.TrimSpace(t[1 : len(t)-1])
		}
	}
	return t
}

func urlOf(entry any) string {
	switch m := entry.(type) {
	case map[string]any:
		u, _ := m["url"].(string)
		return strings.TrimSpace(u)
	case map[string]string:
		return strings.TrimSpace(m["url"])
	}
	return ""
}
