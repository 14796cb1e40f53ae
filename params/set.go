package params

import (
	"maps"
	"strconv"
	"strings"
)

// Set is the raw parameter map collected by the host for one item.
type Set map[string]any

// Merge returns a new Set holding s overlaid with each override in order.
func (s Set) Merge(overrides ...map[string]any) Set {
	out := make(Set, len(s))
	maps.Copy(out, s)
	for _, o := range overrides {
		maps.Copy(out, o)
	}
	return out
}

// Has reports whether key is present with a non-nil value.
func (s Set) Has(key string) bool {
	v, ok := s[key]
	return ok && v != nil
}

// Value returns the tagged value for key.
func (s Set) Value(key string) Value { return Of(s[key]) }

// String returns the value for key rendered as a string; missing keys are "".
func (s Set) String(key string) string {
	switch v := s[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return Stringify(v)
	}
}

// Trimmed is String with surrounding whitespace removed.
func (s Set) Trimmed(key string) string { return strings.TrimSpace(s.String(key)) }

// Int returns the value for key as an int, or def when it is missing or not
// numeric.
func (s Set) Int(key string, def int) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Bool returns the value for key as a bool. Strings "true", "1", "yes" and
// "on" count as true.
func (s Set) Bool(key string) bool {
	switch v := s[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true
		}
	case nil:
		return false
	default:
		return Truthy(v)
	}
	return false
}

// Accounts returns the account IDs held under key. A plain string is one
// ID; commas are not separators.
func (s Set) Accounts(key string) []string { return ParseAccounts(s.Value(key)) }

// Strings returns list or CSV values for key as a deduplicated string slice.
func (s Set) Strings(key string) []string {
	v := s.Value(key)
	if str, ok := v.Str(); ok && !strings.HasPrefix(strings.TrimSpace(str), "[") {
		return ParseCSV(str)
	}
	return Dedupe(ParseAccounts(v))
}
