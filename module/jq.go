package module

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// compileJQ parses and compiles a jq expression so syntax errors surface at
// step construction.
func compileJQ(expression string) (*gojq.Code, error) {
	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expression, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression %q: %w", expression, err)
	}
	return code, nil
}

// runJQ applies code to input and collects every emitted value.
func runJQ(code *gojq.Code, input any) ([]any, error) {
	normalized, err := normalizeForJQ(input)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize jq input: %w", err)
	}
	iter := code.Run(normalized)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			return results, nil
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq expression error: %w", err)
		}
		results = append(results, v)
	}
}

// normalizeForJQ converts typed values ([]map[string]any, ints) into the
// JSON-compatible types gojq accepts.
func normalizeForJQ(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}
