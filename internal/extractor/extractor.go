// Package extractor pulls values out of response bodies for tour captures and
// JSON expectations.
package extractor

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a JSON path or regex matches nothing.
var ErrNotFound = errors.New("value not found")

// Rule describes where to find a value. Exactly one of JSONPath or Regex is set.
type Rule struct {
	JSONPath string
	Regex    string
}

// Extract applies rule to body.
func Extract(body []byte, rule Rule) (string, error) {
	switch {
	case rule.JSONPath != "":
		return findJSONPath(body, rule.JSONPath)
	case rule.Regex != "":
		return findRegex(body, rule.Regex)
	default:
		return "", errors.New("extractor: rule has neither json_path nor regex")
	}
}

// Describe returns a short label for error messages.
func (r Rule) Describe() string {
	if r.JSONPath != "" {
		return fmt.Sprintf("json_path %s", r.JSONPath)
	}
	return fmt.Sprintf("regex %s", r.Regex)
}
