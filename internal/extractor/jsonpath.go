package extractor

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// findJSONPath looks up path with gjson, accepting both "$.a.b" and "a.b".
func findJSONPath(body []byte, path string) (string, error) {
	query := path
	if len(query) > 0 && query[0] == '$' {
		if len(query) > 1 && query[1] == '.' {
			query = query[2:]
		} else if len(query) == 1 {
			query = "@this"
		}
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("json_path %s: response body is not valid JSON", path)
	}
	result := gjson.GetBytes(body, query)
	if !result.Exists() {
		return "", fmt.Errorf("json_path %s: %w", path, ErrNotFound)
	}
	return result.String(), nil
}
