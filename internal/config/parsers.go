// Package config builds a tourbus run configuration from flags and an
// optional JSON or YAML config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// lookupSetting returns the first candidate key present in settings. Viper
// lowercases keys, so each candidate is tried as given and lowercased.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

// trimmed strips whitespace from string values so " 7 " parses as 7.
func trimmed(value interface{}) interface{} {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return value
}

func asString(value interface{}) (string, error) {
	return cast.ToStringE(value)
}

func asInt(value interface{}) (int, error) {
	value = trimmed(value)
	if value == "" {
		return 0, nil
	}
	return cast.ToIntE(value)
}

func asInt64(value interface{}) (int64, error) {
	value = trimmed(value)
	if value == "" {
		return 0, nil
	}
	return cast.ToInt64E(value)
}

func asFloat64(value interface{}) (float64, error) {
	value = trimmed(value)
	if value == "" {
		return 0, nil
	}
	return cast.ToFloat64E(value)
}

func asBool(value interface{}) (bool, error) {
	value = trimmed(value)
	if value == "" {
		return false, nil
	}
	return cast.ToBoolE(value)
}

// asDuration accepts Go duration strings; bare numbers are seconds.
func asDuration(value interface{}) (time.Duration, error) {
	switch v := trimmed(value).(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		if v == "" {
			return 0, nil
		}
		return time.ParseDuration(v)
	default:
		secs, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, fmt.Errorf("unsupported duration type %T", value)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
}

// asStringSlice accepts a list or a single string. A single string is one
// element; regular expressions may contain spaces.
func asStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string, []interface{}:
		return cast.ToStringSliceE(v)
	default:
		return nil, fmt.Errorf("unsupported string slice type %T", value)
	}
}

// toStringKeyMap normalizes a nested section to lowercase string keys.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	m, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	result := make(map[string]interface{}, len(m))
	for key, val := range m {
		result[strings.ToLower(strings.TrimSpace(key))] = val
	}
	return result, nil
}
