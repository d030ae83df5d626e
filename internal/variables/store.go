// Package variables holds the values a tour captures while it runs and
// expands {{name}} placeholders in step templates.
package variables

import (
	"regexp"
)

// Store is a per-tour variable map. A Store belongs to a single tour
// execution and is not safe for concurrent use.
type Store struct {
	values map[string]string
}

// NewStore returns a store seeded with the given values.
func NewStore(seed map[string]string) *Store {
	s := &Store{values: make(map[string]string, len(seed))}
	for k, v := range seed {
		s.values[k] = v
	}
	return s
}

// Set stores a variable.
func (s *Store) Set(key, value string) {
	s.values[key] = value
}

// Get returns a variable and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// All returns a copy of every stored variable.
func (s *Store) All() map[string]string {
	if s == nil {
		return nil
	}
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

var placeholderPattern = regexp.MustCompile(`\{\{([^}|]+)(?:\|([^}]*))?\}\}`)

// Expand replaces {{key}} and {{key|default}} placeholders. Lookup order is
// the store, then the data record, then the default. Placeholders with no
// value and no default are left untouched.
func Expand(template string, store *Store, record map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		parts := placeholderPattern.FindStringSubmatch(match)
		key := parts[1]
		if v, ok := store.Get(key); ok {
			return v
		}
		if v, ok := record[key]; ok {
			return v
		}
		// parts[2] is empty both for "{{k}}" and "{{k|}}"; tell them apart by the pipe.
		if len(match) > len(key)+4 {
			return parts[2]
		}
		return match
	})
}

// ExpandMap applies Expand to every value of values.
func ExpandMap(values map[string]string, store *Store, record map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = Expand(v, store, record)
	}
	return out
}
