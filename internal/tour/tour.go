// Package tour defines scripted tours, their per-run results and the registry
// that discovers them.
//
// A tour is a YAML document naming a sequence of tests; each test is a
// sequence of HTTP steps with optional captures and expectations:
//
//	name: login
//	tests:
//	  - name: sign_in
//	    steps:
//	      - request: GET /login
//	        expect:
//	          status: 200
//
// The executing worker lives in package runner; this package only carries
// data and discovery.
package tour

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tour is a named scripted scenario.
type Tour struct {
	Name  string `yaml:"name"`
	Tests []Test `yaml:"tests"`
}

// Test is a named sequence of steps that passes or fails as a unit.
type Test struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one request within a test.
type Step struct {
	Name    string            `yaml:"name"`
	Request string            `yaml:"request"` // "METHOD /path"
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
	Capture []Capture         `yaml:"capture"`
	Expect  Expectation       `yaml:"expect"`
}

// Capture stores part of a response body in a tour variable.
type Capture struct {
	Variable string `yaml:"variable"`
	JSONPath string `yaml:"json_path"`
	Regex    string `yaml:"regex"`
}

// Expectation lists the assertions applied to a step's response.
type Expectation struct {
	Status       int               `yaml:"status"`
	BodyContains string            `yaml:"body_contains"`
	JSON         map[string]string `yaml:"json"`
	Headers      map[string]string `yaml:"headers"`
}

// Method returns the upper-cased HTTP method of the step.
func (s Step) Method() string {
	method, _ := s.split()
	return method
}

// Path returns the request path template of the step.
func (s Step) Path() string {
	_, path := s.split()
	return path
}

// Endpoint is the key latency observations are grouped under.
func (s Step) Endpoint() string {
	method, path := s.split()
	return method + " " + path
}

func (s Step) split() (string, string) {
	fields := strings.Fields(s.Request)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return http.MethodGet, fields[0]
	default:
		return strings.ToUpper(fields[0]), fields[1]
	}
}

// ValidationError lists every problem found in a tour definition.
type ValidationError struct {
	Tour   string
	issues []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("tour %q is invalid: %s", e.Tour, strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks the structural rules of a tour.
func (t *Tour) Validate() error {
	var issues []string
	if strings.TrimSpace(t.Name) == "" {
		issues = append(issues, "name is required")
	}
	if len(t.Tests) == 0 {
		issues = append(issues, "at least one test is required")
	}
	seen := map[string]int{}
	for i, test := range t.Tests {
		name := strings.TrimSpace(test.Name)
		if name == "" {
			issues = append(issues, fmt.Sprintf("tests[%d]: name is required", i))
		} else if prev, ok := seen[name]; ok {
			issues = append(issues, fmt.Sprintf("tests[%d]: duplicate name also defined at index %d", i, prev))
		} else {
			seen[name] = i
		}
		if len(test.Steps) == 0 {
			issues = append(issues, fmt.Sprintf("tests[%d]: at least one step is required", i))
		}
		for j, step := range test.Steps {
			fields := strings.Fields(step.Request)
			if len(fields) == 0 || len(fields) > 2 {
				issues = append(issues, fmt.Sprintf("tests[%d].steps[%d]: request must be \"METHOD /path\"", i, j))
			}
			for k, c := range step.Capture {
				if strings.TrimSpace(c.Variable) == "" {
					issues = append(issues, fmt.Sprintf("tests[%d].steps[%d].capture[%d]: variable is required", i, j, k))
				}
				if (c.JSONPath == "") == (c.Regex == "") {
					issues = append(issues, fmt.Sprintf("tests[%d].steps[%d].capture[%d]: exactly one of json_path or regex is required", i, j, k))
				}
			}
		}
	}
	if len(issues) > 0 {
		return ValidationError{Tour: t.Name, issues: issues}
	}
	return nil
}

// Parse decodes and validates a YAML tour document.
func Parse(data []byte) (*Tour, error) {
	var t Tour
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tour: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile reads and parses a tour file. A tour without a name takes the
// file's base name.
func LoadFile(path string) (*Tour, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tour file: %w", err)
	}
	var t Tour
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tour %s: %w", path, err)
	}
	if strings.TrimSpace(t.Name) == "" {
		t.Name = baseName(path)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
