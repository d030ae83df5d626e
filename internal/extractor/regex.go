package extractor

import (
	"fmt"
	"regexp"
	"sync"
)

var compiled sync.Map // pattern -> *regexp.Regexp

// findRegex returns the first capture group, or the whole match when the
// pattern has no groups.
func findRegex(body []byte, pattern string) (string, error) {
	re, err := compile(pattern)
	if err != nil {
		return "", err
	}
	match := re.FindSubmatch(body)
	if match == nil {
		return "", fmt.Errorf("regex %s: %w", pattern, ErrNotFound)
	}
	if len(match) > 1 {
		return string(match[1]), nil
	}
	return string(match[0]), nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := compiled.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	compiled.Store(pattern, re)
	return re, nil
}
