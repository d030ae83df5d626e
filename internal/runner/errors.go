package runner

import (
	"errors"
	"fmt"
)

// HTTPError reports a response status the step did not accept.
type HTTPError struct {
	StatusCode int
	Expected   int // 0 means any 2xx or 3xx
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Expected != 0 {
		return fmt.Sprintf("HTTP %d (expected %d): %s", e.StatusCode, e.Expected, e.Body)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// AssertionError reports a failed expectation or capture.
type AssertionError struct {
	Step    string
	Message string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

// IsFailure reports whether err is a test failure (an expectation that did not
// hold) rather than an execution error.
func IsFailure(err error) bool {
	var httpErr *HTTPError
	var assertErr *AssertionError
	return errors.As(err, &httpErr) || errors.As(err, &assertErr)
}
