package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/tourbus/internal/tour"
	"github.com/torosent/tourbus/internal/variables"
)

// BaseURL parses host into an absolute base URL. A bare host name or
// host:port defaults to http.
func BaseURL(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, errors.New("host is required")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid host %q: %w", host, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid host %q: missing host name", host)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

// BuildStepRequest builds the request for a tour step. Paths are resolved
// against base unless the expanded path is already an absolute URL.
func BuildStepRequest(ctx context.Context, base *url.URL, step tour.Step, store *variables.Store, record map[string]string) (*http.Request, error) {
	if base == nil {
		return nil, errors.New("base URL is required")
	}
	method := step.Method()
	if method == "" {
		return nil, fmt.Errorf("step %q has no request", step.Name)
	}

	target, err := resolve(base, variables.Expand(step.Path(), store, record))
	if err != nil {
		return nil, err
	}

	var body *strings.Reader
	if step.Body != "" {
		body = strings.NewReader(variables.Expand(step.Body, store, record))
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, target, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, target, nil)
	}
	if err != nil {
		return nil, err
	}

	for key, value := range variables.ExpandMap(step.Headers, store, record) {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" || strings.ContainsAny(trimmed, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", http.CanonicalHeaderKey(trimmed))
		}
		req.Header.Set(trimmed, value)
	}
	return req, nil
}

func resolve(base *url.URL, path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	u := *base
	u.RawQuery = ref.RawQuery
	u.Fragment = ""
	if !strings.HasPrefix(ref.Path, "/") {
		ref.Path = "/" + ref.Path
	}
	u.Path = base.Path + ref.Path
	return u.String(), nil
}

// NewClient returns an HTTP client tuned for many concurrent workers.
func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
