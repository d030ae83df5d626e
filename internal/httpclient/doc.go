// Package httpclient provides the HTTP plumbing tour workers share.
//
// # Request Building
//
// [BuildStepRequest] turns a tour step into an *http.Request against the run's
// host, expanding {{name}} placeholders from the tour's variable store and the
// worker's current feeder record:
//
//	req, err := httpclient.BuildStepRequest(ctx, base, step, store, record)
//
// [BaseURL] normalizes the configured host ("localhost:3000",
// "https://example.com") into the URL every step path is resolved against.
//
// # HTTP Client
//
// [NewClient] creates an HTTP client tuned for load generation with a
// per-request timeout and connection reuse. One client is shared by all
// workers; *http.Client is safe for concurrent use.
package httpclient
