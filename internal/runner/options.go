package runner

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/torosent/tourbus/internal/feeder"
)

const defaultMaxBodyBytes = 1 << 20

// Option configures a TourWorker.
type Option func(*TourWorker)

// WithClient sets the HTTP client shared by all batches.
func WithClient(client *http.Client) Option {
	return func(w *TourWorker) {
		if client != nil {
			w.client = client
		}
	}
}

// WithDataset supplies feeder records; each batch reads them through its own
// cursor.
func WithDataset(ds *feeder.Dataset) Option {
	return func(w *TourWorker) { w.dataset = ds }
}

// WithTracer enables tour and request spans. When propagate is set, W3C trace
// headers are injected into every request.
func WithTracer(tracer trace.Tracer, propagate bool) Option {
	return func(w *TourWorker) {
		w.tracer = tracer
		w.propagate = propagate
	}
}

// WithFailureLogger reports failed and errored tests.
func WithFailureLogger(logger FailureLogger) Option {
	return func(w *TourWorker) { w.failures = logger }
}

// WithRequestRate paces each batch to at most rps requests per second.
// Every batch gets its own limiter, so the aggregate rate scales with
// concurrency. Zero or negative means unlimited.
func WithRequestRate(rps int) Option {
	if rps <= 0 {
		return WithLimiterFactory(nil)
	}
	return WithLimiterFactory(func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(rps), 1)
	})
}

// WithLimiterFactory sets the constructor for each batch's limiter. A nil
// factory disables pacing.
func WithLimiterFactory(factory func() *rate.Limiter) Option {
	return func(w *TourWorker) { w.limiterFactory = factory }
}

// WithMaxBodyBytes caps how much of each response body is read for
// expectations and captures. Non-positive values keep the 1 MiB default.
func WithMaxBodyBytes(n int64) Option {
	return func(w *TourWorker) {
		if n > 0 {
			w.maxBodyBytes = n
		}
	}
}
