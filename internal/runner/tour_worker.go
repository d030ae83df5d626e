package runner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"github.com/torosent/tourbus/internal/extractor"
	"github.com/torosent/tourbus/internal/feeder"
	"github.com/torosent/tourbus/internal/httpclient"
	"github.com/torosent/tourbus/internal/stats"
	"github.com/torosent/tourbus/internal/tour"
	"github.com/torosent/tourbus/internal/tracing"
	"github.com/torosent/tourbus/internal/variables"
)

const maxErrorBodyBytes = 256

// TourWorker runs scripted HTTP tours. It holds only read-only configuration;
// all per-batch state lives in a batchRun, so one TourWorker serves every
// concurrent worker.
type TourWorker struct {
	registry       tour.Registry
	client         *http.Client
	dataset        *feeder.Dataset
	tracer         trace.Tracer
	propagate      bool
	failures       FailureLogger
	limiterFactory func() *rate.Limiter
	maxBodyBytes   int64
}

// NewTourWorker returns a worker that loads tours from registry.
func NewTourWorker(registry tour.Registry, opts ...Option) *TourWorker {
	w := &TourWorker{
		registry:     registry,
		client:       httpclient.NewClient(30 * time.Second),
		tracer:       noop.NewTracerProvider().Tracer("tourbus"),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// batchRun is the state owned by one ExecuteBatch call.
type batchRun struct {
	w       *TourWorker
	batch   Batch
	base    *url.URL
	filter  tour.TestFilter
	cursor  *feeder.Cursor
	limiter *rate.Limiter
}

// ExecuteBatch implements Worker.
func (w *TourWorker) ExecuteBatch(ctx context.Context, batch Batch) (BatchResult, error) {
	if w.registry == nil {
		return BatchResult{}, fmt.Errorf("tour registry is not configured")
	}
	base, err := httpclient.BaseURL(batch.Host)
	if err != nil {
		return BatchResult{}, err
	}
	filter, err := tour.NewTestFilter(batch.TestFilter)
	if err != nil {
		return BatchResult{}, err
	}

	tours := make([]*tour.Tour, 0, len(batch.Tours))
	for _, name := range batch.Tours {
		t, err := w.registry.Load(name)
		if err != nil {
			return BatchResult{}, fmt.Errorf("load tour %q: %w", name, err)
		}
		tours = append(tours, t)
	}

	run := &batchRun{
		w:      w,
		batch:  batch,
		base:   base,
		filter: filter,
		cursor: w.dataset.Cursor(batch.WorkerID - 1),
	}
	if w.limiterFactory != nil {
		run.limiter = w.limiterFactory()
	}

	var result BatchResult
	for iteration := 1; iteration <= batch.Iterations; iteration++ {
		for _, t := range tours {
			if err := ctx.Err(); err != nil {
				return BatchResult{}, err
			}
			res, counts := run.runTour(ctx, t, iteration)
			result.Counts = result.Counts.Add(counts)
			result.RequestTime += res.TotalLatency()
			result.Results = append(result.Results, res)
		}
		if batch.Progress != nil {
			batch.Progress()
		}
	}
	return result, nil
}

func (r *batchRun) runTour(ctx context.Context, t *tour.Tour, iteration int) (tour.Result, stats.Counts) {
	ctx, span := tracing.StartTourSpan(ctx, r.w.tracer, t.Name, r.batch.WorkerID, iteration)

	res := tour.Result{Tour: t.Name, Worker: r.batch.WorkerID, Iteration: iteration}
	counts := stats.Counts{Runs: 1}
	store := variables.NewStore(map[string]string{
		"runner_id": strconv.Itoa(r.batch.WorkerID),
		"iteration": strconv.Itoa(iteration),
		"tour":      t.Name,
	})
	record := r.cursor.Next()

	for _, test := range t.Tests {
		if !r.filter.Match(test.Name) {
			continue
		}
		counts.Tests++
		err := r.runTest(ctx, test, store, record, &res)
		switch {
		case err == nil:
			counts.Passes++
			continue
		case IsFailure(err):
			counts.Fails++
		default:
			counts.Errors++
		}
		if r.w.failures != nil {
			r.w.failures.LogFailure(Failure{
				WorkerID:  r.batch.WorkerID,
				Iteration: iteration,
				Tour:      t.Name,
				Test:      test.Name,
				Err:       err,
				Variables: store.All(),
			})
		}
	}

	var tourErr error
	if counts.Fails > 0 || counts.Errors > 0 {
		tourErr = fmt.Errorf("%d failed, %d errored", counts.Fails, counts.Errors)
	}
	tracing.EndSpan(span, tourErr)
	return res, counts
}

func (r *batchRun) runTest(ctx context.Context, test tour.Test, store *variables.Store, record map[string]string, res *tour.Result) error {
	for i, step := range test.Steps {
		if err := r.runStep(ctx, test.Name, step, store, record, res); err != nil {
			name := step.Name
			if name == "" {
				name = fmt.Sprintf("step %d (%s)", i+1, step.Endpoint())
			}
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (r *batchRun) runStep(ctx context.Context, testName string, step tour.Step, store *variables.Store, record map[string]string, res *tour.Result) (err error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	endpoint := step.Endpoint()
	ctx, span := tracing.StartRequestSpan(ctx, r.w.tracer, endpoint, testName)
	status := 0
	defer func() {
		if status != 0 {
			tracing.EndSpan(span, err, tracing.StatusAttr(status))
			return
		}
		tracing.EndSpan(span, err)
	}()

	req, err := httpclient.BuildStepRequest(ctx, r.base, step, store, record)
	if err != nil {
		return err
	}
	if r.w.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	start := time.Now()
	resp, err := r.w.client.Do(req)
	if err != nil {
		res.Record(endpoint, time.Since(start), tour.ResponseMeta{})
		return err
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, r.w.maxBodyBytes))
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	latency := time.Since(start)

	status = resp.StatusCode
	res.Record(endpoint, latency, tour.ResponseMeta{StatusCode: resp.StatusCode, Header: resp.Header})
	if readErr != nil {
		return fmt.Errorf("read response body: %w", readErr)
	}

	if err := checkStatus(step.Expect.Status, resp.StatusCode, body); err != nil {
		return err
	}
	for _, c := range step.Capture {
		rule := extractor.Rule{JSONPath: c.JSONPath, Regex: c.Regex}
		value, err := extractor.Extract(body, rule)
		if err != nil {
			return &AssertionError{Step: endpoint, Message: fmt.Sprintf("capture %s by %s: %v", c.Variable, rule.Describe(), err)}
		}
		store.Set(c.Variable, value)
	}
	return checkExpectations(endpoint, step.Expect, resp.Header, body, store, record)
}

func checkStatus(expected, actual int, body []byte) error {
	if expected != 0 && actual == expected {
		return nil
	}
	if expected == 0 && actual < http.StatusBadRequest {
		return nil
	}
	snippet := string(body)
	if len(snippet) > maxErrorBodyBytes {
		snippet = snippet[:maxErrorBodyBytes]
	}
	return &HTTPError{StatusCode: actual, Expected: expected, Body: strings.TrimSpace(snippet)}
}

func checkExpectations(endpoint string, exp tour.Expectation, header http.Header, body []byte, store *variables.Store, record map[string]string) error {
	if exp.BodyContains != "" {
		want := variables.Expand(exp.BodyContains, store, record)
		if !strings.Contains(string(body), want) {
			return &AssertionError{Step: endpoint, Message: fmt.Sprintf("body does not contain %q", want)}
		}
	}
	for name, raw := range exp.Headers {
		want := variables.Expand(raw, store, record)
		if got := header.Get(name); got != want {
			return &AssertionError{Step: endpoint, Message: fmt.Sprintf("header %s = %q, want %q", name, got, want)}
		}
	}
	for path, raw := range exp.JSON {
		want := variables.Expand(raw, store, record)
		got, err := extractor.Extract(body, extractor.Rule{JSONPath: path})
		if err != nil {
			return &AssertionError{Step: endpoint, Message: err.Error()}
		}
		if got != want {
			return &AssertionError{Step: endpoint, Message: fmt.Sprintf("json %s = %q, want %q", path, got, want)}
		}
	}
	return nil
}
