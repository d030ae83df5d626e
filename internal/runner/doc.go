// Package runner executes batches of tours on behalf of one worker.
//
// # Worker Contract
//
// The coordinator drives workers through the [Worker] interface:
//
//	type Worker interface {
//		ExecuteBatch(ctx context.Context, batch Batch) (BatchResult, error)
//	}
//
// A batch runs every tour in [Batch.Tours], in order, [Batch.Iterations]
// times. Test outcomes are data: they come back in [BatchResult.Counts].
// A non-nil error means the batch could not be carried out at all (unknown
// tour, invalid host, cancelled context) and the coordinator discards the
// partial result.
//
// Implementations must be safe for concurrent calls with distinct worker ids
// and must not share mutable state between calls.
//
// # Tour Worker
//
// [TourWorker] is the HTTP implementation. For every tour execution it creates
// a fresh variable store, pulls one record from the worker's feeder cursor and
// runs each selected test step by step:
//
//	w := runner.NewTourWorker(registry,
//		runner.WithClient(httpclient.NewClient(30*time.Second)),
//		runner.WithRequestRate(20),
//	)
//	res, err := w.ExecuteBatch(ctx, runner.Batch{
//		Host:       "localhost:3000",
//		Tours:      []string{"login"},
//		Iterations: 10,
//		WorkerID:   1,
//	})
//
// A failed expectation or unexpected HTTP status fails the test; a transport
// error errors it. Either way the test stops and the tour moves on to its
// next test.
package runner
