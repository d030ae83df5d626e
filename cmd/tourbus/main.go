package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/tourbus/internal/config"
	"github.com/torosent/tourbus/internal/coordinator"
	"github.com/torosent/tourbus/internal/feeder"
	"github.com/torosent/tourbus/internal/httpclient"
	"github.com/torosent/tourbus/internal/logging"
	"github.com/torosent/tourbus/internal/metrics"
	"github.com/torosent/tourbus/internal/output"
	"github.com/torosent/tourbus/internal/runner"
	"github.com/torosent/tourbus/internal/threshold"
	"github.com/torosent/tourbus/internal/tour"
	"github.com/torosent/tourbus/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

// errRunFailed marks a run that completed but should exit non-zero.
var errRunFailed = errors.New("run failed")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	output.SetColor(!cfg.NoColor)

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, logging.WithOutput(stderr))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	registry, err := tour.NewDirRegistry(cfg.ToursDir)
	if err != nil {
		return err
	}
	names, err := registry.List(cfg.Tours...)
	if err != nil {
		return err
	}
	if cfg.List {
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	dataset, err := loadDataset(cfg.Feeder)
	if err != nil {
		return err
	}

	tp, err := tracing.Init(ctx, cfg.Tracing.Options())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	worker := runner.NewTourWorker(registry,
		runner.WithClient(httpclient.NewClient(cfg.RequestTimeout)),
		runner.WithDataset(dataset),
		runner.WithTracer(tp.Tracer(), tp.ShouldPropagate()),
		runner.WithFailureLogger(runner.NewZapFailureLogger(logger)),
		runner.WithRequestRate(cfg.Rate),
		runner.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	opts := []coordinator.Option{
		coordinator.WithLogger(logger),
		coordinator.WithTimeout(cfg.Timeout),
	}
	var progress *output.ProgressReporter
	if !cfg.JSONOutput {
		progress = output.NewProgressReporter(progressInterval, stdout)
		opts = append(opts, coordinator.WithProgress(progress))
		progress.Start()
	}

	report, err := coordinator.New(worker, opts...).Run(ctx, cfg.RunConfig(names))
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(stdout)
	}
	if err != nil {
		return err
	}
	for _, f := range report.Faults {
		logger.Warn("worker faulted", zap.Int("worker", f.WorkerID), zap.Error(f.Err))
	}

	derived := metrics.Derive(report.Results)
	summary := output.Summarize(report, derived)
	results := threshold.NewEvaluator(thresholds).Evaluate(threshold.Input{
		Totals:  report.Totals,
		Elapsed: report.Elapsed,
		Derived: derived,
	})

	if err := writeReports(cfg, stdout, summary, results); err != nil {
		return err
	}

	return exitStatus(summary, report, results)
}

func writeReports(cfg *config.Config, stdout io.Writer, summary output.Summary, results []threshold.Result) error {
	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, summary, results); err != nil {
			return err
		}
	} else {
		output.PrintReport(stdout, summary)
		output.PrintThresholdResults(stdout, results)
	}

	if cfg.JSONFile != "" {
		err := output.WriteReportFile(cfg.JSONFile, func(w io.Writer) error {
			return output.PrintJSONReport(w, summary, results)
		})
		if err != nil {
			return fmt.Errorf("json report: %w", err)
		}
	}
	if cfg.HTMLOutput != "" {
		err := output.WriteReportFile(cfg.HTMLOutput, func(w io.Writer) error {
			return output.GenerateHTMLReport(w, summary, results, cfg.Host)
		})
		if err != nil {
			return fmt.Errorf("html report: %w", err)
		}
	}
	return nil
}

// exitStatus turns failed tests, worker faults and failed thresholds into an
// error so the process exits non-zero.
func exitStatus(summary output.Summary, report coordinator.Report, results []threshold.Result) error {
	var problems []string
	if summary.Failed {
		problems = append(problems, fmt.Sprintf("%d fails, %d errors", summary.Totals.Fails, summary.Totals.Errors))
	}
	if n := len(report.Faults); n > 0 {
		problems = append(problems, fmt.Sprintf("%d worker faults", n))
	}
	if !threshold.AllPassed(results) {
		problems = append(problems, "thresholds not met")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", errRunFailed, strings.Join(problems, ", "))
}

// loadDataset opens the feeder file, taking the type from the extension
// when none was given.
func loadDataset(cfg config.FeederConfig) (*feeder.Dataset, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	kind := string(cfg.Type)
	if kind == "" {
		kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(cfg.Path)), ".")
	}
	return feeder.Load(cfg.Path, kind)
}
