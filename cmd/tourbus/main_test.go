package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/torosent/tourbus/internal/config"
	"github.com/torosent/tourbus/internal/coordinator"
	"github.com/torosent/tourbus/internal/output"
	"github.com/torosent/tourbus/internal/stats"
	"github.com/torosent/tourbus/internal/threshold"
)

const homeTour = `
name: home
tests:
  - name: front page
    steps:
      - request: GET /
        expect:
          body_contains: welcome
  - name: status
    steps:
      - request: GET /status
`

const brokenTour = `
name: broken
tests:
  - name: missing page
    steps:
      - request: GET /missing
`

func writeTours(t *testing.T, tours map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range tours {
		if err := os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func siteServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, "welcome aboard")
		case "/status":
			fmt.Fprint(w, "ok")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunJSONReport(t *testing.T) {
	srv := siteServer(t)
	dir := writeTours(t, map[string]string{"home": homeTour, "broken": brokenTour})
	jsonFile := filepath.Join(t.TempDir(), "report.json")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"--host", srv.URL,
		"--tours-dir", dir,
		"-c", "2",
		"-n", "3",
		"--json-output",
		"--json-file", jsonFile,
		"--threshold", "errors == 0",
		"home",
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run() error = %v\nstderr: %s", err, stderr.String())
	}

	var report map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if report["label"] != "6 runs: 2x3 of home" {
		t.Errorf("label = %v", report["label"])
	}
	if report["failed"] != false {
		t.Errorf("failed = %v, want false", report["failed"])
	}

	data, err := os.ReadFile(jsonFile)
	if err != nil {
		t.Fatalf("json file not written: %v", err)
	}
	if !json.Valid(data) {
		t.Error("json file is not valid JSON")
	}
}

func TestRunTextReportWithFailures(t *testing.T) {
	srv := siteServer(t)
	dir := writeTours(t, map[string]string{"broken": brokenTour})
	htmlFile := filepath.Join(t.TempDir(), "report.html")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"--host", srv.URL,
		"--tours-dir", dir,
		"--no-color",
		"--log-level", "error",
		"--html-output", htmlFile,
	}, &stdout, &stderr)
	if !errors.Is(err, errRunFailed) {
		t.Fatalf("run() error = %v, want errRunFailed", err)
	}

	out := stdout.String()
	for _, want := range []string{"Response Status Codes", "404", "Total Fails:   1", "!! THERE WERE FAILURES !!"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in report:\n%s", want, out)
		}
	}
	if _, err := os.Stat(htmlFile); err != nil {
		t.Errorf("html report not written: %v", err)
	}
}

func TestRunMaxBodyBytes(t *testing.T) {
	srv := siteServer(t)
	dir := writeTours(t, map[string]string{"home": homeTour})

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"--host", srv.URL,
		"--tours-dir", dir,
		"--log-level", "error",
		"--json-output",
		"--max-body-bytes", "3",
	}, &stdout, &bytes.Buffer{})
	if !errors.Is(err, errRunFailed) {
		t.Fatalf("run() error = %v, want errRunFailed", err)
	}

	var report struct {
		Totals stats.Counts `json:"totals"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	// "welcome aboard" is cut to "wel"; the status test has no body check
	if report.Totals.Fails != 1 || report.Totals.Passes != 1 {
		t.Errorf("totals = %+v, want 1 pass and 1 fail", report.Totals)
	}
}

func TestRunList(t *testing.T) {
	dir := writeTours(t, map[string]string{"home": homeTour, "broken": brokenTour})

	var stdout bytes.Buffer
	if err := run(context.Background(), []string{"--list", "--tours-dir", dir}, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.Fields(stdout.String()); len(got) != 2 {
		t.Errorf("listed %v, want two tours", got)
	}
}

func TestRunErrors(t *testing.T) {
	dir := writeTours(t, map[string]string{"home": homeTour})

	tests := []struct {
		name string
		args []string
	}{
		{"missing host", []string{"--tours-dir", dir}},
		{"bad threshold", []string{"--host", "localhost", "--tours-dir", dir, "--threshold", "latency ~ 3"}},
		{"no matching tours", []string{"--host", "localhost", "--tours-dir", dir, "nothing-matches"}},
		{"missing tours dir", []string{"--host", "localhost", "--tours-dir", filepath.Join(dir, "absent")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.args, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
				t.Error("run() should fail")
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	if err := run(context.Background(), nil, &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Errorf("run() with no args error = %v, want nil", err)
	}
}

func TestExitStatus(t *testing.T) {
	failing := []threshold.Result{{Pass: false}}

	tests := []struct {
		name    string
		summary output.Summary
		report  coordinator.Report
		results []threshold.Result
		wantErr bool
	}{
		{"clean", output.Summary{}, coordinator.Report{}, nil, false},
		{"failed tests", output.Summary{Failed: true, Totals: stats.Counts{Fails: 1}}, coordinator.Report{}, nil, true},
		{"faults", output.Summary{}, coordinator.Report{Faults: []coordinator.WorkerFault{{WorkerID: 1, Err: errors.New("x")}}}, nil, true},
		{"thresholds", output.Summary{}, coordinator.Report{}, failing, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exitStatus(tt.summary, tt.report, tt.results)
			if (err != nil) != tt.wantErr {
				t.Errorf("exitStatus() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	if err := os.WriteFile(path, []byte("user\nann\nbob\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := loadDataset(config.FeederConfig{Path: path})
	if err != nil {
		t.Fatalf("loadDataset() error = %v", err)
	}
	if ds.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ds.Len())
	}

	ds, err = loadDataset(config.FeederConfig{})
	if err != nil || ds != nil {
		t.Errorf("loadDataset(empty) = %v, %v, want nil, nil", ds, err)
	}
}
