package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/tourbus/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Summary          Summary
	ThresholdResults []ThresholdResultJSON
	ThresholdsPassed int
	ThresholdsFailed int
	Host             string
}

// GenerateHTMLReport writes a standalone HTML report.
func GenerateHTMLReport(w io.Writer, s Summary, results []threshold.Result, host string) error {
	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Summary:          s,
		ThresholdResults: thresholdJSON(results),
		Host:             host,
	}
	for _, r := range results {
		if r.Pass {
			data.ThresholdsPassed++
		} else {
			data.ThresholdsFailed++
		}
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return d.String()
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPercent": func(ratio float64) string {
			return fmt.Sprintf("%.1f", ratio*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>tourbus Report</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container { max-width: 1100px; margin: 0 auto; background: white; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); }
        header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px 40px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 40px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 20px; margin-bottom: 40px; }
        .card { background: #f8f9fa; border-radius: 8px; padding: 20px; border-left: 4px solid #667eea; }
        .card h3 { font-size: 0.85rem; color: #6c757d; text-transform: uppercase; margin: 0 0 10px; }
        .card .value { font-size: 1.8rem; font-weight: bold; }
        .card.success { border-left-color: #10b981; }
        .card.error { border-left-color: #ef4444; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 40px; }
        th, td { padding: 8px 12px; border-bottom: 1px solid #e5e7eb; text-align: left; }
        td.num { text-align: right; font-variant-numeric: tabular-nums; }
        .bar { background: #667eea; height: 10px; border-radius: 3px; }
        .banner { background: #ef4444; color: white; text-align: center; font-weight: bold; padding: 16px; border-radius: 8px; margin-bottom: 40px; }
        .pass { color: #10b981; }
        .fail { color: #ef4444; }
    </style>
</head>
<body>
<div class="container">
    <header>
        <h1>tourbus Report</h1>
        <div class="meta">{{.Summary.Label}}{{if .Host}} against {{.Host}}{{end}}</div>
        <div class="meta">Run {{.Summary.RunID}} &middot; generated {{.GeneratedAt}}</div>
    </header>
    <div class="content">
        {{if .Summary.Failed}}<div class="banner">!! THERE WERE FAILURES !!</div>{{end}}
        <div class="grid">
            <div class="card"><h3>Tours</h3><div class="value">{{.Summary.Totals.Runs}}</div></div>
            <div class="card"><h3>Tests</h3><div class="value">{{.Summary.Totals.Tests}}</div></div>
            <div class="card success"><h3>Passes</h3><div class="value">{{.Summary.Totals.Passes}}</div></div>
            <div class="card {{if .Summary.Totals.Fails}}error{{else}}success{{end}}"><h3>Fails</h3><div class="value">{{.Summary.Totals.Fails}}</div></div>
            <div class="card {{if .Summary.Totals.Errors}}error{{else}}success{{end}}"><h3>Errors</h3><div class="value">{{.Summary.Totals.Errors}}</div></div>
            <div class="card"><h3>Elapsed</h3><div class="value">{{formatDuration .Summary.Elapsed}}</div></div>
            <div class="card"><h3>Tours/sec</h3><div class="value">{{formatFloat .Summary.Throughput}}</div></div>
        </div>

        <h2>Response Times by Endpoint</h2>
        <table>
            <tr><th>Endpoint</th><th>Count</th><th>Mean (ms)</th><th>P50 (ms)</th><th>P90 (ms)</th><th>P99 (ms)</th><th>Share</th><th></th></tr>
            {{range .Summary.ResponseTimeRows}}
            <tr>
                <td>{{.Endpoint}}</td>
                <td class="num">{{.Count}}</td>
                <td class="num">{{formatFloat .MeanMs}}</td>
                <td class="num">{{formatFloat .P50Ms}}</td>
                <td class="num">{{formatFloat .P90Ms}}</td>
                <td class="num">{{formatFloat .P99Ms}}</td>
                <td class="num">{{formatPercent .Ratio}}%</td>
                <td style="width:25%"><div class="bar" style="width: {{formatPercent .Ratio}}%"></div></td>
            </tr>
            {{else}}
            <tr><td colspan="8">No requests recorded</td></tr>
            {{end}}
        </table>

        <h2>Response Status Codes</h2>
        <table>
            <tr><th>Code</th><th>Count</th><th>Share</th><th></th></tr>
            {{range .Summary.StatusRows}}
            <tr>
                <td>{{.Code}}</td>
                <td class="num">{{.Count}}</td>
                <td class="num">{{formatPercent .Ratio}}%</td>
                <td style="width:40%"><div class="bar" style="width: {{formatPercent .Ratio}}%"></div></td>
            </tr>
            {{else}}
            <tr><td colspan="4">No status codes recorded</td></tr>
            {{end}}
        </table>

        {{if .ThresholdResults}}
        <h2>Thresholds ({{.ThresholdsPassed}} passed, {{.ThresholdsFailed}} failed)</h2>
        <table>
            <tr><th>Threshold</th><th>Actual</th><th>Result</th></tr>
            {{range .ThresholdResults}}
            <tr>
                <td>{{.Threshold}}</td>
                <td class="num">{{formatFloat .Actual}}</td>
                <td class="{{if .Pass}}pass{{else}}fail{{end}}">{{if .Pass}}PASS{{else}}FAIL{{end}}</td>
            </tr>
            {{end}}
        </table>
        {{end}}

        {{if .Summary.Faults}}
        <h2>Worker Faults</h2>
        <ul>{{range .Summary.Faults}}<li class="fail">{{.}}</li>{{end}}</ul>
        {{end}}
    </div>
</div>
</body>
</html>
`
