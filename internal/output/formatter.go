package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/reach-http/reach/internal/bench"
	"github.com/reach-http/reach/rest"
)

// Formatter renders requests, responses and errors for the terminal.
type Formatter struct {
	Verbose bool
	NoColor bool
	scheme  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		scheme:  NewColorScheme(noColor),
	}
}

// FormatRequest formats an outgoing request for display
func (f *Formatter) FormatRequest(method, url string, headers map[string]string, body string) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n",
		f.scheme.Method.Sprint(strings.ToUpper(method)),
		f.scheme.URL.Sprint(url)))

	if f.Verbose && len(headers) > 0 {
		buf.WriteString("  Headers:\n")
		for key, value := range headers {
			buf.WriteString(fmt.Sprintf("    %s: %s\n", f.scheme.HeaderKey.Sprint(key), value))
		}
	}

	if body != "" {
		buf.WriteString("  Body: ")
		buf.WriteString(formatJSONString(body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats a completed response for display
func (f *Formatter) FormatResponse(resp *rest.Response, elapsed time.Duration) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		f.scheme.StatusOK.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		elapsed.Milliseconds()))

	if f.Verbose {
		buf.WriteString("  Headers:\n")
		for key, values := range resp.Headers {
			for _, value := range values {
				buf.WriteString(fmt.Sprintf("    %s: %s\n", f.scheme.HeaderKey.Sprint(key), value))
			}
		}
	}

	if resp.Body != "" {
		buf.WriteString("  Body:\n")
		buf.WriteString(formatJSONString(resp.Body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatError formats a request failure, giving classified HTTP errors the
// same layout as a response.
func (f *Formatter) FormatError(err error, elapsed time.Duration) string {
	var buf strings.Builder

	var httpErr *rest.HTTPError
	if errors.As(err, &httpErr) {
		buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
			f.scheme.StatusError.Sprintf("%d %s", httpErr.StatusCode, http.StatusText(httpErr.StatusCode)),
			elapsed.Milliseconds()))
		if httpErr.Body != "" {
			buf.WriteString("  Body:\n")
			buf.WriteString(formatJSONString(httpErr.Body))
			buf.WriteString("\n")
		}
		return buf.String()
	}

	var transportErr *rest.TransportError
	if errors.As(err, &transportErr) && transportErr.Timeout() {
		buf.WriteString(f.scheme.Error.Sprintf("✗ Request timed out after %dms\n", elapsed.Milliseconds()))
		return buf.String()
	}

	buf.WriteString(f.scheme.Error.Sprintf("✗ %v\n", err))
	return buf.String()
}

// FormatValidation formats a schema-validation outcome.
func (f *Formatter) FormatValidation(valid bool, validationErrors []error) string {
	var buf strings.Builder

	if valid {
		buf.WriteString(fmt.Sprintf("%s Schema validation passed\n", SuccessIcon(f.NoColor)))
		return buf.String()
	}

	buf.WriteString(fmt.Sprintf("%s Schema validation failed:\n", ErrorIcon(f.NoColor)))
	for _, err := range validationErrors {
		buf.WriteString(fmt.Sprintf("    - %s\n", err.Error()))
	}
	return buf.String()
}

// FormatBenchSummary renders a latency summary table.
func FormatBenchSummary(summary bench.Summary, elapsed time.Duration, noColor bool) string {
	scheme := NewColorScheme(noColor)

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("Requests:    %d (%d failed) in %s\n",
		summary.Requests, summary.Errors, elapsed.Round(time.Millisecond)))
	if elapsed > 0 {
		buf.WriteString(fmt.Sprintf("Throughput:  %.1f req/s\n",
			float64(summary.Requests)/elapsed.Seconds()))
	}
	if summary.Requests > summary.Errors {
		buf.WriteString("Latency:\n")
		buf.WriteString(fmt.Sprintf("  min   %s\n", summary.Min.Round(time.Microsecond)))
		buf.WriteString(fmt.Sprintf("  mean  %s\n", summary.Mean.Round(time.Microsecond)))
		buf.WriteString(fmt.Sprintf("  p50   %s\n", summary.P50.Round(time.Microsecond)))
		buf.WriteString(fmt.Sprintf("  p90   %s\n", summary.P90.Round(time.Microsecond)))
		buf.WriteString(fmt.Sprintf("  p99   %s\n", summary.P99.Round(time.Microsecond)))
		buf.WriteString(fmt.Sprintf("  max   %s\n", summary.Max.Round(time.Microsecond)))
	}
	if summary.Errors == 0 {
		buf.WriteString(scheme.Success.Sprint("All requests succeeded\n"))
	} else {
		buf.WriteString(scheme.Error.Sprintf("%d requests failed\n", summary.Errors))
	}
	return buf.String()
}

// formatJSONString attempts to pretty-print a JSON string
func formatJSONString(s string) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, []byte(s), "  ", "  ")
	if err != nil {
		return s
	}
	return prettyJSON.String()
}
