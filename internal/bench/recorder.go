// Package bench collects request latencies and summarizes them with an HDR
// histogram, giving accurate percentiles without storing every sample.
package bench

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram range: 1 microsecond to 1 hour, 3 significant figures.
const (
	histogramMin     = int64(1)
	histogramMax     = int64(3600000000)
	histogramSigFigs = 3
)

// Recorder accumulates per-request results. It is safe for concurrent use:
// counters are atomic and the histogram is mutex-protected.
type Recorder struct {
	histMu sync.Mutex
	hist   *hdrhistogram.Histogram

	requests atomic.Int64
	errors   atomic.Int64
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		hist: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
	}
}

// Record adds one completed request. Failed requests count toward Errors and
// are excluded from the latency distribution.
func (r *Recorder) Record(latency time.Duration, err error) {
	r.requests.Add(1)
	if err != nil {
		r.errors.Add(1)
		return
	}

	r.histMu.Lock()
	r.hist.RecordValue(latency.Microseconds())
	r.histMu.Unlock()
}

// Summary is a point-in-time aggregate of everything recorded so far.
type Summary struct {
	Requests int64
	Errors   int64
	Min      time.Duration
	Mean     time.Duration
	P50      time.Duration
	P90      time.Duration
	P99      time.Duration
	Max      time.Duration
}

// Summary computes the aggregate of all recorded requests.
func (r *Recorder) Summary() Summary {
	r.histMu.Lock()
	defer r.histMu.Unlock()

	summary := Summary{
		Requests: r.requests.Load(),
		Errors:   r.errors.Load(),
	}
	if r.hist.TotalCount() == 0 {
		return summary
	}

	summary.Min = time.Duration(r.hist.Min()) * time.Microsecond
	summary.Mean = time.Duration(r.hist.Mean()) * time.Microsecond
	summary.P50 = time.Duration(r.hist.ValueAtQuantile(50)) * time.Microsecond
	summary.P90 = time.Duration(r.hist.ValueAtQuantile(90)) * time.Microsecond
	summary.P99 = time.Duration(r.hist.ValueAtQuantile(99)) * time.Microsecond
	summary.Max = time.Duration(r.hist.Max()) * time.Microsecond

	return summary
}
