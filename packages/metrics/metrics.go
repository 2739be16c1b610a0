// Package metrics aggregates server response times into a latency summary.
package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds: 1ms floor, one hour ceiling. Runs have no default
// timeout, so the ceiling stays generous.
const (
	minLatencyMs = 1
	maxLatencyMs = 3_600_000
)

// Collector accumulates per-request latencies. It is fed from the sequential
// run loop and is not safe for concurrent use.
type Collector struct {
	histogram *hdrhistogram.Histogram
	count     int64
}

func NewCollector() *Collector {
	return &Collector{
		histogram: hdrhistogram.New(minLatencyMs, maxLatencyMs, 3),
	}
}

// Record adds one response time in milliseconds, clamped to the histogram
// bounds.
func (c *Collector) Record(ms int64) {
	if ms < minLatencyMs {
		ms = minLatencyMs
	}
	if ms > maxLatencyMs {
		ms = maxLatencyMs
	}
	_ = c.histogram.RecordValue(ms)
	c.count++
}

// Summary holds the aggregated latency figures of a run.
type Summary struct {
	Count  int64
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
}

func (c *Collector) Summary() Summary {
	if c.count == 0 {
		return Summary{}
	}
	return Summary{
		Count:  c.count,
		Min:    time.Duration(c.histogram.Min()) * time.Millisecond,
		Max:    time.Duration(c.histogram.Max()) * time.Millisecond,
		Mean:   time.Duration(c.histogram.Mean()) * time.Millisecond,
		StdDev: time.Duration(c.histogram.StdDev()) * time.Millisecond,
		P50:    time.Duration(c.histogram.ValueAtQuantile(50)) * time.Millisecond,
		P95:    time.Duration(c.histogram.ValueAtQuantile(95)) * time.Millisecond,
		P99:    time.Duration(c.histogram.ValueAtQuantile(99)) * time.Millisecond,
	}
}
