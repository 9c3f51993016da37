package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"text/tabwriter"
	"time"
)

type benchLatencyStats struct {
	Min    float64 `json:"minMs"`
	Mean   float64 `json:"meanMs"`
	Median float64 `json:"medianMs"`
	P95    float64 `json:"p95Ms"`
	Max    float64 `json:"maxMs"`
}

type benchAllocationStats struct {
	Total          uint64  `json:"totalAllocations"`
	PerEvent       float64 `json:"allocationsPerEvent"`
	BytesTotal     uint64  `json:"bytesTotal"`
	BytesPerEvent  float64 `json:"bytesPerEvent"`
	HeapAllocDelta int64   `json:"heapAllocDeltaBytes"`
}

type benchDispatchStats struct {
	Total        int     `json:"total"`
	PerIteration float64 `json:"perIteration"`
	PerEvent     float64 `json:"perEvent"`
}

type benchSummary struct {
	Fixture            string               `json:"fixture"`
	Iterations         int                  `json:"iterations"`
	WarmupIterations   int                  `json:"warmupIterations"`
	EventsPerIteration int                  `json:"eventsPerIteration"`
	TotalEvents        int                  `json:"totalEvents"`
	Dispatches         benchDispatchStats   `json:"dispatches"`
	Latency            benchLatencyStats    `json:"latency"`
	IterationDuration  benchLatencyStats    `json:"iterationDuration"`
	Allocations        benchAllocationStats `json:"allocations"`
	TotalDurationMs    float64              `json:"totalDurationMs"`
	EventsPerSecond    float64              `json:"eventsPerSecond"`
}

type benchIteration struct {
	Index      int     `json:"index"`
	DurationMs float64 `json:"durationMs"`
	Dispatches int     `json:"dispatches"`
	Events     int     `json:"events"`
}

type benchReport struct {
	Summary     benchSummary     `json:"summary"`
	DurationsMs []float64        `json:"durationsMs"`
	Iterations  []benchIteration `json:"iterations,omitempty"`
}

// benchEventTrace is one replayed event of one timed iteration.
type benchEventTrace struct {
	Iteration  int     `json:"iteration"`
	EventIndex int     `json:"eventIndex"`
	Kind       string  `json:"kind"`
	Payload    string  `json:"payload"`
	DurationMs float64 `json:"durationMs"`
	Dispatches int     `json:"dispatches"`
}

// sample is an unordered set of measured durations.
type sample []time.Duration

func (s sample) total() time.Duration {
	var sum time.Duration
	for _, d := range s {
		sum += d
	}
	return sum
}

func (s sample) millis() []float64 {
	out := make([]float64, len(s))
	for i, d := range s {
		out[i] = toMillis(d)
	}
	return out
}

func (s sample) stats() benchLatencyStats {
	if len(s) == 0 {
		return benchLatencyStats{}
	}
	sorted := slices.Clone(s)
	slices.Sort(sorted)
	return benchLatencyStats{
		Min:    toMillis(sorted[0]),
		Mean:   toMillis(s.total() / time.Duration(len(s))),
		Median: toMillis(percentile(sorted, 0.50)),
		P95:    toMillis(percentile(sorted, 0.95)),
		Max:    toMillis(sorted[len(sorted)-1]),
	}
}

// percentile picks the nearest-rank value of an ascending sample; p is
// clamped to [0, 1].
func percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	p = min(max(p, 0), 1)
	idx := int(p*float64(n-1) + 0.5)
	return sorted[min(idx, n-1)]
}

func buildReport(fixture benchFixture, iterations, warmup int, events, perIteration []time.Duration, iterationDispatches []int, dispatches int, start, end runtime.MemStats) benchReport {
	eventCount := len(fixture.Events)
	totalEvents := eventCount * iterations
	eventTime := sample(events).total()
	allocs := end.Mallocs - start.Mallocs
	allocBytes := end.TotalAlloc - start.TotalAlloc

	iters := make([]benchIteration, len(perIteration))
	for i, d := range perIteration {
		iters[i] = benchIteration{Index: i + 1, DurationMs: toMillis(d), Events: eventCount}
		if i < len(iterationDispatches) {
			iters[i].Dispatches = iterationDispatches[i]
		}
	}

	return benchReport{
		Summary: benchSummary{
			Fixture:            fixture.Name,
			Iterations:         iterations,
			WarmupIterations:   warmup,
			EventsPerIteration: eventCount,
			TotalEvents:        totalEvents,
			Dispatches: benchDispatchStats{
				Total:        dispatches,
				PerIteration: safeDivide(dispatches, iterations),
				PerEvent:     safeDivide(dispatches, totalEvents),
			},
			Latency:           sample(events).stats(),
			IterationDuration: sample(perIteration).stats(),
			Allocations: benchAllocationStats{
				Total:          allocs,
				PerEvent:       safeDivide(int(allocs), totalEvents),
				BytesTotal:     allocBytes,
				BytesPerEvent:  safeDivide(int(allocBytes), totalEvents),
				HeapAllocDelta: int64(end.HeapAlloc) - int64(start.HeapAlloc),
			},
			TotalDurationMs: toMillis(eventTime),
			EventsPerSecond: eventsPerSecond(eventTime, totalEvents),
		},
		DurationsMs: sample(events).millis(),
		Iterations:  iters,
	}
}

func safeDivide(total, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func eventsPerSecond(total time.Duration, events int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(events) / total.Seconds()
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// writeJSON encodes v to path, or to stdout for "" and "-".
func writeJSON(path string, v any) (err error) {
	var w io.Writer = os.Stdout
	if path = strings.TrimSpace(path); path != "" && path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		var f *os.File
		if f, err = os.Create(path); err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHumanSummary(s benchSummary, w io.Writer) error {
	spread := func(l benchLatencyStats) string {
		return fmt.Sprintf("min %.3f | mean %.3f | median %.3f | p95 %.3f | max %.3f", l.Min, l.Mean, l.Median, l.P95, l.Max)
	}
	rows := [][2]string{
		{"Fixture", s.Fixture},
		{"Iterations", fmt.Sprintf("%d (+%d warmup)", s.Iterations, s.WarmupIterations)},
		{"Events", fmt.Sprintf("%d (%d / iteration)", s.TotalEvents, s.EventsPerIteration)},
		{"Renames", fmt.Sprintf("%d (%.2f / iter, %.2f / event)", s.Dispatches.Total, s.Dispatches.PerIteration, s.Dispatches.PerEvent)},
		{"Latency (ms)", spread(s.Latency)},
		{"Iteration (ms)", spread(s.IterationDuration)},
		{"Allocations", fmt.Sprintf("%d total (%.2f / event)", s.Allocations.Total, s.Allocations.PerEvent)},
		{"Bytes allocated", fmt.Sprintf("%s (%.2f / event)", formatBytes(int64(s.Allocations.BytesTotal)), s.Allocations.BytesPerEvent)},
		{"Heap delta", formatBytes(s.Allocations.HeapAllocDelta)},
		{"Events/sec", fmt.Sprintf("%.2f", s.EventsPerSecond)},
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// formatBytes renders a signed byte count with its MiB equivalent.
func formatBytes(n int64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	return fmt.Sprintf("%s%d B (%.2f MiB)", sign, n, float64(n)/(1<<20))
}
