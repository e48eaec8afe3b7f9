// Package timings records per-stage durations for one invocation and
// summarizes them as percentiles.
package timings

import (
	"sort"
	"sync"
	"time"
)

// Stages in rendering order.
var Stages = []string{"parse", "analyze", "score", "contract", "render"}

// Recorder collects stage samples. A nil or disabled Recorder records
// nothing, so callers never need to check.
type Recorder struct {
	mu      sync.Mutex
	enabled bool
	samples map[string][]time.Duration
	now     func() time.Time
}

// New creates a recorder.
func New(enabled bool) *Recorder {
	return &Recorder{
		enabled: enabled,
		samples: make(map[string][]time.Duration),
		now:     time.Now,
	}
}

// Enabled reports whether samples are being recorded.
func (r *Recorder) Enabled() bool {
	return r != nil && r.enabled
}

// Start begins timing stage; call the returned func to stop.
func (r *Recorder) Start(stage string) func() {
	if !r.Enabled() {
		return func() {}
	}
	start := r.now()
	return func() {
		r.Add(stage, r.now().Sub(start))
	}
}

// Add records one sample.
func (r *Recorder) Add(stage string, d time.Duration) {
	if !r.Enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[stage] = append(r.samples[stage], d)
}

// Samples returns a copy of all samples keyed by stage.
func (r *Recorder) Samples() map[string][]time.Duration {
	out := make(map[string][]time.Duration)
	if r == nil {
		return out
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.samples {
		out[k] = append([]time.Duration(nil), v...)
	}
	return out
}

// StageSummary holds percentile figures for one stage.
type StageSummary struct {
	Stage string
	Count int
	P50   time.Duration
	P95   time.Duration
	Max   time.Duration
}

// Summarize computes percentiles per stage. Known stages come first in
// pipeline order, then any others alphabetically.
func Summarize(samples map[string][]time.Duration) []StageSummary {
	var names []string
	seen := make(map[string]bool)
	for _, s := range Stages {
		if len(samples[s]) > 0 {
			names = append(names, s)
			seen[s] = true
		}
	}
	var extra []string
	for s, ds := range samples {
		if !seen[s] && len(ds) > 0 {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	out := make([]StageSummary, 0, len(names))
	for _, s := range names {
		ds := append([]time.Duration(nil), samples[s]...)
		sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
		out = append(out, StageSummary{
			Stage: s,
			Count: len(ds),
			P50:   Percentile(ds, 50),
			P95:   Percentile(ds, 95),
			Max:   ds[len(ds)-1],
		})
	}
	return out
}

// Percentile returns the nearest-rank percentile of sorted durations.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := int(p/100*float64(len(sorted))+0.999999) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// Merge appends the samples of b onto a copy of a.
func Merge(a, b map[string][]time.Duration) map[string][]time.Duration {
	out := make(map[string][]time.Duration, len(a))
	for k, v := range a {
		out[k] = append([]time.Duration(nil), v...)
	}
	for k, v := range b {
		out[k] = append(out[k], v...)
	}
	return out
}
