package pipeline

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	phase      string
	durationMs int64
}

// StatsSnapshot aggregates the latency samples of one series.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// LatencyStats keeps end-to-end analysis latencies and per-phase latencies
// over a rolling window. The end-to-end series has the empty phase name.
type LatencyStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewLatencyStats(window time.Duration) *LatencyStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LatencyStats{window: window}
}

// Record adds an end-to-end analysis latency.
func (s *LatencyStats) Record(d time.Duration) {
	s.RecordPhase("", d)
}

// RecordPhase adds a latency to the named phase. Negative durations count as zero.
func (s *LatencyStats) RecordPhase(phase string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.expire(now)
	s.samples = append(s.samples, sample{at: now, phase: phase, durationMs: max(d.Milliseconds(), 0)})
}

// Snapshot aggregates the end-to-end series.
func (s *LatencyStats) Snapshot() StatsSnapshot {
	return summarize(s.series()[""])
}

// Phases aggregates each per-phase series recorded in the window.
func (s *LatencyStats) Phases() map[string]StatsSnapshot {
	out := make(map[string]StatsSnapshot)
	for phase, values := range s.series() {
		if phase != "" {
			out[phase] = summarize(values)
		}
	}
	return out
}

func (s *LatencyStats) series() map[string][]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expire(time.Now())
	out := make(map[string][]int64)
	for _, sm := range s.samples {
		out[sm.phase] = append(out[sm.phase], sm.durationMs)
	}
	return out
}

// expire drops samples older than the window. Samples are appended in time
// order so the expired ones form a prefix.
func (s *LatencyStats) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	i := sort.Search(len(s.samples), func(i int) bool { return !s.samples[i].at.Before(cutoff) })
	if i > 0 {
		s.samples = append(s.samples[:0], s.samples[i:]...)
	}
}

func summarize(values []int64) StatsSnapshot {
	if len(values) == 0 {
		return StatsSnapshot{}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	var sum int64
	for _, v := range values {
		sum += v
	}
	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}

// PhaseTimer times consecutive phases of one job. It is not safe for
// concurrent use.
type PhaseTimer struct {
	stats *LatencyStats
	phase string
	start time.Time
}

// StartPhase begins timing phase.
func (s *LatencyStats) StartPhase(phase string) *PhaseTimer {
	return &PhaseTimer{stats: s, phase: phase, start: time.Now()}
}

// Next records the running phase, if any, and starts timing phase.
func (t *PhaseTimer) Next(phase string) {
	now := time.Now()
	if t.phase != "" {
		t.stats.RecordPhase(t.phase, now.Sub(t.start))
	}
	t.phase, t.start = phase, now
}

// Stop records the running phase and leaves the timer idle.
func (t *PhaseTimer) Stop() {
	t.Next("")
}
