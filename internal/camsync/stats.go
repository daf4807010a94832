package camsync

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// maxLatencySamples bounds the stats window so a long-running loop does not
// grow without limit. Oldest samples are discarded first.
const maxLatencySamples = 4096

// LatencyStats accumulates per-match latency and score samples over a
// sliding window.
type LatencyStats struct {
	latencies []float64
	scores    []float64
}

// Add records one matched frame's total latency and score, in milliseconds.
func (s *LatencyStats) Add(latencyMs, scoreMs float64) {
	if len(s.latencies) >= maxLatencySamples {
		s.latencies = s.latencies[1:]
		s.scores = s.scores[1:]
	}
	s.latencies = append(s.latencies, latencyMs)
	s.scores = append(s.scores, scoreMs)
}

// LatencySnapshot summarizes the current window.
type LatencySnapshot struct {
	Count           int
	MeanLatencyMs   float64
	MedianLatencyMs float64
	P95LatencyMs    float64
	MeanScoreMs     float64
}

// Snapshot computes summary statistics over the window. Quantiles require
// sorted input, so the window is copied and sorted per call; window size is
// bounded, so this stays cheap.
func (s *LatencyStats) Snapshot() LatencySnapshot {
	n := len(s.latencies)
	if n == 0 {
		return LatencySnapshot{}
	}

	sorted := make([]float64, n)
	copy(sorted, s.latencies)
	sort.Float64s(sorted)

	return LatencySnapshot{
		Count:           n,
		MeanLatencyMs:   stat.Mean(s.latencies, nil),
		MedianLatencyMs: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95LatencyMs:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		MeanScoreMs:     stat.Mean(s.scores, nil),
	}
}
