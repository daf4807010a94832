// Package camsync implements the trigger/frame reconciliation engine: the
// nearest-match scorer that attaches hardware trigger events to captured
// frames, the ingestor that drains the trigger bus, and the loop composing
// them for both the pull and callback-driven deployments.
package camsync

import (
	"math"

	"github.com/banshee-data/camsync.report/internal/trigger"
)

// TriggerType records whether the matched trigger fired before or after the
// frame's arrival timestamp.
type TriggerType string

const (
	// TriggerPast means the trigger fired before the frame arrived, the
	// normal case since capture delivery always lags exposure.
	TriggerPast TriggerType = "PAST"

	// TriggerFuture means the trigger fired after the frame arrived. Only
	// plausible under clock skew between publisher and capture host; kept
	// as a fallback when no past trigger qualifies.
	TriggerFuture TriggerType = "FUTURE"
)

// Matching defaults. Tolerance is a data-level acceptance threshold, not a
// blocking wait.
const (
	DefaultToleranceMs   = 500.0
	DefaultFuturePenalty = 2.0
)

// MatchResult is the synchronized record produced for a matched frame.
type MatchResult struct {
	TriggerID           uint64
	HardwareTimestampNs uint64
	FrameTimestampNs    uint64

	// TotalLatencyMs is frame arrival minus exposure instant. Negative for
	// FUTURE matches.
	TotalLatencyMs float64

	// ScoreMs is the winning score, including any future penalty.
	ScoreMs float64

	Type TriggerType

	// CleanedIDs are the stale triggers discarded because they sat ahead of
	// the matched one; CleanedCount == len(CleanedIDs).
	CleanedIDs   []uint64
	CleanedCount int
}

// Matcher selects the pending trigger that most plausibly caused a frame.
type Matcher struct {
	toleranceMs   float64
	futurePenalty float64
}

// NewMatcher creates a matcher. Non-positive tolerance or a penalty below 1
// falls back to the defaults.
func NewMatcher(toleranceMs, futurePenalty float64) Matcher {
	if toleranceMs <= 0 {
		toleranceMs = DefaultToleranceMs
	}
	if futurePenalty < 1 {
		futurePenalty = DefaultFuturePenalty
	}
	return Matcher{toleranceMs: toleranceMs, futurePenalty: futurePenalty}
}

// Match scores every pending trigger against the frame arrival timestamp and
// removes the best candidate from the queue, discarding everything queued
// ahead of it. Returns ok=false and leaves the queue untouched when no
// candidate lies within tolerance.
//
// Past triggers score their raw delta; future triggers are penalized so a
// frame is never attributed to a later trigger while an equally close earlier
// one exists. Strict less-than comparison makes the earliest-inserted
// candidate win ties.
func (m Matcher) Match(frameTsNs uint64, q *trigger.PendingQueue) (MatchResult, bool) {
	if q.Len() == 0 {
		return MatchResult{}, false
	}

	bestIndex := -1
	bestScore := math.MaxFloat64

	for i := 0; i < q.Len(); i++ {
		e := q.At(i)

		var deltaNs uint64
		if frameTsNs > e.HardwareTimestampNs {
			deltaNs = frameTsNs - e.HardwareTimestampNs
		} else {
			deltaNs = e.HardwareTimestampNs - frameTsNs
		}
		deltaMs := float64(deltaNs) / 1e6

		score := deltaMs
		if e.HardwareTimestampNs >= frameTsNs {
			score = deltaMs * m.futurePenalty
		}

		if score < bestScore && deltaMs < m.toleranceMs {
			bestScore = score
			bestIndex = i
		}
	}

	if bestIndex < 0 {
		return MatchResult{}, false
	}

	matched := q.RemoveAt(bestIndex)

	// Triggers queued ahead of the match are older than it and can never
	// serve a later-arriving frame.
	cleaned := make([]uint64, 0, bestIndex)
	for i := 0; i < bestIndex; i++ {
		old, ok := q.PopFront()
		if !ok {
			break
		}
		cleaned = append(cleaned, old.ID)
	}

	// Unsigned subtraction wraps for future triggers; the int64 conversion
	// recovers the signed difference.
	latencyMs := float64(int64(frameTsNs-matched.HardwareTimestampNs)) / 1e6

	typ := TriggerPast
	if matched.HardwareTimestampNs >= frameTsNs {
		typ = TriggerFuture
	}

	return MatchResult{
		TriggerID:           matched.ID,
		HardwareTimestampNs: matched.HardwareTimestampNs,
		FrameTimestampNs:    frameTsNs,
		TotalLatencyMs:      latencyMs,
		ScoreMs:             bestScore,
		Type:                typ,
		CleanedIDs:          cleaned,
		CleanedCount:        len(cleaned),
	}, true
}
