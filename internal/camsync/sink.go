package camsync

import "github.com/banshee-data/camsync.report/internal/monitoring"

// Sink receives every reconciliation outcome. Implementations must not
// block; the loop calls them inline.
type Sink interface {
	// Synced is called once per matched frame with the synchronized record.
	Synced(MatchResult)

	// Unmatched is called when no pending trigger lies within tolerance of
	// the frame. No record is produced for that frame.
	Unmatched(frameTsNs uint64)

	// Evicted is called when the pending queue overflows and drops its
	// oldest trigger.
	Evicted(triggerID uint64)

	// Cleaned is called for each stale trigger discarded after a match.
	Cleaned(triggerID uint64)

	// Replayed is called once after the startup history drain.
	Replayed(count int)

	// LatencyReport is called periodically with aggregate match statistics.
	LatencyReport(LatencySnapshot)
}

// LogSink reports reconciliation outcomes through the monitoring logger,
// warnings for the non-fatal failure conditions and info for the rest.
type LogSink struct{}

// Synced logs the synchronized record.
func (LogSink) Synced(r MatchResult) {
	monitoring.Infof("SYNCED [%s]: trigger_id=%d, hw_exposure_ts=%d, frame_ts=%d, total_latency=%.1fms, score=%.1fms, cleaned=%d",
		r.Type, r.TriggerID, r.HardwareTimestampNs, r.FrameTimestampNs, r.TotalLatencyMs, r.ScoreMs, r.CleanedCount)
}

// Unmatched logs a frame that found no trigger within tolerance.
func (LogSink) Unmatched(frameTsNs uint64) {
	monitoring.Warnf("frame at %dns has no matching trigger within tolerance", frameTsNs)
}

// Evicted logs an overflow eviction.
func (LogSink) Evicted(triggerID uint64) {
	monitoring.Warnf("dropped old trigger id=%d (capture too slow)", triggerID)
}

// Cleaned logs a stale trigger discarded during post-match cleanup.
func (LogSink) Cleaned(triggerID uint64) {
	monitoring.Infof("cleanup: removed old trigger id=%d (too old for future frames)", triggerID)
}

// Replayed logs the startup history drain.
func (LogSink) Replayed(count int) {
	monitoring.Infof("replayed %d historical triggers", count)
}

// LatencyReport logs aggregate latency statistics.
func (LogSink) LatencyReport(s LatencySnapshot) {
	monitoring.Infof("latency: matches=%d mean=%.1fms median=%.1fms p95=%.1fms mean_score=%.1fms",
		s.Count, s.MeanLatencyMs, s.MedianLatencyMs, s.P95LatencyMs, s.MeanScoreMs)
}
