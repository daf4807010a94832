package camsync

import (
	"testing"

	"github.com/banshee-data/camsync.report/internal/trigger"
)

func queueOf(events ...trigger.Event) *trigger.PendingQueue {
	q := trigger.NewPendingQueue(trigger.MaxPending)
	for _, e := range events {
		q.Push(e)
	}
	return q
}

func TestMatchEmptyQueue(t *testing.T) {
	m := NewMatcher(0, 0)
	if _, ok := m.Match(1_000_000_000, queueOf()); ok {
		t.Fatal("expected no match on empty queue")
	}
}

func TestMatchPicksClosestPastAndCleansOlder(t *testing.T) {
	// Two past triggers 50ms and 17ms before the frame; the closer one wins
	// and the older one is cleaned.
	q := queueOf(
		trigger.Event{ID: 1, HardwareTimestampNs: 1_000_000_000},
		trigger.Event{ID: 2, HardwareTimestampNs: 1_033_000_000},
	)

	m := NewMatcher(0, 0)
	res, ok := m.Match(1_050_000_000, q)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.TriggerID != 2 {
		t.Fatalf("expected trigger id=2, got %d", res.TriggerID)
	}
	if res.ScoreMs != 17.0 {
		t.Fatalf("expected score 17.0, got %f", res.ScoreMs)
	}
	if res.TotalLatencyMs != 17.0 {
		t.Fatalf("expected latency 17.0, got %f", res.TotalLatencyMs)
	}
	if res.Type != TriggerPast {
		t.Fatalf("expected PAST, got %s", res.Type)
	}
	if res.CleanedCount != 1 || len(res.CleanedIDs) != 1 || res.CleanedIDs[0] != 1 {
		t.Fatalf("expected id=1 cleaned, got %v", res.CleanedIDs)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d pending", q.Len())
	}
}

func TestMatchRejectsBeyondTolerance(t *testing.T) {
	// 700ms delta is outside the 500ms tolerance; queue must be untouched.
	q := queueOf(trigger.Event{ID: 5, HardwareTimestampNs: 2_000_000_000})

	m := NewMatcher(0, 0)
	if _, ok := m.Match(2_700_000_000, q); ok {
		t.Fatal("expected no match beyond tolerance")
	}
	if q.Len() != 1 || q.At(0).ID != 5 {
		t.Fatalf("queue mutated on failed match: len=%d", q.Len())
	}
}

func TestMatchToleranceBoundaryIsExclusive(t *testing.T) {
	// delta of exactly 500.0ms is ineligible.
	q := queueOf(trigger.Event{ID: 1, HardwareTimestampNs: 1_000_000_000})
	m := NewMatcher(0, 0)
	if _, ok := m.Match(1_500_000_000, q); ok {
		t.Fatal("expected no match at exactly 500ms")
	}
}

func TestMatchFutureTriggerAsFallback(t *testing.T) {
	// The trigger fired 10ms after the frame arrived: penalized but within
	// tolerance, so it still matches as FUTURE with negative latency.
	q := queueOf(trigger.Event{ID: 9, HardwareTimestampNs: 5_000_000_000})

	m := NewMatcher(0, 0)
	res, ok := m.Match(4_990_000_000, q)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Type != TriggerFuture {
		t.Fatalf("expected FUTURE, got %s", res.Type)
	}
	if res.ScoreMs != 20.0 {
		t.Fatalf("expected score 20.0, got %f", res.ScoreMs)
	}
	if res.TotalLatencyMs != -10.0 {
		t.Fatalf("expected latency -10.0, got %f", res.TotalLatencyMs)
	}
}

func TestMatchPrefersPastOverFutureAtEqualDelta(t *testing.T) {
	// Equal 10ms raw delta on both sides of the frame; the future trigger is
	// queued first but its doubled score loses.
	q := queueOf(
		trigger.Event{ID: 1, HardwareTimestampNs: 3_010_000_000}, // future
		trigger.Event{ID: 2, HardwareTimestampNs: 2_990_000_000}, // past
	)

	m := NewMatcher(0, 0)
	res, ok := m.Match(3_000_000_000, q)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.TriggerID != 2 || res.Type != TriggerPast {
		t.Fatalf("expected past trigger id=2, got id=%d type=%s", res.TriggerID, res.Type)
	}
}

func TestMatchTieBreaksOnLowerIndex(t *testing.T) {
	// Identical timestamps produce identical scores; strict less-than keeps
	// the earlier-inserted candidate.
	q := queueOf(
		trigger.Event{ID: 1, HardwareTimestampNs: 1_000_000_000},
		trigger.Event{ID: 2, HardwareTimestampNs: 1_000_000_000},
	)

	m := NewMatcher(0, 0)
	res, ok := m.Match(1_010_000_000, q)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.TriggerID != 1 {
		t.Fatalf("expected earliest-inserted id=1, got %d", res.TriggerID)
	}
}

func TestMatchCleanupCompleteness(t *testing.T) {
	// Match at index 2: everything queued ahead of it goes, everything after
	// stays.
	q := queueOf(
		trigger.Event{ID: 1, HardwareTimestampNs: 1_000_000_000},
		trigger.Event{ID: 2, HardwareTimestampNs: 1_033_000_000},
		trigger.Event{ID: 3, HardwareTimestampNs: 1_066_000_000},
		trigger.Event{ID: 4, HardwareTimestampNs: 1_099_000_000},
	)

	m := NewMatcher(0, 0)
	res, ok := m.Match(1_066_000_000, q)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.TriggerID != 3 {
		t.Fatalf("expected trigger id=3, got %d", res.TriggerID)
	}
	if res.CleanedCount != 2 {
		t.Fatalf("expected 2 cleaned, got %d", res.CleanedCount)
	}
	if q.Len() != 1 || q.At(0).ID != 4 {
		t.Fatalf("expected only id=4 to survive, len=%d", q.Len())
	}
}

func TestMatchCustomTuning(t *testing.T) {
	// A 100ms tolerance rejects what the default accepts.
	q := queueOf(trigger.Event{ID: 1, HardwareTimestampNs: 1_000_000_000})
	m := NewMatcher(100, 2)
	if _, ok := m.Match(1_200_000_000, q); ok {
		t.Fatal("expected no match with 100ms tolerance")
	}

	// A penalty of 1 makes future triggers score like past ones.
	q = queueOf(
		trigger.Event{ID: 1, HardwareTimestampNs: 3_010_000_000}, // future, delta 10
		trigger.Event{ID: 2, HardwareTimestampNs: 2_985_000_000}, // past, delta 15
	)
	m = NewMatcher(0, 1)
	res, ok := m.Match(3_000_000_000, q)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.TriggerID != 1 {
		t.Fatalf("expected future trigger id=1 with unit penalty, got %d", res.TriggerID)
	}
}
