package bus

import (
	"testing"

	"github.com/banshee-data/camsync.report/internal/trigger"
)

func drain(t *testing.T, s *Subscription) []trigger.Event {
	t.Helper()
	var events []trigger.Event
	for {
		e, ok, err := s.Receive()
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if !ok {
			return events
		}
		events = append(events, e)
	}
}

func TestPublishDeliversInOrder(t *testing.T) {
	b := New(Config{})
	sub, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	for id := uint64(1); id <= 5; id++ {
		b.Publish(trigger.Event{ID: id})
	}

	events := drain(t, sub)
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	for i, e := range events {
		if e.ID != uint64(i+1) {
			t.Fatalf("event %d: expected id=%d, got %d", i, i+1, e.ID)
		}
	}
}

func TestLateSubscriberReplaysHistory(t *testing.T) {
	b := New(Config{HistorySize: 10})
	for id := uint64(1); id <= 25; id++ {
		b.Publish(trigger.Event{ID: id})
	}

	sub, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	events := drain(t, sub)
	if len(events) != 10 {
		t.Fatalf("expected 10 replayed events, got %d", len(events))
	}
	// History retains the most recent HistorySize events in publish order.
	for i, e := range events {
		if e.ID != uint64(16+i) {
			t.Fatalf("replay %d: expected id=%d, got %d", i, 16+i, e.ID)
		}
	}
}

func TestBufferOverflowDropsOldest(t *testing.T) {
	b := New(Config{BufferSize: 4})
	sub, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	for id := uint64(1); id <= 6; id++ {
		b.Publish(trigger.Event{ID: id})
	}

	events := drain(t, sub)
	want := []uint64{3, 4, 5, 6}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, id := range want {
		if events[i].ID != id {
			t.Fatalf("event %d: expected id=%d, got %d", i, id, events[i].ID)
		}
	}

	stats := sub.Stats()
	if stats.Dropped != 2 {
		t.Fatalf("expected 2 dropped, got %d", stats.Dropped)
	}
	if stats.Delivered != 6 {
		t.Fatalf("expected 6 delivered, got %d", stats.Delivered)
	}
}

func TestSubscriberLimit(t *testing.T) {
	b := New(Config{MaxSubscribers: 2})
	if _, err := b.Subscribe(); err != nil {
		t.Fatalf("first Subscribe: %v", err)
	}
	second, err := b.Subscribe()
	if err != nil {
		t.Fatalf("second Subscribe: %v", err)
	}
	if _, err := b.Subscribe(); err != ErrTooManySubscribers {
		t.Fatalf("expected ErrTooManySubscribers, got %v", err)
	}

	// Unsubscribing frees a slot.
	second.Unsubscribe()
	if _, err := b.Subscribe(); err != nil {
		t.Fatalf("Subscribe after Unsubscribe: %v", err)
	}
}

func TestCloseDrainsThenErrors(t *testing.T) {
	b := New(Config{})
	sub, err := b.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	b.Publish(trigger.Event{ID: 1})
	b.Close()

	e, ok, err := sub.Receive()
	if err != nil || !ok || e.ID != 1 {
		t.Fatalf("expected buffered event after close, got e=%v ok=%v err=%v", e, ok, err)
	}
	if _, _, err := sub.Receive(); err != ErrBusClosed {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
	if _, err := b.Subscribe(); err != ErrBusClosed {
		t.Fatalf("expected ErrBusClosed on Subscribe, got %v", err)
	}
}

func TestPublishedCounter(t *testing.T) {
	b := New(Config{})
	for id := uint64(1); id <= 3; id++ {
		b.Publish(trigger.Event{ID: id})
	}
	if n := b.Published(); n != 3 {
		t.Fatalf("expected 3 published, got %d", n)
	}
}
