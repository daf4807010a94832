package trigger

// MaxPending is the default capacity of a PendingQueue. Triggers beyond this
// bound indicate the capture side has fallen far behind; the oldest entry is
// evicted to keep memory bounded.
const MaxPending = 100

// PendingQueue is a bounded buffer of trigger events awaiting a frame match.
// Insertion order is arrival order. The queue performs no locking; it is owned
// exclusively by the reconciliation loop.
type PendingQueue struct {
	events []Event
	max    int
}

// NewPendingQueue creates a queue bounded at max entries. A non-positive max
// falls back to MaxPending.
func NewPendingQueue(max int) *PendingQueue {
	if max <= 0 {
		max = MaxPending
	}
	return &PendingQueue{
		events: make([]Event, 0, max),
		max:    max,
	}
}

// Push appends an event. If the queue would exceed its bound the oldest entry
// is removed and returned with wasEvicted=true; eviction is a signal for the
// caller to report, not an error.
func (q *PendingQueue) Push(e Event) (evicted Event, wasEvicted bool) {
	q.events = append(q.events, e)
	if len(q.events) > q.max {
		evicted = q.events[0]
		q.events = q.events[1:]
		return evicted, true
	}
	return Event{}, false
}

// RemoveAt removes and returns the event at index i, shifting later entries
// forward. The index must be in range.
func (q *PendingQueue) RemoveAt(i int) Event {
	e := q.events[i]
	q.events = append(q.events[:i], q.events[i+1:]...)
	return e
}

// PopFront removes and returns the oldest event.
func (q *PendingQueue) PopFront() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]
	q.events = q.events[1:]
	return e, true
}

// At returns the event at index i without removing it.
func (q *PendingQueue) At(i int) Event {
	return q.events[i]
}

// Len returns the number of pending events.
func (q *PendingQueue) Len() int {
	return len(q.events)
}
