// Package bus implements the trigger event bus the reconciliation loop
// consumes: a process-local publish/subscribe hub with retained history for
// late subscribers, bounded per-subscriber buffers with safe overflow, and a
// UDP transport that bridges the publisher process onto the hub.
package bus

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/camsync.report/internal/trigger"
)

var (
	// ErrBusClosed is returned once a subscription has drained its buffer
	// after the bus shut down.
	ErrBusClosed = errors.New("trigger bus closed")

	// ErrTooManySubscribers is returned when the subscriber cap is reached.
	ErrTooManySubscribers = errors.New("subscriber limit reached")
)

// Default bus sizing. Mirrors the upstream service configuration: a small
// retained history for late-starting consumers, a buffer deep enough for
// trigger bursts, and a handful of camera processes per trigger source.
const (
	DefaultHistorySize    = 10
	DefaultBufferSize     = 20
	DefaultMaxSubscribers = 3
)

// Config sizes the bus.
type Config struct {
	// HistorySize is how many published events are retained for delivery to
	// subscribers that attach after publishing started.
	HistorySize int

	// BufferSize is the per-subscriber receive buffer capacity. When full,
	// the oldest buffered event is discarded so publishing never blocks.
	BufferSize int

	// MaxSubscribers caps concurrent subscriptions.
	MaxSubscribers int
}

func (c Config) withDefaults() Config {
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.MaxSubscribers <= 0 {
		c.MaxSubscribers = DefaultMaxSubscribers
	}
	return c
}

// SubscriberStats tracks delivery metrics for one subscription.
type SubscriberStats struct {
	Delivered uint64 // events placed in the buffer
	Dropped   uint64 // events discarded by buffer overflow
}

// Bus distributes trigger events to subscribers.
type Bus struct {
	mu        sync.Mutex
	cfg       Config
	history   []trigger.Event
	subs      map[string]*Subscription
	published uint64
	closed    bool
}

// New creates a bus with the given configuration. Zero fields take defaults.
func New(cfg Config) *Bus {
	return &Bus{
		cfg:  cfg.withDefaults(),
		subs: make(map[string]*Subscription),
	}
}

// Publish delivers an event to every subscriber buffer and appends it to the
// retained history. Never blocks; full buffers drop their oldest entry.
func (b *Bus) Publish(e trigger.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.published++

	b.history = append(b.history, e)
	if len(b.history) > b.cfg.HistorySize {
		b.history = b.history[1:]
	}

	for _, s := range b.subs {
		s.enqueueLocked(e)
	}
}

// Published returns the total number of events published.
func (b *Bus) Published() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published
}

// Subscribe attaches a new subscription. The retained history is preloaded
// into its buffer so a late subscriber can replay the recent backlog through
// the normal receive path.
func (b *Bus) Subscribe() (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	if len(b.subs) >= b.cfg.MaxSubscribers {
		return nil, ErrTooManySubscribers
	}

	s := &Subscription{
		id:  uuid.NewString(),
		bus: b,
	}
	for _, e := range b.history {
		s.enqueueLocked(e)
	}
	b.subs[s.id] = s
	return s, nil
}

// Close shuts down the bus. Subscribers may drain what is already buffered,
// after which Receive reports ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = map[string]*Subscription{}
}

// Subscription is a single consumer attachment to the bus.
type Subscription struct {
	id    string
	bus   *Bus
	buf   []trigger.Event
	stats SubscriberStats
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string { return s.id }

// enqueueLocked appends to the buffer, discarding the oldest entry when the
// buffer is full. Caller holds the bus lock.
func (s *Subscription) enqueueLocked(e trigger.Event) {
	if len(s.buf) >= s.bus.cfg.BufferSize {
		s.buf = s.buf[1:]
		s.stats.Dropped++
	}
	s.buf = append(s.buf, e)
	s.stats.Delivered++
}

// Receive returns the next buffered event without blocking. ok=false with a
// nil error means no event is currently available; callers poll to exhaustion
// before each matching pass. Once the bus is closed and the buffer drained,
// Receive returns ErrBusClosed.
func (s *Subscription) Receive() (trigger.Event, bool, error) {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if len(s.buf) > 0 {
		e := s.buf[0]
		s.buf = s.buf[1:]
		return e, true, nil
	}
	if s.bus.closed {
		return trigger.Event{}, false, ErrBusClosed
	}
	return trigger.Event{}, false, nil
}

// Stats returns a copy of the subscription's delivery counters.
func (s *Subscription) Stats() SubscriberStats {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.stats
}

// Unsubscribe detaches the subscription from the bus.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
}
