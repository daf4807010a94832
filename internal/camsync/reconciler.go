package camsync

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/camsync.report/internal/capture"
	"github.com/banshee-data/camsync.report/internal/timeutil"
	"github.com/banshee-data/camsync.report/internal/trigger"
)

// TriggerReceiver is the bus collaborator's non-blocking receive primitive.
// ok=false with a nil error means no event is currently available; callers
// poll until then to fully drain. A non-nil error is a transport failure and
// fatal to the loop.
type TriggerReceiver interface {
	Receive() (trigger.Event, bool, error)
}

// State identifies the reconciler's position in its lifecycle.
type State int

const (
	// StateReplay is the initial state: the retained backlog has not been
	// drained yet.
	StateReplay State = iota

	// StateLive is the steady state entered after the one-time replay.
	StateLive
)

// Counters are the reconciler's cumulative outcome counts.
type Counters struct {
	Replayed  int
	Frames    uint64
	Matched   uint64
	Unmatched uint64
	Evicted   uint64
	Cleaned   uint64
}

// Config assembles a Reconciler.
type Config struct {
	Triggers TriggerReceiver
	Source   capture.Source // required for Run; unused by the callback variant
	Sink     Sink
	Clock    timeutil.Clock

	MaxPending    int           // pending queue bound (default trigger.MaxPending)
	ToleranceMs   float64       // matching tolerance (default 500)
	FuturePenalty float64       // future-trigger score multiplier (default 2)
	IdlePoll      time.Duration // pull-loop idle delay (default 10ms)
	StatsInterval time.Duration // latency report period (default 30s)
}

// Reconciler owns the pending-trigger queue and drives ingest and match. It
// is single-threaded by design: one goroutine calls Run, or an external
// capture loop calls OnFrame, never both.
type Reconciler struct {
	triggers TriggerReceiver
	source   capture.Source
	sink     Sink
	clock    timeutil.Clock
	queue    *trigger.PendingQueue
	matcher  Matcher

	idlePoll      time.Duration
	statsInterval time.Duration
	lastStatsAt   time.Time

	state    State
	counters Counters
	latency  LatencyStats
}

// NewReconciler wires a reconciler from the given collaborators.
func NewReconciler(cfg Config) *Reconciler {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Sink == nil {
		cfg.Sink = LogSink{}
	}
	if cfg.IdlePoll <= 0 {
		cfg.IdlePoll = 10 * time.Millisecond
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = 30 * time.Second
	}
	r := &Reconciler{
		triggers:      cfg.Triggers,
		source:        cfg.Source,
		sink:          cfg.Sink,
		clock:         cfg.Clock,
		queue:         trigger.NewPendingQueue(cfg.MaxPending),
		matcher:       NewMatcher(cfg.ToleranceMs, cfg.FuturePenalty),
		idlePoll:      cfg.IdlePoll,
		statsInterval: cfg.StatsInterval,
		state:         StateReplay,
	}
	r.lastStatsAt = r.clock.Now()
	return r
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State { return r.state }

// Counters returns a copy of the cumulative outcome counts.
func (r *Reconciler) Counters() Counters { return r.counters }

// Pending returns the number of triggers awaiting a frame match.
func (r *Reconciler) Pending() int { return r.queue.Len() }

// drainTriggers polls the bus to exhaustion, pushing every available event
// into the pending queue. Evictions are reported and never abort ingestion.
func (r *Reconciler) drainTriggers() (int, error) {
	drained := 0
	for {
		e, ok, err := r.triggers.Receive()
		if err != nil {
			return drained, fmt.Errorf("trigger receive: %w", err)
		}
		if !ok {
			return drained, nil
		}
		drained++
		if old, evicted := r.queue.Push(e); evicted {
			r.counters.Evicted++
			r.sink.Evicted(old.ID)
		}
	}
}

// ReplayBacklog performs the one-time startup drain of the bus's retained
// history. Replayed events take the normal ingestion path and are matched
// exactly like live ones. Calling it again after the transition to Live is a
// no-op.
func (r *Reconciler) ReplayBacklog() (int, error) {
	if r.state != StateReplay {
		return 0, nil
	}
	count, err := r.drainTriggers()
	if err != nil {
		return count, err
	}
	r.counters.Replayed = count
	r.state = StateLive
	r.sink.Replayed(count)
	return count, nil
}

// handleFrame runs one match pass for a frame arrival timestamp. The caller
// must have drained the bus immediately beforehand.
func (r *Reconciler) handleFrame(frameTsNs uint64) {
	r.counters.Frames++

	res, ok := r.matcher.Match(frameTsNs, r.queue)
	if !ok {
		r.counters.Unmatched++
		r.sink.Unmatched(frameTsNs)
		return
	}

	r.counters.Matched++
	r.counters.Cleaned += uint64(res.CleanedCount)
	for _, id := range res.CleanedIDs {
		r.sink.Cleaned(id)
	}
	r.latency.Add(res.TotalLatencyMs, res.ScoreMs)
	r.sink.Synced(res)

	if now := r.clock.Now(); now.Sub(r.lastStatsAt) >= r.statsInterval {
		r.lastStatsAt = now
		r.sink.LatencyReport(r.latency.Snapshot())
	}
}

// OnFrame is the callback-driven deployment entry point: an external capture
// loop invokes it once per delivered frame. It runs the same ingest-then-
// match sequence as Run, so both variants produce identical results for
// identical event and frame sequences.
func (r *Reconciler) OnFrame(frameTsNs uint64) error {
	if _, err := r.ReplayBacklog(); err != nil {
		return err
	}
	if _, err := r.drainTriggers(); err != nil {
		return err
	}
	r.handleFrame(frameTsNs)
	return nil
}

// Run is the pull-variant loop: replay the backlog once, then alternate
// ingestion and matching until the context is cancelled or a collaborator
// fails. The capture source call is the only blocking operation; ingestion
// reruns right after it returns so no frame is scored against a stale queue
// snapshot.
func (r *Reconciler) Run(ctx context.Context) error {
	if _, err := r.ReplayBacklog(); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := r.drainTriggers(); err != nil {
			return err
		}

		if r.queue.Len() == 0 {
			r.clock.Sleep(r.idlePoll)
			continue
		}

		frame, err := r.source.NextFrame(ctx)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}

		if _, err := r.drainTriggers(); err != nil {
			return err
		}
		r.handleFrame(frame.ArrivalTimestampNs)

		r.clock.Sleep(r.idlePoll)
	}
}
