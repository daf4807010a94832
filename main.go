// Command camsyncd runs the camera-side reconciliation daemon: it listens
// for trigger datagrams over UDP, feeds them onto the local trigger bus, and
// drives the pull-variant reconciliation loop against a capture source.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/banshee-data/camsync.report/internal/bus"
	"github.com/banshee-data/camsync.report/internal/camsync"
	"github.com/banshee-data/camsync.report/internal/capture"
	"github.com/banshee-data/camsync.report/internal/config"
	"github.com/banshee-data/camsync.report/internal/timeutil"
	"github.com/banshee-data/camsync.report/internal/version"
)

var (
	udpListen     = flag.String("udp-listen", ":9201", "UDP address to receive trigger datagrams on")
	captureDelay  = flag.Duration("capture-delay", 150*time.Millisecond, "simulated frame delivery delay")
	tuningPath    = flag.String("tuning", "", "path to a tuning config JSON file")
	statsInterval = flag.Duration("stats-interval", 0, "latency report interval (overrides the tuning config)")
)

func main() {
	flag.Parse()
	log.Printf("camsyncd %s", version.String())

	tuning := &config.TuningConfig{}
	if *tuningPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	interval := tuning.GetStatsInterval()
	if *statsInterval > 0 {
		interval = *statsInterval
	}

	b := bus.New(bus.Config{
		HistorySize:    tuning.GetHistorySize(),
		BufferSize:     tuning.GetSubscriberBuffer(),
		MaxSubscribers: tuning.GetMaxSubscribers(),
	})
	defer b.Close()

	listener := bus.NewListener(bus.ListenerConfig{Address: *udpListen}, b)

	sub, err := b.Subscribe()
	if err != nil {
		log.Fatalf("failed to subscribe to trigger bus: %v", err)
	}
	defer sub.Unsubscribe()

	clock := timeutil.RealClock{}
	source := capture.NewSimulatedSource(clock, *captureDelay)

	reconciler := camsync.NewReconciler(camsync.Config{
		Triggers:      sub,
		Source:        source,
		Clock:         clock,
		MaxPending:    tuning.GetMaxPending(),
		ToleranceMs:   tuning.GetToleranceMs(),
		FuturePenalty: tuning.GetFuturePenalty(),
		IdlePoll:      tuning.GetIdlePoll(),
		StatsInterval: interval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Either routine failing fatally takes the other down with it.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var failed atomic.Bool
	var wg sync.WaitGroup

	// UDP transport leg: receive trigger datagrams and publish them on the bus.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := listener.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("trigger listener failed: %v", err)
			failed.Store(true)
			cancel()
		}
		log.Print("trigger listener terminated")
	}()

	// Reconciliation loop: replay the retained backlog, then alternate trigger
	// ingestion and frame matching.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := reconciler.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("reconciliation loop failed: %v", err)
			failed.Store(true)
			cancel()
		}
		log.Print("reconciliation loop terminated")
	}()

	wg.Wait()

	c := reconciler.Counters()
	stats := sub.Stats()
	log.Printf("shutdown: replayed=%d frames=%d matched=%d unmatched=%d evicted=%d cleaned=%d", c.Replayed, c.Frames, c.Matched, c.Unmatched, c.Evicted, c.Cleaned)
	log.Printf("transport: received=%d malformed=%d delivered=%d dropped=%d", listener.Received(), listener.Malformed(), stats.Delivered, stats.Dropped)

	if failed.Load() {
		os.Exit(1)
	}
	log.Print("graceful shutdown complete")
}
