// Command frame-capture runs the callback-driven deployment shape: a capture
// loop it owns pulls frames, thins them with the FPS skip filter, and hands
// each surviving frame to the reconciler via OnFrame.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
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
	udpListen    = flag.String("udp-listen", ":9201", "UDP address to receive trigger datagrams on")
	inputFPS     = flag.Uint("input-fps", 30, "frame rate the capture source delivers")
	outputFPS    = flag.Uint("output-fps", 30, "frame rate to process after the skip filter")
	captureDelay = flag.Duration("capture-delay", 150*time.Millisecond, "simulated frame delivery delay")
	tuningPath   = flag.String("tuning", "", "path to a tuning config JSON file")
)

func main() {
	flag.Parse()
	log.Printf("frame-capture %s", version.String())

	tuning := &config.TuningConfig{}
	if *tuningPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*tuningPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
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
	skip := capture.NewSkipFilter(uint32(*inputFPS), uint32(*outputFPS))
	log.Printf("skip filter: processing 1 of every %d frames", skip.Ratio())

	reconciler := camsync.NewReconciler(camsync.Config{
		Triggers:      sub,
		Clock:         clock,
		MaxPending:    tuning.GetMaxPending(),
		ToleranceMs:   tuning.GetToleranceMs(),
		FuturePenalty: tuning.GetFuturePenalty(),
		StatsInterval: tuning.GetStatsInterval(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var failed bool
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := listener.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("trigger listener failed: %v", err)
			cancel()
		}
		log.Print("trigger listener terminated")
	}()

	// Capture loop: every frame is pulled so the source keeps pace, but only
	// frames the skip filter passes reach the reconciler.
	for {
		frame, err := source.NextFrame(runCtx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("capture failed: %v", err)
				failed = true
			}
			break
		}
		if !skip.ShouldProcess() {
			continue
		}
		if err := reconciler.OnFrame(frame.ArrivalTimestampNs); err != nil {
			log.Printf("frame handling failed: %v", err)
			failed = true
			break
		}
	}
	cancel()
	wg.Wait()

	c := reconciler.Counters()
	log.Printf("shutdown: replayed=%d frames=%d matched=%d unmatched=%d evicted=%d cleaned=%d", c.Replayed, c.Frames, c.Matched, c.Unmatched, c.Evicted, c.Cleaned)

	if failed {
		os.Exit(1)
	}
	log.Print("graceful shutdown complete")
}
