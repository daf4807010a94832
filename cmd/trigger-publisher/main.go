// Command trigger-publisher emits hardware trigger events as UDP datagrams.
// Without a serial port it synthesizes triggers at a fixed cadence; with one
// it relays pulses from a serial-attached trigger board. Published triggers
// can optionally be recorded to a local sqlite log for diagnostics.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/camsync.report/internal/bus"
	"github.com/banshee-data/camsync.report/internal/serialtrig"
	"github.com/banshee-data/camsync.report/internal/timeutil"
	"github.com/banshee-data/camsync.report/internal/trigger"
	"github.com/banshee-data/camsync.report/internal/triggerlog"
)

var (
	interval   = flag.Duration("interval", 33*time.Millisecond, "synthetic trigger cadence")
	udpTarget  = flag.String("udp-target", "127.0.0.1:9201", "UDP address of the trigger listener")
	serialPath = flag.String("serial", "", "serial port of a trigger board (empty = synthesize triggers)")
	recordPath = flag.String("record", "", "sqlite file to log published triggers to (optional)")
	count      = flag.Uint64("count", 0, "stop after this many triggers (0 = run until interrupted)")
)

func main() {
	flag.Parse()

	sender, err := bus.NewSender(*udpTarget)
	if err != nil {
		log.Fatalf("failed to connect to trigger listener: %v", err)
	}
	defer sender.Close()

	var record *triggerlog.DB
	if *recordPath != "" {
		record, err = triggerlog.NewDB(*recordPath)
		if err != nil {
			log.Fatalf("failed to open trigger log: %v", err)
		}
		defer record.Close()
		log.Printf("recording triggers to %s (session %s)", *recordPath, record.SessionID())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := timeutil.RealClock{}

	publish := func(id, hwTsNs uint64) error {
		e := trigger.Event{
			ID:                  id,
			HardwareTimestampNs: hwTsNs,
			PublishTimestampNs:  clock.NowNs(),
		}
		if err := sender.Publish(e); err != nil {
			return err
		}
		if record != nil {
			if err := record.RecordTrigger(e.ID, e.HardwareTimestampNs, e.PublishTimestampNs); err != nil {
				log.Printf("failed to record trigger id=%d: %v", e.ID, err)
			}
		}
		log.Printf("published trigger id=%d hw_ts=%d", e.ID, e.HardwareTimestampNs)
		return nil
	}

	if *serialPath != "" {
		err = relaySerial(ctx, *serialPath, publish)
	} else {
		err = synthesize(ctx, clock, *interval, *count, publish)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("publisher failed: %v", err)
	}

	log.Printf("done: published %d triggers", sender.Sent())
}

// synthesize emits triggers at the configured cadence, stamping each with the
// current time as its hardware timestamp.
func synthesize(ctx context.Context, clock timeutil.Clock, interval time.Duration, limit uint64, publish func(id, hwTsNs uint64) error) error {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	var id uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			id++
			if err := publish(id, clock.NowNs()); err != nil {
				return err
			}
			if limit > 0 && id >= limit {
				return nil
			}
		}
	}
}

// relaySerial forwards pulses from a trigger board, preserving the board's
// sequence numbers and hardware timestamps.
func relaySerial(ctx context.Context, path string, publish func(id, hwTsNs uint64) error) error {
	port, err := serialtrig.Open(path, serialtrig.PortOptions{})
	if err != nil {
		return err
	}
	src := serialtrig.NewSource(port)
	defer src.Close()

	return src.Run(ctx, func(p serialtrig.Pulse) error {
		return publish(p.ID, p.HardwareTimestampNs)
	})
}
