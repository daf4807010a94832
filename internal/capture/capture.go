// Package capture abstracts the frame-acquisition subsystem. The
// reconciliation loop only needs the next frame and the wall-clock instant it
// arrived; the payload is opaque. The simulated source models the variable
// delivery delay of a real capture stack so the pipeline can run and be
// tested without camera hardware.
package capture

import (
	"context"
	"time"

	"github.com/banshee-data/camsync.report/internal/timeutil"
)

// Frame is one captured image as delivered by the acquisition subsystem.
type Frame struct {
	// Payload is the frame data. Opaque to the synchronization pipeline.
	Payload []byte

	// ArrivalTimestampNs is when the capture subsystem handed the frame
	// over, nanoseconds since the Unix epoch. This lags the true exposure
	// instant by the capture delay.
	ArrivalTimestampNs uint64
}

// Source delivers frames. NextFrame may block; it is the only blocking call
// the reconciliation loop makes.
type Source interface {
	NextFrame(ctx context.Context) (Frame, error)
}

// SimulatedSource produces synthetic frames after a fixed delivery delay.
// With a mock clock the delay is applied to simulated time only, keeping
// tests deterministic and fast.
type SimulatedSource struct {
	clock timeutil.Clock
	delay time.Duration
	seq   uint64
}

// NewSimulatedSource creates a source that delivers one frame per call after
// the given delay.
func NewSimulatedSource(clock timeutil.Clock, delay time.Duration) *SimulatedSource {
	return &SimulatedSource{clock: clock, delay: delay}
}

// NextFrame waits out the simulated capture delay, then returns a frame
// stamped with the clock's current time.
func (s *SimulatedSource) NextFrame(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	s.clock.Sleep(s.delay)
	s.seq++
	return Frame{
		Payload:            []byte{byte(s.seq)},
		ArrivalTimestampNs: s.clock.NowNs(),
	}, nil
}
