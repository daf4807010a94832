package capture

import (
	"context"
	"testing"
	"time"

	"github.com/banshee-data/camsync.report/internal/timeutil"
)

func TestSimulatedSourceStampsArrivalAfterDelay(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 1_000_000_000))
	src := NewSimulatedSource(clock, 150*time.Millisecond)

	frame, err := src.NextFrame(context.Background())
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if frame.ArrivalTimestampNs != 1_150_000_000 {
		t.Fatalf("expected arrival 1150000000, got %d", frame.ArrivalTimestampNs)
	}
	if len(frame.Payload) == 0 {
		t.Fatal("expected non-empty payload")
	}

	sleeps := clock.Sleeps()
	if len(sleeps) != 1 || sleeps[0] != 150*time.Millisecond {
		t.Fatalf("unexpected sleeps %v", sleeps)
	}
}

func TestSimulatedSourceHonoursCancellation(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	src := NewSimulatedSource(clock, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.NextFrame(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestSkipFilterRatios(t *testing.T) {
	cases := []struct {
		in, out, want uint32
	}{
		{30, 30, 1},
		{30, 60, 1},
		{30, 15, 2},
		{30, 10, 3},
		{30, 0, 1},
	}
	for _, tc := range cases {
		if got := NewSkipFilter(tc.in, tc.out).Ratio(); got != tc.want {
			t.Errorf("NewSkipFilter(%d, %d).Ratio() = %d, want %d", tc.in, tc.out, got, tc.want)
		}
	}
}

func TestSkipFilterProcessesEveryNth(t *testing.T) {
	f := NewSkipFilter(30, 10) // ratio 3
	var processed int
	for i := 0; i < 9; i++ {
		if f.ShouldProcess() {
			processed++
		}
	}
	if processed != 3 {
		t.Fatalf("expected 3 of 9 frames processed, got %d", processed)
	}
	if f.Count() != 9 {
		t.Fatalf("expected count 9, got %d", f.Count())
	}
}
