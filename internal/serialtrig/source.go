package serialtrig

import (
	"bufio"
	"context"
	"sync/atomic"

	"github.com/banshee-data/camsync.report/internal/monitoring"
)

// Source turns a trigger board's serial line stream into decoded pulses.
type Source struct {
	port Porter

	pulses    atomic.Uint64
	malformed atomic.Uint64
}

// NewSource wraps an open port.
func NewSource(port Porter) *Source {
	return &Source{port: port}
}

// Pulses returns the number of well-formed pulses decoded so far.
func (s *Source) Pulses() uint64 { return s.pulses.Load() }

// Malformed returns the number of lines that failed to parse.
func (s *Source) Malformed() uint64 { return s.malformed.Load() }

// Run reads lines from the port and invokes handle for each decoded pulse.
// Malformed lines are counted and skipped. Run returns when the context is
// cancelled, when the port hits EOF (nil), or when the scanner fails or the
// handler returns an error.
func (s *Source) Run(ctx context.Context, handle func(Pulse) error) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so the outer loop can
	// observe context cancellation while a read is in flight.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				return scan.Err()
			}
			if line == "" {
				continue
			}
			pulse, err := ParseLine(line)
			if err != nil {
				s.malformed.Add(1)
				monitoring.Warnf("serialtrig: %v", err)
				continue
			}
			s.pulses.Add(1)
			if err := handle(pulse); err != nil {
				return err
			}
		}
	}
}

// Close closes the underlying port, which also unblocks a running scanner.
func (s *Source) Close() error {
	return s.port.Close()
}
