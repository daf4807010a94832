package bus

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/banshee-data/camsync.report/internal/monitoring"
	"github.com/banshee-data/camsync.report/internal/trigger"
)

// DefaultPort is the UDP port trigger datagrams are exchanged on.
const DefaultPort = 9201

// Sender publishes trigger events as UDP datagrams to a listener address.
// It is the publisher-process half of the bus transport.
type Sender struct {
	conn net.Conn
	sent uint64
}

// NewSender dials the listener address (e.g. "127.0.0.1:9201").
func NewSender(target string) (*Sender, error) {
	conn, err := net.Dial("udp", target)
	if err != nil {
		return nil, fmt.Errorf("failed to dial trigger listener: %w", err)
	}
	return &Sender{conn: conn}, nil
}

// Publish encodes and sends one trigger event.
func (s *Sender) Publish(e trigger.Event) error {
	if _, err := s.conn.Write(e.Marshal()); err != nil {
		return fmt.Errorf("failed to send trigger id=%d: %w", e.ID, err)
	}
	s.sent++
	return nil
}

// Sent returns the number of events published.
func (s *Sender) Sent() uint64 { return s.sent }

// Close closes the underlying connection.
func (s *Sender) Close() error { return s.conn.Close() }

// ListenerConfig configures the subscriber-process transport leg.
type ListenerConfig struct {
	Address string        // UDP listen address, e.g. ":9201"
	RcvBuf  int           // OS receive buffer size in bytes (0 = leave default)
	Factory SocketFactory // socket factory; nil uses the real network
}

// Listener receives trigger datagrams and publishes them onto a local Bus.
// Malformed datagrams are counted and skipped; socket errors other than read
// timeouts are fatal and returned to the caller.
type Listener struct {
	cfg       ListenerConfig
	bus       *Bus
	received  atomic.Uint64
	malformed atomic.Uint64
}

// NewListener creates a listener feeding the given bus.
func NewListener(cfg ListenerConfig, b *Bus) *Listener {
	if cfg.Factory == nil {
		cfg.Factory = RealSocketFactory{}
	}
	return &Listener{cfg: cfg, bus: b}
}

// Received returns the count of well-formed trigger datagrams.
func (l *Listener) Received() uint64 { return l.received.Load() }

// Malformed returns the count of datagrams that failed to decode.
func (l *Listener) Malformed() uint64 { return l.malformed.Load() }

// Run listens until the context is cancelled or a fatal socket error occurs.
// Short read deadlines keep the loop responsive to cancellation.
func (l *Listener) Run(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to resolve trigger listen address: %w", err)
	}
	sock, err := l.cfg.Factory.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for triggers: %w", err)
	}
	defer sock.Close()

	if l.cfg.RcvBuf > 0 {
		if err := sock.SetReadBuffer(l.cfg.RcvBuf); err != nil {
			monitoring.Warnf("failed to set receive buffer to %d: %v", l.cfg.RcvBuf, err)
		}
	}
	monitoring.Infof("trigger listener started on %s", l.cfg.Address)

	buf := make([]byte, 256) // trigger datagrams are 24 bytes
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		sock.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, _, err := sock.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("trigger socket read: %w", err)
		}

		e, err := trigger.Unmarshal(buf[:n])
		if err != nil {
			l.malformed.Add(1)
			monitoring.Warnf("discarding malformed trigger datagram: %v", err)
			continue
		}
		l.received.Add(1)
		l.bus.Publish(e)
	}
}
