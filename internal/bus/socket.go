package bus

import (
	"net"
	"time"
)

// PacketSocket defines an interface for UDP socket operations. This
// abstraction enables unit testing the listener without real network
// connections.
type PacketSocket interface {
	// ReadFromUDP reads a UDP packet from the socket.
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)

	// SetReadBuffer sets the size of the operating system's receive buffer.
	SetReadBuffer(bytes int) error

	// SetReadDeadline sets the deadline for future Read calls.
	SetReadDeadline(t time.Time) error

	// Close closes the socket.
	Close() error

	// LocalAddr returns the local network address.
	LocalAddr() net.Addr
}

// SocketFactory creates packet sockets; injected so tests can supply mocks.
type SocketFactory interface {
	ListenUDP(network string, laddr *net.UDPAddr) (PacketSocket, error)
}

// RealSocketFactory implements SocketFactory using net.ListenUDP.
type RealSocketFactory struct{}

// ListenUDP creates a new UDP socket.
func (RealSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (PacketSocket, error) {
	conn, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// MockPacket represents a datagram for mock testing.
type MockPacket struct {
	Data []byte
	Addr *net.UDPAddr
}

// MockSocket implements PacketSocket for testing. Reads return the queued
// packets in order and then simulate timeouts, matching the deadline-driven
// poll loop in the listener.
type MockSocket struct {
	Packets   []MockPacket
	ReadIndex int
	Closed    bool
	ReadError error // returned once on the next read if set
}

// NewMockSocket creates a MockSocket with the given packets queued.
func NewMockSocket(packets []MockPacket) *MockSocket {
	return &MockSocket{Packets: packets}
}

// ReadFromUDP returns the next queued packet, a one-shot error, or a timeout.
func (m *MockSocket) ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error) {
	if m.Closed {
		return 0, nil, net.ErrClosed
	}
	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		return 0, nil, err
	}
	if m.ReadIndex >= len(m.Packets) {
		return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: &timeoutError{}}
	}
	pkt := m.Packets[m.ReadIndex]
	m.ReadIndex++
	n = copy(b, pkt.Data)
	return n, pkt.Addr, nil
}

// SetReadBuffer records nothing; mock sockets have no OS buffer.
func (m *MockSocket) SetReadBuffer(bytes int) error { return nil }

// SetReadDeadline is a no-op for the mock.
func (m *MockSocket) SetReadDeadline(t time.Time) error { return nil }

// Close marks the socket as closed.
func (m *MockSocket) Close() error {
	m.Closed = true
	return nil
}

// LocalAddr returns a fixed loopback address.
func (m *MockSocket) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: DefaultPort}
}

// MockSocketFactory implements SocketFactory for testing.
type MockSocketFactory struct {
	Socket *MockSocket
	Err    error
}

// ListenUDP returns the configured mock socket.
func (f MockSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (PacketSocket, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Socket, nil
}

// timeoutError implements net.Error for timeout simulation.
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
