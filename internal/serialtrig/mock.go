package serialtrig

import (
	"bytes"
	"errors"
	"sync"
)

// TestablePort implements Porter with configurable behaviour for testing.
type TestablePort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls.
	ReadBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set.
	ReadError error

	// Closed indicates whether Close was called.
	Closed bool

	// BlockReads causes Read to block until data is added or Close is
	// called, mimicking a quiet serial line.
	BlockReads bool

	readCond *sync.Cond
}

// NewTestablePort creates a TestablePort with empty buffers.
func NewTestablePort() *TestablePort {
	p := &TestablePort{ReadBuffer: bytes.NewBuffer(nil)}
	p.readCond = sync.NewCond(&p.mu)
	return p
}

// Read reads from the read buffer, optionally blocking until data arrives.
func (p *TestablePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Closed {
		return 0, errors.New("serial port closed")
	}
	if p.ReadError != nil {
		err := p.ReadError
		p.ReadError = nil
		return 0, err
	}

	if p.BlockReads && p.ReadBuffer.Len() == 0 {
		for !p.Closed && p.ReadBuffer.Len() == 0 {
			p.readCond.Wait()
		}
		if p.Closed {
			return 0, errors.New("serial port closed")
		}
	}

	return p.ReadBuffer.Read(b)
}

// Close marks the port as closed and wakes any blocked readers.
func (p *TestablePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Closed = true
	p.readCond.Broadcast()
	return nil
}

// AddReadData appends data to be returned by subsequent Read calls.
func (p *TestablePort) AddReadData(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadBuffer.Write(data)
	p.readCond.Signal()
}
