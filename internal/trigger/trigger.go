// Package trigger defines the hardware trigger event record shared by the
// publisher and the reconciliation pipeline, the wire codec used on the
// trigger bus, and the bounded pending-trigger queue.
package trigger

import (
	"encoding/binary"
	"fmt"
)

// Event is an immutable hardware trigger record. IDs are strictly increasing
// per publisher session; both timestamps are nanoseconds since the Unix epoch.
// HardwareTimestampNs is the exposure instant, PublishTimestampNs is when the
// event was handed to the bus.
type Event struct {
	ID                  uint64
	HardwareTimestampNs uint64
	PublishTimestampNs  uint64
}

// PacketSize is the fixed length of an encoded trigger datagram.
const PacketSize = 24

// Marshal encodes the event as a fixed-layout little-endian datagram payload.
func (e Event) Marshal() []byte {
	buf := make([]byte, PacketSize)
	binary.LittleEndian.PutUint64(buf[0:8], e.ID)
	binary.LittleEndian.PutUint64(buf[8:16], e.HardwareTimestampNs)
	binary.LittleEndian.PutUint64(buf[16:24], e.PublishTimestampNs)
	return buf
}

// Unmarshal decodes a trigger datagram payload produced by Marshal.
func Unmarshal(data []byte) (Event, error) {
	if len(data) != PacketSize {
		return Event{}, fmt.Errorf("trigger packet must be %d bytes, got %d", PacketSize, len(data))
	}
	return Event{
		ID:                  binary.LittleEndian.Uint64(data[0:8]),
		HardwareTimestampNs: binary.LittleEndian.Uint64(data[8:16]),
		PublishTimestampNs:  binary.LittleEndian.Uint64(data[16:24]),
	}, nil
}

// IPCDelayNs returns the bus handoff delay reported by the publisher. Returns
// zero if the publisher's clock produced a publish timestamp before the
// hardware timestamp.
func (e Event) IPCDelayNs() uint64 {
	if e.PublishTimestampNs < e.HardwareTimestampNs {
		return 0
	}
	return e.PublishTimestampNs - e.HardwareTimestampNs
}
