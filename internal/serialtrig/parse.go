package serialtrig

import (
	"fmt"
	"strconv"
	"strings"
)

// Pulse is one decoded trigger line from the board.
type Pulse struct {
	ID                  uint64
	HardwareTimestampNs uint64
}

// ParseLine decodes a trigger line of the form "T,<id>,<hw_ts_ns>". Leading
// and trailing whitespace is tolerated; anything else is an error.
func ParseLine(line string) (Pulse, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 3 {
		return Pulse{}, fmt.Errorf("malformed trigger line %q: expected 3 fields, got %d", line, len(fields))
	}
	if fields[0] != "T" {
		return Pulse{}, fmt.Errorf("malformed trigger line %q: unknown record type %q", line, fields[0])
	}

	id, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Pulse{}, fmt.Errorf("malformed trigger line %q: bad id: %w", line, err)
	}
	ts, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return Pulse{}, fmt.Errorf("malformed trigger line %q: bad timestamp: %w", line, err)
	}

	return Pulse{ID: id, HardwareTimestampNs: ts}, nil
}
