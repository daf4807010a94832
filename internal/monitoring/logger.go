// Package monitoring provides the pipeline's replaceable diagnostic logger.
// All reconciliation reporting (synced records, unmatched frames, evictions)
// flows through it so tests can capture or mute output.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Infof logs an informational message with a level tag.
func Infof(format string, v ...interface{}) {
	Logf("INFO: "+format, v...)
}

// Warnf logs a warning with a level tag. Warnings are non-fatal conditions the
// operator should see: evicted triggers, unmatched frames, malformed packets.
func Warnf(format string, v ...interface{}) {
	Logf("WARNING: "+format, v...)
}
