// Package logger gates the standard library log behind a coarse level.
// The level is set once at startup from the LOG_LEVEL environment value;
// per-operation debug messages are suppressed unless level is "debug".
package logger

import (
	"log"
	"strings"
	"sync/atomic"
)

// Levels, most verbose first.
const (
	LevelDebug int32 = iota
	LevelInfo
	LevelError
)

var level atomic.Int32

func init() {
	level.Store(LevelInfo)
}

// SetLevel sets the gate from a LOG_LEVEL string: "debug", "info", or
// "error". Unknown values select info.
func SetLevel(s string) {
	switch strings.ToLower(s) {
	case "debug":
		level.Store(LevelDebug)
	case "error":
		level.Store(LevelError)
	default:
		level.Store(LevelInfo)
	}
}

// Debugf logs per-operation detail. Emitted only at the debug level.
func Debugf(format string, args ...any) {
	if level.Load() <= LevelDebug {
		log.Printf(format, args...)
	}
}

// Infof logs lifecycle events: startup, shutdown, backend selection.
func Infof(format string, args ...any) {
	if level.Load() <= LevelInfo {
		log.Printf(format, args...)
	}
}

// Errorf logs failures. Emitted at every level.
func Errorf(format string, args ...any) {
	log.Printf(format, args...)
}
