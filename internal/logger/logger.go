// Package logger provides leveled logging for rostersync.
//
// Output goes to stderr. Debug messages are only emitted when verbose
// mode is enabled via the --verbose flag.
package logger

import (
	"log"
	"os"
	"sync/atomic"
)

var (
	verbose atomic.Bool

	stdLogger = log.New(os.Stderr, "", log.LstdFlags)
)

// SetVerbose enables or disables debug output.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// Verbose reports whether debug output is enabled.
func Verbose() bool {
	return verbose.Load()
}

// Debug logs a message only when verbose mode is enabled.
func Debug(format string, args ...any) {
	if verbose.Load() {
		stdLogger.Printf("DEBUG "+format, args...)
	}
}

// Info logs a message that is always shown.
func Info(format string, args ...any) {
	stdLogger.Printf(format, args...)
}

// Warn logs a warning that is always shown.
func Warn(format string, args ...any) {
	stdLogger.Printf("WARN "+format, args...)
}

// Error logs an error that is always shown.
func Error(format string, args ...any) {
	stdLogger.Printf("ERROR "+format, args...)
}
