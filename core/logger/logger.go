// Package logger defines the logging contract the scheduling core writes to.
// Implementations live under infra; core packages only ever see this
// interface, so tests can pass a no-op.
package logger

// Logger is the leveled logging interface used across the core.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a debug message with structured fields attached.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StructuredLogger is the structured-fields subset of Logger, for callers
// that only need Debugw.
type StructuredLogger interface {
	Debugw(msg string, fields map[string]any)
}
