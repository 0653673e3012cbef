// Package log defines the structured-logging interface used across the
// config server and its zap-backed implementation, adapted from the
// logging wrapper pattern the ambient stack follows throughout: depend on
// a small interface, not a concrete logger, so tests can swap in a no-op.
package log

// Logger is the common interface every component logs through.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	// WithFields returns a derived logger carrying structured context;
	// the receiver is left unchanged.
	WithFields(fields ...any) Logger

	Sync() error
}
