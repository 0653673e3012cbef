package log

import (
	"go.uber.org/zap"
)

// ZapLogger is the production Logger backed by go.uber.org/zap's
// SugaredLogger.
type ZapLogger struct {
	s *zap.SugaredLogger
}

// NewZap builds a ZapLogger at the given level ("debug", "info", "warn",
// "error"; unrecognized values fall back to info). Output is zap's
// production setup: a single JSON stream on stderr.
func NewZap(level string) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()

	lvl, err := zap.ParseAtomicLevel(level)
	if err == nil {
		cfg.Level = lvl
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &ZapLogger{s: l.Sugar()}, nil
}

func (l *ZapLogger) Info(args ...any)                  { l.s.Info(args...) }
func (l *ZapLogger) Infof(format string, args ...any)   { l.s.Infof(format, args...) }
func (l *ZapLogger) Warn(args ...any)                  { l.s.Warn(args...) }
func (l *ZapLogger) Warnf(format string, args ...any)   { l.s.Warnf(format, args...) }
func (l *ZapLogger) Error(args ...any)                 { l.s.Error(args...) }
func (l *ZapLogger) Errorf(format string, args ...any)  { l.s.Errorf(format, args...) }
func (l *ZapLogger) Debug(args ...any)                 { l.s.Debug(args...) }
func (l *ZapLogger) Debugf(format string, args ...any)  { l.s.Debugf(format, args...) }

func (l *ZapLogger) WithFields(fields ...any) Logger {
	return &ZapLogger{s: l.s.With(fields...)}
}

func (l *ZapLogger) Sync() error { return l.s.Sync() }
