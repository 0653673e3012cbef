package log

// Nop is a Logger that discards everything. Tests and short-lived CLI
// invocations that never configured a real logger use it instead of a
// nil check at every call site.
type Nop struct{}

func (Nop) Info(args ...any)                 {}
func (Nop) Infof(format string, args ...any)  {}
func (Nop) Warn(args ...any)                 {}
func (Nop) Warnf(format string, args ...any)  {}
func (Nop) Error(args ...any)                {}
func (Nop) Errorf(format string, args ...any) {}
func (Nop) Debug(args ...any)                {}
func (Nop) Debugf(format string, args ...any) {}
func (Nop) WithFields(fields ...any) Logger  { return Nop{} }
func (Nop) Sync() error                      { return nil }
