package log

import "context"

type nopLogger struct{}

// Nop returns a logger that discards everything. Safe default for tests
// and for FromContext when no logger was attached.
func Nop() Logger { return nopLogger{} }

func (nopLogger) With(...any) Logger                           { return nopLogger{} }
func (nopLogger) Debug(context.Context, string, ...any)        {}
func (nopLogger) Info(context.Context, string, ...any)         {}
func (nopLogger) Warn(context.Context, string, ...any)         {}
func (nopLogger) Error(context.Context, error, string, ...any) {}
func (nopLogger) Sync() error                                  { return nil }
