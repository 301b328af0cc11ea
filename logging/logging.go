// Package logging provides the structured logger QuickFT's server and
// client inject into the connection engine and request processor, matching
// the protocol's "logger: (fn_name, message) -> void" callback shape while
// backing it with go.uber.org/zap for leveled, structured
// output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger is the interface every QuickFT component logs through. fn
// identifies the originating function, matching the protocol's error
// handling design (every failure is logged with the name of the function
// that detected it).
type Logger interface {
	Errorf(fn, format string, args ...interface{})
	Warnf(fn, format string, args ...interface{})
	Infof(fn, format string, args ...interface{})
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// New returns a production zap-backed Logger.
func New() Logger {
	z, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails if the process cannot open its
		// configured sinks (stderr here); fall back to a no-op logger
		// rather than taking the process down over a logging failure.
		return Nop()
	}
	return &zapLogger{s: z.Sugar()}
}

func (l *zapLogger) Errorf(fn, format string, args ...interface{}) {
	l.s.Errorw(fmt.Sprintf(format, args...), "fn", fn)
}

func (l *zapLogger) Warnf(fn, format string, args ...interface{}) {
	l.s.Warnw(fmt.Sprintf(format, args...), "fn", fn)
}

func (l *zapLogger) Infof(fn, format string, args ...interface{}) {
	l.s.Infow(fmt.Sprintf(format, args...), "fn", fn)
}

type nopLogger struct{}

func (nopLogger) Errorf(fn, format string, args ...interface{}) {}
func (nopLogger) Warnf(fn, format string, args ...interface{})  {}
func (nopLogger) Infof(fn, format string, args ...interface{}) {}

// Nop returns a Logger that discards everything, for tests.
func Nop() Logger {
	return nopLogger{}
}
