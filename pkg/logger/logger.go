package logger

import (
	"go.uber.org/zap"
)

// Logger wraps a zap SugaredLogger so callers don't import zap directly
type Logger struct {
	*zap.SugaredLogger
}

// New creates a production logger. Set ENV=development for console output.
func New(env string) *Logger {
	var zl *zap.Logger
	var err error
	if env == "development" {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return &Logger{zl.Sugar()}
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

// Close flushes any buffered log entries.
func (l *Logger) Close() {
	_ = l.Sync()
}
