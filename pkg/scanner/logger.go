package scanner

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// DebugLogger receives progress messages from the scanner.
type DebugLogger interface {
	Log(format string, args ...interface{})
}

// NoopLogger is a no-op logger
type NoopLogger struct{}

func (NoopLogger) Log(format string, args ...interface{}) {}

// WriterLogger writes each message as a "[debug] " line.
type WriterLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterLogger logs to w.
func NewWriterLogger(w io.Writer) *WriterLogger {
	return &WriterLogger{w: w}
}

// NewStderrLogger logs to standard error.
func NewStderrLogger() *WriterLogger {
	return NewWriterLogger(os.Stderr)
}

func (l *WriterLogger) Log(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[debug] "+format+"\n", args...)
}
