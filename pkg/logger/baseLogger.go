package logger

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// BaseLogger writes prefixed lines to an optional writer and mirrors them to the std logger.
type BaseLogger struct {
	mu      *sync.Mutex
	prefix  string
	writer  io.Writer
	console bool
}

func NewLogger(writer io.Writer, prefix string) *BaseLogger {
	return &BaseLogger{
		mu:      &sync.Mutex{},
		writer:  writer,
		prefix:  prefix,
		console: true,
	}
}

// NewDiscardLogger is used by tests and by components constructed without a logger.
func NewDiscardLogger() *BaseLogger {
	return &BaseLogger{mu: &sync.Mutex{}, writer: io.Discard}
}

func (l *BaseLogger) Log(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	message := fmt.Sprintf(format, v...)
	if l.prefix != "" {
		message = l.prefix + " " + message
	}
	if l.writer != nil {
		fmt.Fprintln(l.writer, message)
	}
	if l.console {
		log.Print(message)
	}
}

// WithPrefix shares the writer and the lock with the parent so lines never interleave.
func (l *BaseLogger) WithPrefix(extraPrefix string) Logger {
	prefix := extraPrefix
	if l.prefix != "" {
		prefix = l.prefix + " " + extraPrefix
	}
	return &BaseLogger{
		mu:      l.mu,
		writer:  l.writer,
		prefix:  prefix,
		console: l.console,
	}
}
