package mocks

import (
	"fmt"
	"sync"

	"github.com/user/playcore/pkg/ports"
)

// Logger records log output for assertions.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

// NewLogger creates a recording logger.
func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) record(level, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, level+": "+fmt.Sprintf(msg, args...))
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.record("debug", msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.record("info", msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.record("warn", msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.record("error", msg, args...) }

// WithComponent returns the same recording logger.
func (l *Logger) WithComponent(component string) ports.Logger { return l }

var _ ports.Logger = (*Logger)(nil)
