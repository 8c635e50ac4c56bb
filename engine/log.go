package engine

import (
	"fmt"
	"sync"
	"time"
)

// Level classifies an execution log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Entry is one timestamped execution log record. Rendering is the caller's
// responsibility.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Log collects the leveled entries of one run.
// It implements template.Logger so resolution diagnostics land here too.
type Log struct {
	mu      sync.Mutex
	entries []Entry
}

func (l *Log) append(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Time:    time.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *Log) Debugf(format string, args ...any) { l.append(LevelDebug, format, args...) }
func (l *Log) Infof(format string, args ...any)  { l.append(LevelInfo, format, args...) }
func (l *Log) Warnf(format string, args ...any)  { l.append(LevelWarning, format, args...) }
func (l *Log) Errorf(format string, args ...any) { l.append(LevelError, format, args...) }

// Entries returns a copy of the recorded entries.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
