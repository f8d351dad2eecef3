// Package klog wraps hal.LogSink with the level-and-prefix discipline
// the teacher's kernel applies by hand at every uartPuts call site
// ("Initializing memory...", "ERROR: Heap initialization failed..."):
// a short tag identifying the subsystem, and a severity word, with
// every call safe to make with interrupts disabled.
package klog

import "github.com/iansmith/mazcore/hal"

// Level is a log severity, ordered low to high.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger tags every line with a subsystem name and filters by a
// minimum level before forwarding to the underlying hal.LogSink.
type Logger struct {
	sink    hal.LogSink
	tag     string
	minimum Level
}

// New creates a Logger that forwards to sink, tagging every line with
// tag and suppressing anything below minimum.
func New(sink hal.LogSink, tag string, minimum Level) *Logger {
	return &Logger{sink: sink, tag: tag, minimum: minimum}
}

// With returns a Logger for a sub-component, sharing the sink and
// minimum level but with tag appended, e.g. klog.New(sink,
// "mazcore").With("lapic") produces lines tagged "mazcore.lapic".
func (l *Logger) With(sub string) *Logger {
	tag := sub
	if l.tag != "" {
		tag = l.tag + "." + sub
	}
	return &Logger{sink: l.sink, tag: tag, minimum: l.minimum}
}

func (l *Logger) log(level Level, format string, args ...any) {
	if l == nil || l.sink == nil || level < l.minimum {
		return
	}
	if l.tag != "" {
		l.sink.Logf("["+level.String()+"] "+l.tag+": "+format, args...)
		return
	}
	l.sink.Logf("["+level.String()+"] "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }
