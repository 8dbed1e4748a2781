// Package logging provides the logger used during case registration.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLevel is used when a level is empty or cannot be parsed.
const DefaultLevel = logrus.WarnLevel

// Logger logs a message with alternating key/value pairs.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New returns a logger writing text lines to stderr at the given level.
func New(component, level string) Logger {
	return NewWithWriter(component, level, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(component, level string, w io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(ParseLevel(level))
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	return FromLogrus(l, component)
}

// FromLogrus wraps an existing logrus logger.
func FromLogrus(l *logrus.Logger, component string) Logger {
	entry := logrus.NewEntry(l)
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return &logrusLogger{entry: entry}
}

// Nop discards everything.
func Nop() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return FromLogrus(l, "")
}

// ParseLevel converts a level name, falling back to DefaultLevel.
func ParseLevel(level string) logrus.Level {
	if level == "" {
		return DefaultLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return DefaultLevel
	}
	return lvl
}

// ValidLevel reports whether level names a logrus level.
func ValidLevel(level string) bool {
	_, err := logrus.ParseLevel(level)
	return err == nil
}

func (l *logrusLogger) Debug(msg string, kv ...any) {
	l.entry.WithFields(fields(kv)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, kv ...any) {
	l.entry.WithFields(fields(kv)).Info(msg)
}

func (l *logrusLogger) Warn(msg string, kv ...any) {
	l.entry.WithFields(fields(kv)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, kv ...any) {
	l.entry.WithFields(fields(kv)).Error(msg)
}

func fields(kv []any) logrus.Fields {
	f := make(logrus.Fields, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			f["!BADKEY"] = kv[i]
			break
		}
		f[key] = kv[i+1]
	}
	return f
}
