// Package logging provides the gateway's structured, request-scoped logger.
package logging

import (
	"context"
	"fmt"
	"strings"

	"claude-gateway/internal"

	"github.com/sirupsen/logrus"
)

// Level mirrors logrus.Level but keeps an emoji-tagged vocabulary at the
// call site instead of logrus's own (which has no emoji concept).
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) emoji() string {
	switch l {
	case DEBUG:
		return "🔍"
	case INFO:
		return "ℹ️"
	case WARN:
		return "⚠️"
	case ERROR:
		return "❌"
	default:
		return "📝"
	}
}

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Logger is the interface every component logs through.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	WithField(key, value string) Logger
	WithComponent(component string) Logger
}

// ContextLogger implements Logger on top of a logrus.Entry, carrying the
// request id pulled from context.Context and an optional component tag.
type ContextLogger struct {
	ctx       context.Context
	entry     *logrus.Entry
	component string
}

// New builds a Logger scoped to ctx's request id.
func New(ctx context.Context) Logger {
	return &ContextLogger{
		ctx:   ctx,
		entry: logrus.WithField("request_id", internal.GetRequestID(ctx)),
	}
}

// WithField returns a derived logger carrying an additional structured field.
func (l *ContextLogger) WithField(key, value string) Logger {
	return &ContextLogger{ctx: l.ctx, entry: l.entry.WithField(key, value), component: l.component}
}

// WithComponent returns a derived logger tagged with a component name
// (e.g. "directive", "adapters", "stream").
func (l *ContextLogger) WithComponent(component string) Logger {
	return &ContextLogger{ctx: l.ctx, entry: l.entry.WithField("component", component), component: component}
}

func (l *ContextLogger) log(level Level, format string, args ...interface{}) {
	msg := maskAPIKeys(sprintf(format, args...))
	msg = level.emoji() + " " + msg
	switch level {
	case DEBUG:
		l.entry.Debug(msg)
	case INFO:
		l.entry.Info(msg)
	case WARN:
		l.entry.Warn(msg)
	case ERROR:
		l.entry.Error(msg)
	}
}

func (l *ContextLogger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *ContextLogger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *ContextLogger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *ContextLogger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// maskAPIKeys redacts the token following the first "Bearer " in message
// before it reaches a log sink. Later "Bearer " tokens and bare sk- style
// keys are left as they are.
func maskAPIKeys(message string) string {
	if strings.Contains(message, "Bearer ") {
		idx := strings.Index(message, "Bearer ")
		end := idx + len("Bearer ")
		tail := message[end:]
		if sp := strings.IndexAny(tail, " \n\t"); sp >= 0 {
			message = message[:end] + "***" + tail[sp:]
		} else {
			message = message[:end] + "***"
		}
	}
	return message
}
