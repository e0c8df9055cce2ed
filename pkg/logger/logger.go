package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used by the library.
type Logger interface {
	Info(msg string, obj any)
	Warn(msg string, obj any)
	Debug(msg string, obj any)
	Error(msg string, obj any)
}

// NopLogger discards all log messages.
type NopLogger struct{}

func (NopLogger) Info(string, any)  {}
func (NopLogger) Warn(string, any)  {}
func (NopLogger) Debug(string, any) {}
func (NopLogger) Error(string, any) {}

type writerLogger struct {
	l *logrus.Logger
}

// NewWriterLogger builds a logger that writes text lines to an io.Writer.
func NewWriterLogger(w io.Writer) Logger {
	if w == nil {
		return NopLogger{}
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return writerLogger{l: l}
}

func (l writerLogger) entry(obj any) *logrus.Entry {
	switch v := obj.(type) {
	case nil:
		return logrus.NewEntry(l.l)
	case map[string]any:
		return l.l.WithFields(logrus.Fields(v))
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return l.l.WithField("obj", fmt.Sprintf("%+v", obj))
	}
	return l.l.WithField("obj", string(b))
}

func (l writerLogger) Info(msg string, obj any)  { l.entry(obj).Info(msg) }
func (l writerLogger) Warn(msg string, obj any)  { l.entry(obj).Warn(msg) }
func (l writerLogger) Debug(msg string, obj any) { l.entry(obj).Debug(msg) }
func (l writerLogger) Error(msg string, obj any) { l.entry(obj).Error(msg) }

// Debug writes a debug log when enabled and logger is non-nil.
func Debug(enabled bool, logger Logger, msg string, obj any) {
	if !enabled || logger == nil {
		return
	}
	logger.Debug(msg, obj)
}

// Warn writes a warning log when logger is non-nil.
func Warn(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, obj)
}

// Error logs at error level. Failures that the user has already seen on
// stderr should not be logged again.
func Error(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Error(msg, obj)
}
