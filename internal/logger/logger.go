// Package logger provides the logrus backed commontypes.Logger used by the CLI and the simulation.
package logger

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/smartcontractkit/libocr/commontypes"
)

type Logger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

var _ commontypes.Logger = &Logger{}

// New returns a text logger writing to out at the given level, e.g. "info" or "debug".
func New(out io.Writer, level string) (*Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	return &Logger{l, nil}, nil
}

// NewJSON is like New, but emits one JSON object per line.
func NewJSON(out io.Writer, level string) (*Logger, error) {
	l, err := New(out, level)
	if err != nil {
		return nil, err
	}
	l.logger.SetFormatter(&logrus.JSONFormatter{})
	return l, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return &Logger{l, nil}
}

// With returns a logger that adds fields to every entry, e.g. the index of the participant it belongs to.
func (l *Logger) With(fields commontypes.LogFields) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{l.logger, merged}
}

func (l *Logger) entry(fields commontypes.LogFields) *logrus.Entry {
	return l.logger.WithFields(l.fields).WithFields(logrus.Fields(fields))
}

func (l *Logger) Trace(msg string, fields commontypes.LogFields) { l.entry(fields).Trace(msg) }
func (l *Logger) Debug(msg string, fields commontypes.LogFields) { l.entry(fields).Debug(msg) }
func (l *Logger) Info(msg string, fields commontypes.LogFields)  { l.entry(fields).Info(msg) }
func (l *Logger) Warn(msg string, fields commontypes.LogFields)  { l.entry(fields).Warn(msg) }
func (l *Logger) Error(msg string, fields commontypes.LogFields) { l.entry(fields).Error(msg) }

func (l *Logger) Critical(msg string, fields commontypes.LogFields) {
	l.entry(fields).Error("CRITICAL: " + msg)
}
