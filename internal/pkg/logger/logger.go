package logger

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger routes structured application logs to logrus.
type Logger struct {
	entry *logrus.Logger
}

// New creates a Logger writing to out at the given level
// (debug, info, warn, error). Unknown levels fall back to warn.
func New(level string, out io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: false, FullTimestamp: true})
	l.SetLevel(parseLevel(level))
	return &Logger{entry: l}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New("error", io.Discard)
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level string) {
	l.entry.SetLevel(parseLevel(level))
}

func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (l *Logger) Error(msg string, err error, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).WithError(err).Error(msg)
}

func parseLevel(level string) logrus.Level {
	// trace and panic levels are not used
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warning", "warn", "":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.WarnLevel
	}
}
