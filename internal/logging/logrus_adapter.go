package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// LogrusAdapter implements Logger on top of a logrus entry. Derived loggers
// share the underlying logrus.Logger and accumulate fields on the entry.
type LogrusAdapter struct {
	entry *logrus.Entry
}

// NewLogrusAdapter builds a logrus logger at level ("debug", "info", "warn",
// "error"; anything else falls back to info) writing text or, when format is
// "json", JSON lines.
func NewLogrusAdapter(level, format string) Logger {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return NewLogrusAdapterFromLogger(logger)
}

// NewLogrusAdapterFromLogger wraps a configured logrus.Logger, such as the
// one built from the application config. A nil logger is replaced by a fresh
// one.
func NewLogrusAdapterFromLogger(logger *logrus.Logger) Logger {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogrusAdapter{entry: logrus.NewEntry(logger)}
}

func (l *LogrusAdapter) with(fields []Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	return l.entry.WithFields(convertFields(fields))
}

// Debug logs at debug level.
func (l *LogrusAdapter) Debug(msg string, fields ...Field) { l.with(fields).Debug(msg) }

// Info logs at info level.
func (l *LogrusAdapter) Info(msg string, fields ...Field) { l.with(fields).Info(msg) }

// Warn logs at warning level.
func (l *LogrusAdapter) Warn(msg string, fields ...Field) { l.with(fields).Warn(msg) }

// Error logs at error level.
func (l *LogrusAdapter) Error(msg string, fields ...Field) { l.with(fields).Error(msg) }

// Fatal logs and exits the process.
func (l *LogrusAdapter) Fatal(msg string, fields ...Field) { l.with(fields).Fatal(msg) }

// Fatalf logs a formatted message and exits the process.
func (l *LogrusAdapter) Fatalf(msg string, args ...interface{}) { l.entry.Fatalf(msg, args...) }

// WithError returns a logger carrying err under the "error" key.
func (l *LogrusAdapter) WithError(err error) Logger {
	return &LogrusAdapter{entry: l.entry.WithError(err)}
}

// WithField returns a logger carrying one extra field.
func (l *LogrusAdapter) WithField(key string, value interface{}) Logger {
	return &LogrusAdapter{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger carrying the extra fields.
func (l *LogrusAdapter) WithFields(fields ...Field) Logger {
	return &LogrusAdapter{entry: l.with(fields)}
}

func convertFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
