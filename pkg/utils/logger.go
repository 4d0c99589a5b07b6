package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LogConfig represents logger configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or text
	Output string `json:"output"` // stdout, stderr, or file path
}

// LogFields represents structured log fields
type LogFields map[string]interface{}

// Logger interface for abstraction
type Logger interface {
	Debug(msg string, fields ...LogFields)
	Info(msg string, fields ...LogFields)
	Warn(msg string, fields ...LogFields)
	Error(msg string, err error, fields ...LogFields)
	Fatal(msg string, err error, fields ...LogFields)
	WithFields(fields LogFields) Logger
	WithContext(ctx context.Context) Logger
}

// AppLogger implements Logger interface using logrus
type AppLogger struct {
	entry *logrus.Entry
}

// NewLogrus builds a logrus logger from config.
func NewLogrus(config *LogConfig) (*logrus.Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
		l.Warnf("Invalid log level '%s', defaulting to info", config.Level)
	}
	l.SetLevel(level)

	switch strings.ToLower(config.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", config.Format)
	}

	switch strings.ToLower(config.Output) {
	case "stdout", "":
		l.SetOutput(os.Stdout)
	case "stderr":
		l.SetOutput(os.Stderr)
	case "discard":
		l.SetOutput(io.Discard)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.SetOutput(file)
	}

	return l, nil
}

// NewAppLogger wraps an existing logrus logger.
func NewAppLogger(l *logrus.Logger) Logger {
	return &AppLogger{entry: logrus.NewEntry(l)}
}

// NopLogger discards everything. Tests use it.
func NopLogger() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewAppLogger(l)
}

func (l *AppLogger) with(fields []LogFields) *logrus.Entry {
	entry := l.entry
	if len(fields) > 0 && fields[0] != nil {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	return entry
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...LogFields) {
	l.with(fields).Debug(msg)
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...LogFields) {
	l.with(fields).Info(msg)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...LogFields) {
	l.with(fields).Warn(msg)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...LogFields) {
	entry := l.with(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

// Fatal logs a fatal message and exits
func (l *AppLogger) Fatal(msg string, err error, fields ...LogFields) {
	entry := l.with(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Fatal(msg)
}

// WithFields returns a logger with additional fields
func (l *AppLogger) WithFields(fields LogFields) Logger {
	return &AppLogger{
		entry: l.entry.WithFields(logrus.Fields(fields)),
	}
}

// WithContext returns a logger with request-scoped fields
func (l *AppLogger) WithContext(ctx context.Context) Logger {
	entry := l.entry

	if requestID := GetRequestID(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}

	if orgID := GetOrganizationID(ctx); orgID != "" {
		entry = entry.WithField("organization_id", orgID)
	}

	return &AppLogger{entry: entry}
}

// LogHTTPCall logs external HTTP calls
func LogHTTPCall(l Logger, method, url string, statusCode int, duration time.Duration, err error, fields ...LogFields) {
	logFields := LogFields{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration.String(),
	}

	if len(fields) > 0 {
		for k, v := range fields[0] {
			logFields[k] = v
		}
	}

	message := fmt.Sprintf("HTTP %s %s", method, url)

	switch {
	case err != nil:
		l.WithFields(logFields).Error(message, err)
	case statusCode >= 400:
		l.WithFields(logFields).Warn(message)
	default:
		l.WithFields(logFields).Info(message)
	}
}
