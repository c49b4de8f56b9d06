// Package logger provides structured JSON logging for the GreenStake services.
package logger

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Fields carries structured log context.
type Fields map[string]interface{}

// Logger is the logging interface shared by all services.
type Logger interface {
	Info(message string, fields Fields)
	Warn(message string, fields Fields)
	Error(message string, fields Fields)
	Debug(message string, fields Fields)
	Fatal(message string, fields Fields)
}

const (
	levelDebug = "debug"
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
	levelFatal = "fatal"
)

type jsonLogger struct {
	service string
	out     *log.Logger
}

// New returns a Logger that writes one JSON object per line to stdout.
func New(service string) Logger {
	return &jsonLogger{
		service: service,
		out:     log.New(os.Stdout, "", 0),
	}
}

func (l *jsonLogger) log(level, message string, fields Fields) {
	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"level":     level,
		"service":   l.service,
		"message":   message,
	}
	for k, v := range fields {
		entry[k] = v
	}

	data, _ := json.Marshal(entry)
	l.out.Println(string(data))
}

func (l *jsonLogger) Info(message string, fields Fields)  { l.log(levelInfo, message, fields) }
func (l *jsonLogger) Warn(message string, fields Fields)  { l.log(levelWarn, message, fields) }
func (l *jsonLogger) Error(message string, fields Fields) { l.log(levelError, message, fields) }
func (l *jsonLogger) Debug(message string, fields Fields) { l.log(levelDebug, message, fields) }

func (l *jsonLogger) Fatal(message string, fields Fields) {
	l.log(levelFatal, message, fields)
	os.Exit(1)
}

// NewNop returns a Logger that discards everything. Used in tests.
func NewNop() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (l *nopLogger) Info(message string, fields Fields)  {}
func (l *nopLogger) Warn(message string, fields Fields)  {}
func (l *nopLogger) Error(message string, fields Fields) {}
func (l *nopLogger) Debug(message string, fields Fields) {}
func (l *nopLogger) Fatal(message string, fields Fields) {}
