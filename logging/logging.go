// Package logging builds the service logger and plugs it into chi's request
// logging middleware, so every log line written while serving a request
// carries that request's id, method and path.
package logging

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// New creates a logrus logger writing to stdout with the given level
// ("debug", "info", ...) and format ("json" or "text").
func New(level, format string) (*logrus.Logger, error) {
	return NewWithOutput(level, format, os.Stdout)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json", "":
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q: expected json or text", format)
	}

	return logger, nil
}

// RequestLogger returns chi middleware that logs one line per request with logrus.
func RequestLogger(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return middleware.RequestLogger(&requestFormatter{logger: logger})
}

type requestFormatter struct {
	logger logrus.FieldLogger
}

// NewLogEntry implements middleware.LogFormatter.
func (f *requestFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	fields := logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"remote_addr": r.RemoteAddr,
	}
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		fields["request_id"] = reqID
	}
	return &requestEntry{entry: f.logger.WithFields(fields)}
}

type requestEntry struct {
	entry logrus.FieldLogger
}

func (e *requestEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.entry.WithFields(logrus.Fields{
		"status":      status,
		"bytes":       bytes,
		"duration_ms": float64(elapsed.Nanoseconds()) / 1e6,
	}).Info("request completed")
}

func (e *requestEntry) Panic(v interface{}, stack []byte) {
	e.entry.WithFields(logrus.Fields{
		"panic": fmt.Sprintf("%+v", v),
		"stack": string(stack),
	}).Error("request panicked")
}

// FromRequest returns the logger bound to r by RequestLogger, or the standard
// logrus logger when the request did not pass through it (e.g. in unit tests).
func FromRequest(r *http.Request) logrus.FieldLogger {
	if r != nil {
		if e, ok := middleware.GetLogEntry(r).(*requestEntry); ok {
			return e.entry
		}
	}
	return logrus.StandardLogger()
}
