package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs one supplier request and its outcome.
// A status of 0 means the supplier was never reached.
func LogRequest(endpoint string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		GetLogger().DebugWithFields("Supplier request completed", fields)
	case statusCode == 0:
		GetLogger().WarnWithFields("Supplier unreachable", fields)
	case statusCode < 500:
		GetLogger().WarnWithFields("Supplier client error", fields)
	default:
		GetLogger().ErrorWithFields("Supplier server error", fields)
	}
}

// LogPage logs a page received from the cursor pagination.
func LogPage(username string, page, accounts, total int, nextCursor string) {
	GetLogger().WithFields(map[string]interface{}{
		"username":    username,
		"page":        page,
		"accounts":    accounts,
		"total":       total,
		"next_cursor": nextCursor,
	}).Info("Page fetched")
}

// LogChunk logs a detail lookup chunk.
func LogChunk(index, chunks, ids int, err error) {
	l := GetLogger().WithFields(map[string]interface{}{
		"chunk":  index + 1,
		"chunks": chunks,
		"ids":    ids,
	})
	if err != nil {
		l.WithError(err).Warn("Detail chunk failed")
		return
	}
	l.Debug("Detail chunk fetched")
}

// LogRetry logs a retry notice for an operation.
func LogRetry(operation string, attempt int, delay time.Duration, err error) {
	GetLogger().WithFields(map[string]interface{}{
		"operation": operation,
		"attempt":   attempt,
		"delay":     delay,
	}).WithError(err).Warn("Retrying after failure")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	logger := GetLogger().WithField("component", component)
	if len(config) > 0 {
		logger = logger.WithFields(config)
	}
	logger.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
