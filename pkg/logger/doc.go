// Package logger provides the structured logging interface used across the
// fetcher.
//
// It wraps zerolog. Console output goes to stderr with coloured level labels
// (or raw JSON when logging.json is set) and can be mirrored to a file.
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("username", "jack").Info("Run started")
//	logger.GetLogger().WarnWithFields("Detail chunk failed", map[string]interface{}{
//	    "chunk": 2,
//	})
//
// Tests use NewTestLogger to capture messages or NewNopLogger to drop them.
package logger
