// Package logger provides structured logging for the extraction pipeline.
//
// It wraps the zerolog library behind a Logger interface so pipeline
// components receive an injected logger instead of writing to the console
// directly. Supports leveled logging, structured fields, pretty console
// output, optional file output, and a global instance for the CLI layer.
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	if err := logger.Initialize(cfg); err != nil { ... }
//
//	log := logger.GetLogger().WithField("year", 2008)
//	log.Info("scan started")
//	log.InfoWithFields("chunk saved", map[string]interface{}{
//		"chunk":   42,
//		"records": 3117,
//	})
//
// Tests use NewNopLogger (discard everything) or NewTestLogger (capture
// messages for assertions).
package logger
