// Package logging provides structured logging for SoundBridge Core.
//
// It wraps the standard library's log/slog with configuration-driven
// level filtering, output format selection (JSON or text), and default
// service fields attached to every record.
//
// Components derive their own loggers via With:
//
//	log := logging.New(cfg.Logging, version)
//	coordLog := log.With("component", "coordinator")
//
// Use Default() only during early startup, before configuration is loaded.
package logging
