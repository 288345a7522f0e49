// Package database provides SQLite connection management for SoundBridge Core.
//
// It wraps database/sql with WAL mode configuration, busy timeout handling,
// embedded schema migrations, and health checks. The audio entity
// repositories (clients, zones) are built on top of this package.
//
// SQLite is configured for a single writer with WAL mode enabled, which
// allows concurrent reads during writes — sufficient for the low write
// volume of an audio orchestrator.
package database
