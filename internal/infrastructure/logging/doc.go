// Package logging wraps log/slog with the daemon's conventions.
//
// New builds a logger from the logging section of the config: level
// (debug, info, warn, error), format (json for machine ingestion, text
// for a terminal), and output (stdout or stderr). Every record carries
// service="riglab" and the build version so aggregated logs from
// multiple rigs stay attributable.
//
// Components take a *Logger and derive their own with With:
//
//	logger := logging.New(cfg.Logging, version)
//	poolLog := logger.With("component", "pool")
//	poolLog.Info("device claimed", "device_id", id, "role", role)
//
// Default returns a json/info/stdout logger for code paths that run
// before the config is loaded.
//
// Security: never log broker credentials, API tokens, or config
// secrets. Captured serial output from targets may contain extracted
// flags or key material; log match metadata (pattern name, offsets),
// not raw capture text, outside of debug level.
package logging
