// Package logging provides structured logging for the Deckplane plugin.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the plugin. It provides both general logging
// functions and specialized functions for protocol- and gateway-specific
// logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (protocol lines, gateway notifications, tick drains)
//   - Info: Normal operations (connections, activations, state changes)
//   - Warn: Non-fatal issues (unknown pages, retries, empty-stack returns)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Profile switch requested",
//	    zap.String("profile", "deckplane"),
//	    zap.Bool("active", true),
//	)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given and DECKPLANE_LOG_LEVEL is unset, logging is
// silent. This keeps the plugin quiet when launched by a host process that
// captures stdout.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
