// Package logging provides logging utilities for forage-agent.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("streaming artifact", "path", path, "attempt", attempt)
//	logging.Warn("audit append failed", "path", logPath, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Streaming %s...", path)
//	logging.UserSuccess("Wrote %s", path)
//	logging.UserWarning("Tests failed, attempting self-heal (%d/%d)", attempt, max)
//	logging.UserError("Write failed: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: Stdout (os.Stdout by default)
//   - UserWarning, UserError: Stderr (os.Stderr by default)
//
// # Status Indicators
//
// User functions prepend status indicators:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
