// Package audit keeps a log of doctor runs.
//
// Every doctor run is recorded in the cache's logs directory so that a
// user can see when their environment started failing.
//
// # Log Format
//
// The run log is stored as JSON Lines (one JSON object per line) at:
//
//	<cache>/_logs/doctor.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - A random run ID
//   - The user name
//   - The overall status and each check's name, status and message
//
// # Usage
//
//	log := audit.RunLog{Dir: cfg.LogsDir(), Max: cfg.LogsMax}
//	entry, err := log.Append(audit.FromReport(report, groups))
//
// # Retention
//
// Only the newest Max entries are kept. A Max of zero disables the log.
//
// # Failure Handling
//
// Logging is best-effort. Append returns an error for the caller to log
// at debug level, but a doctor run never fails because the log could not
// be written.
//
// # Reading Logs
//
// Use ReadEntries() to parse the log. Malformed entries are silently
// skipped to handle partial writes. The log command filters them with
// workflows.Log.
package audit
