// Package workflows provides high-level orchestration for pkgdoctor commands.
//
// Workflows coordinate multiple packages (configs, registry, cache, doctor,
// audit) to implement complete user-facing features. Each workflow handles
// a single command's business logic, independent of CLI concerns like flag
// parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Building the registry client, cache store and filesystem
//   - Discovering the npm and node versions
//   - Running the checks
//   - Recording the run log
//
// # Available Workflows
//
//   - Doctor: Runs the environment health checks
//   - Log: Reads and filters past doctor runs
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Doctor(ctx, opts)
//	if errors.Is(err, kerrors.ErrUnknownCheck) {
//	    // Show the list of valid groups
//	}
//
// A failing health check is not an error. It is part of the report.
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// Cancelling it stops the run after the check in progress.
package workflows
