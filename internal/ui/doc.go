// Package ui provides semantic text formatting for CLI output.
//
// Formatters render content according to terminal capabilities. With
// color, content is colorized; without it, text decorations (backticks,
// quotes, parentheses) are used where the content would otherwise be
// ambiguous.
//
// # Semantic Formatters
//
//	ui.Code.Sprint("npm config set registry=...")  // Commands
//	ui.Path.Sprint("/usr/local/lib/node_modules")  // File paths
//	ui.Success.Sprint("✓")                          // Passing checks
//	ui.Warning.Sprint("⚠")                          // Warnings
//	ui.Error.Sprint("✗")                            // Failing checks
//	ui.Info.Sprint("→")                             // Hints
//	ui.Highlight.Sprint("v20.11.1")                // Values
//	ui.Muted.Sprint("skipped")                      // De-emphasized text
//
// # Color Behavior
//
// SetColorMode selects always, never or auto. In auto mode colors are
// disabled when NO_COLOR is set, TERM is dumb, or the output is not a
// terminal. ColorMode implements pflag.Value so it can back a --color flag.
package ui
