// Package errors provides typed error values for pkgdoctor.
//
// Using sentinel errors allows callers to handle specific failure
// categories with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Network errors: registry or upstream index unreachable (ErrNetwork)
//   - Version errors: installed tool behind the recommended release (ErrVersionMismatch)
//   - Config errors: invalid proxy or config file (ErrInvalidProxy, ErrInvalidConfig)
//   - Environment errors: missing executables (ErrToolMissing)
//   - Filesystem errors: ownership or access mismatches (ErrPermission)
//   - Cache warnings: self-healing content problems (ErrCacheIntegrity)
//
// # Registry Errors
//
// The registry client returns *RegistryError, a tagged variant whose Kind
// says whether the failure was an HTTP status, a coded transport error,
// a message-only transport error, or a malformed body. Formatting switches
// on Kind instead of probing for optional fields:
//
//	if regErr, ok := errors.AsRegistryError(err); ok && regErr.HasCode() {
//	    // show regErr.Code
//	}
//
// Every *RegistryError unwraps to ErrNetwork.
package errors
