package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Diagnostic errors. Probes wrap these so the CLI layer can tell failure
// categories apart with errors.Is().
var (
	// ErrNetwork indicates a registry or upstream request failed.
	ErrNetwork = errors.New("network request failed")

	// ErrVersionMismatch indicates an installed version is behind the recommended one.
	ErrVersionMismatch = errors.New("installed version is out of date")

	// ErrInvalidProxy indicates a configured proxy URL cannot be used.
	ErrInvalidProxy = errors.New("invalid proxy configuration")

	// ErrToolMissing indicates a required executable could not be found on PATH.
	ErrToolMissing = errors.New("executable not found")

	// ErrPermission indicates an ownership or access mismatch in an installation tree.
	ErrPermission = errors.New("permission check failed")

	// ErrCacheIntegrity indicates the content cache holds corrupt, missing or unreferenced data.
	ErrCacheIntegrity = errors.New("cache integrity problem")
)

// Configuration errors.
var (
	// ErrInvalidConfig indicates the configuration file is malformed.
	ErrInvalidConfig = errors.New("configuration is invalid")

	// ErrUnknownCheck indicates a doctor check group name was not recognised.
	ErrUnknownCheck = errors.New("unknown check")

	// ErrInvalidDateFormat indicates a --since or --until date could not be parsed.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// Kind discriminates the shapes a registry failure can take.
type Kind int

const (
	// KindStatus is a non-2xx HTTP response.
	KindStatus Kind = iota
	// KindCoded is a transport failure carrying a machine code such as ECONNREFUSED.
	KindCoded
	// KindMessage is a transport failure with only a message.
	KindMessage
	// KindMalformed is a 2xx response whose body could not be decoded.
	KindMalformed
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindCoded:
		return "coded"
	case KindMessage:
		return "message"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// RegistryError is returned by the registry client for every failed request.
type RegistryError struct {
	Kind       Kind
	StatusCode int
	Code       string
	Method     string
	URL        string
	Message    string
}

// Error renders the failure the way it is shown to users:
//
//	404 Not Found - GET https://registry.npmjs.org/-/ping?write=true
//	ECONNREFUSED connect: connection refused
//	request canceled
func (e *RegistryError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%d %s - %s %s", e.StatusCode, http.StatusText(e.StatusCode), e.Method, e.URL)
	case KindCoded:
		return e.Code + " " + e.Message
	case KindMalformed:
		return fmt.Sprintf("invalid response body from %s %s: %s", e.Method, e.URL, e.Message)
	default:
		return e.Message
	}
}

// Unwrap lets callers match every registry failure against ErrNetwork.
func (e *RegistryError) Unwrap() error {
	return ErrNetwork
}

// HasCode reports whether the failure carries a machine-readable code.
func (e *RegistryError) HasCode() bool {
	return e.Kind == KindCoded && e.Code != ""
}

// AsRegistryError extracts a *RegistryError from an error chain.
func AsRegistryError(err error) (*RegistryError, bool) {
	var regErr *RegistryError
	if errors.As(err, &regErr) {
		return regErr, true
	}
	return nil, false
}

// Is, As, New and Join are re-exported so callers do not need to import
// the standard errors package alongside this one.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)
