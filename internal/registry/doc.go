// Package registry is a minimal read-only client for an npm registry and
// the node release index.
//
// It supports exactly what the doctor needs:
//
//	GET /-/ping?write=true       Ping
//	GET /<name>                  Packument
//	GET <dist>/index.json        FetchIndex
//
// Requests to the registry host carry "Authorization: Bearer <token>"
// when a token is configured. Proxies come from Options or, when none is
// configured, from the HTTP_PROXY/HTTPS_PROXY environment. Requests are
// never retried.
//
// Every failure is a *errors.RegistryError whose Kind tells a non-2xx
// status apart from a coded transport failure (ECONNREFUSED, ENOTFOUND,
// ETIMEDOUT), a message-only failure, and a malformed body.
package registry
