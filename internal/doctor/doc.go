// Package doctor diagnoses a package manager installation.
//
// A Runner executes a fixed, ordered list of checks:
//
//	ping                    registry reachability
//	npm-version             installed npm against the latest published
//	node-version            installed node against the release index
//	proxy                   proxy settings are http(s) URLs
//	registry-config         the public registry is configured
//	git                     git is on PATH
//	global-bin-path         the global bin directory is on PATH
//	permissions-*           ownership and access of the cache, local and global trees
//	cache                   content cache integrity
//
// Each check produces exactly one Result. A failing check never stops
// later ones, and the Runner itself never returns an error. Proxy
// settings are validated before any network call; when they are invalid
// the network checks fail without touching the network.
//
// Collaborators (registry, release index, executable resolver, cache,
// filesystem) are interfaces, and process facts such as versions and
// uid/gid arrive through RuntimeContext.
package doctor
