// Package configs loads the configuration for a pkgdoctor run.
//
// Configuration is resolved in increasing order of precedence:
//
//  1. Built-in defaults (Defaults)
//  2. A TOML file: --config, or $XDG_CONFIG_HOME/pkgdoctor/config.toml
//  3. NPM_CONFIG_* environment variables (and NO_COLOR)
//  4. Command-line flags, applied by the cmd package
//
// A missing default config file is not an error; a malformed file or an
// unknown key is reported as ErrInvalidConfig.
//
// # Example config.toml
//
//	registry = "https://registry.npmjs.org/"
//	https-proxy = "http://proxy.internal:3128"
//	cache = "/home/me/.npm"
//	node-lts-policy = "warn"
//
// # Derived Paths
//
// The npm layout is derived from prefix, global-prefix and cache:
//
//   - LocalDir, LocalBin: <prefix>/node_modules and its .bin
//   - GlobalDir, GlobalBin: <global-prefix>/lib/node_modules and <global-prefix>/bin
//   - CacheDir, LogsDir: <cache>/_cacache and <cache>/_logs
package configs
