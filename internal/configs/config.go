package configs

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
	logger "github.com/PolarWolf314/pkgdoctor/internal/logging"
	"github.com/PolarWolf314/pkgdoctor/internal/ui"
	"github.com/PolarWolf314/pkgdoctor/internal/utils"
)

const (
	// DefaultRegistry is the public npm registry.
	DefaultRegistry = "https://registry.npmjs.org/"

	// DefaultNodeDistURL hosts the node release index.
	DefaultNodeDistURL = "https://nodejs.org/dist/"

	// DefaultPackageName is the package whose latest release the npm version check compares against.
	DefaultPackageName = "npm"

	// LTSPolicyError fails the run when node is not an LTS release.
	LTSPolicyError = "error"

	// LTSPolicyWarn reports a non-LTS node as a warning.
	LTSPolicyWarn = "warn"
)

// Config is the effective configuration for a doctor run.
type Config struct {
	Registry      string `toml:"registry" json:"registry"`
	Token         string `toml:"token,omitempty" json:"-"`
	Proxy         string `toml:"proxy,omitempty" json:"proxy,omitempty"`
	HTTPSProxy    string `toml:"https-proxy,omitempty" json:"https-proxy,omitempty"`
	NodeDistURL   string `toml:"node-dist-url" json:"node-dist-url"`
	PackageName   string `toml:"package-name" json:"package-name"`
	Prefix        string `toml:"prefix,omitempty" json:"prefix"`
	GlobalPrefix  string `toml:"global-prefix" json:"global-prefix"`
	Cache         string `toml:"cache" json:"cache"`
	Color         string `toml:"color" json:"color"`
	LogLevel      string `toml:"loglevel" json:"loglevel"`
	NodeLTSPolicy string `toml:"node-lts-policy" json:"node-lts-policy"`
	LogsMax       int    `toml:"logs-max" json:"logs-max"`
}

// Defaults returns the built-in configuration for a process started in cwd.
func Defaults(cwd string) (*Config, error) {
	prefix, err := utils.FindPackageRoot(cwd)
	if err != nil {
		return nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error getting home directory: %w", err)
	}

	cache := filepath.Join(home, ".npm")
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LocalAppData"); local != "" {
			cache = filepath.Join(local, "npm-cache")
		}
	}

	return &Config{
		Registry:      DefaultRegistry,
		NodeDistURL:   DefaultNodeDistURL,
		PackageName:   DefaultPackageName,
		Prefix:        prefix,
		GlobalPrefix:  defaultGlobalPrefix(),
		Cache:         cache,
		Color:         string(ui.ColorAuto),
		LogLevel:      logger.LevelNotice.String(),
		NodeLTSPolicy: LTSPolicyError,
		LogsMax:       10,
	}, nil
}

// defaultGlobalPrefix mirrors npm: $PREFIX, else two levels above the node
// binary, else /usr/local.
func defaultGlobalPrefix() string {
	if prefix := os.Getenv("PREFIX"); prefix != "" {
		return prefix
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "npm")
		}
	}
	if node, err := exec.LookPath("node"); err == nil {
		if resolved, err := filepath.EvalSymlinks(node); err == nil {
			node = resolved
		}
		if runtime.GOOS == "windows" {
			return filepath.Dir(node)
		}
		return filepath.Dir(filepath.Dir(node))
	}
	return "/usr/local"
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// Path is an explicit config file. It must exist when set.
	Path string
	// Cwd is the working directory used to find the local prefix.
	Cwd string
	// LookupEnv reads environment variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// envKeys lists the NPM_CONFIG_* variables that override the config file.
var envKeys = []string{
	"NPM_CONFIG_REGISTRY",
	"NPM_CONFIG_TOKEN",
	"NPM_CONFIG_PROXY",
	"NPM_CONFIG_HTTPS_PROXY",
	"NPM_CONFIG_CACHE",
	"NPM_CONFIG_PREFIX",
	"NPM_CONFIG_LOGLEVEL",
	"NPM_CONFIG_COLOR",
	"NPM_CONFIG_NODE_LTS_POLICY",
	"NPM_CONFIG_LOGS_MAX",
}

func (c *Config) applyEnv(key, value string) error {
	switch key {
	case "NPM_CONFIG_REGISTRY":
		c.Registry = value
	case "NPM_CONFIG_TOKEN":
		c.Token = value
	case "NPM_CONFIG_PROXY":
		c.Proxy = value
	case "NPM_CONFIG_HTTPS_PROXY":
		c.HTTPSProxy = value
	case "NPM_CONFIG_CACHE":
		c.Cache = value
	case "NPM_CONFIG_PREFIX":
		c.GlobalPrefix = value
	case "NPM_CONFIG_LOGLEVEL":
		c.LogLevel = value
	case "NPM_CONFIG_COLOR":
		c.Color = value
	case "NPM_CONFIG_NODE_LTS_POLICY":
		c.NodeLTSPolicy = value
	case "NPM_CONFIG_LOGS_MAX":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.LogsMax = n
	}
	return nil
}

// Load builds the configuration from defaults, the TOML file and the
// environment, in that order of precedence. Flags are applied by the caller.
func Load(opts LoadOptions) (*Config, error) {
	cwd := opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cwd = wd
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg, err := Defaults(cwd)
	if err != nil {
		return nil, err
	}

	path := opts.Path
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			undecoded, err := LoadTOML(path, cfg)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrInvalidConfig, path, err)
			}
			if len(undecoded) > 0 {
				return nil, fmt.Errorf("%w: %s: unknown keys: %s", kerrors.ErrInvalidConfig, path, strings.Join(undecoded, ", "))
			}
		} else if explicit {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, statErr)
		}
	}

	for _, key := range envKeys {
		if v, ok := lookup(key); ok && v != "" {
			if err := cfg.applyEnv(key, v); err != nil {
				return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, err)
			}
		}
	}
	if _, ok := lookup("NO_COLOR"); ok {
		if _, set := lookup("NPM_CONFIG_COLOR"); !set {
			cfg.Color = string(ui.ColorNever)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/pkgdoctor/config.toml, or ""
// when no config directory can be determined.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pkgdoctor", "config.toml")
}

// Validate checks values that cannot be checked while decoding. Proxy
// URLs are left to the doctor's proxy check.
func (c *Config) Validate() error {
	if _, err := url.Parse(c.Registry); err != nil || c.Registry == "" {
		return fmt.Errorf("%w: registry %q is not a valid URL", kerrors.ErrInvalidConfig, c.Registry)
	}
	if _, err := ui.ParseColorMode(c.Color); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, err)
	}
	switch c.NodeLTSPolicy {
	case LTSPolicyError, LTSPolicyWarn:
	default:
		return fmt.Errorf("%w: node-lts-policy must be %q or %q, got %q", kerrors.ErrInvalidConfig, LTSPolicyError, LTSPolicyWarn, c.NodeLTSPolicy)
	}
	if c.LogsMax < 0 {
		return fmt.Errorf("%w: logs-max must not be negative", kerrors.ErrInvalidConfig)
	}
	return nil
}

// ColorMode returns the parsed color setting.
func (c *Config) ColorMode() ui.ColorMode {
	m, _ := ui.ParseColorMode(c.Color)
	return m
}

// Level returns the parsed log level.
func (c *Config) Level() logger.Level {
	l, _ := logger.ParseLevel(c.LogLevel)
	return l
}

// LocalDir is the project's node_modules.
func (c *Config) LocalDir() string {
	return filepath.Join(c.Prefix, "node_modules")
}

// LocalBin is the project's node_modules/.bin.
func (c *Config) LocalBin() string {
	return filepath.Join(c.LocalDir(), ".bin")
}

// GlobalDir is where global packages are installed.
func (c *Config) GlobalDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(c.GlobalPrefix, "node_modules")
	}
	return filepath.Join(c.GlobalPrefix, "lib", "node_modules")
}

// GlobalBin is where global package executables are linked.
func (c *Config) GlobalBin() string {
	if runtime.GOOS == "windows" {
		return c.GlobalPrefix
	}
	return filepath.Join(c.GlobalPrefix, "bin")
}

// CacheDir is the content-addressable cache root.
func (c *Config) CacheDir() string {
	return filepath.Join(c.Cache, "_cacache")
}

// LogsDir holds the doctor run log.
func (c *Config) LogsDir() string {
	return filepath.Join(c.Cache, "_logs")
}

// NodeIndexURL is the URL of the node release index.
func (c *Config) NodeIndexURL() string {
	return strings.TrimSuffix(c.NodeDistURL, "/") + "/index.json"
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Token != "" {
		out.Token = "(protected)"
	}
	return &out
}
