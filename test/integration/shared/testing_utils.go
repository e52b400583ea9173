// Package shared contains testing utilities shared between integration tests.
// This file provides common functions for setting up an isolated npm
// environment and running the CLI against it.
package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/pkgdoctor/cmd"
)

// Environment holds the directories a CLI run is pointed at.
type Environment struct {
	Root         string
	Prefix       string
	GlobalPrefix string
	Cache        string
	ConfigFile   string
}

// CacheDir is the content-addressable cache inside Cache.
func (e *Environment) CacheDir() string {
	return filepath.Join(e.Cache, "_cacache")
}

// LocalDir is the project's node_modules.
func (e *Environment) LocalDir() string {
	return filepath.Join(e.Prefix, "node_modules")
}

// GlobalDir is the global node_modules.
func (e *Environment) GlobalDir() string {
	return filepath.Join(e.GlobalPrefix, "lib", "node_modules")
}

// GlobalBin is the global bin folder.
func (e *Environment) GlobalBin() string {
	return filepath.Join(e.GlobalPrefix, "bin")
}

// SetupTestEnvironment creates a temporary project, global prefix and
// cache, writes configTOML as the config file and clears NPM_CONFIG_*
// variables for the duration of the test.
func SetupTestEnvironment(t *testing.T, configTOML string) *Environment {
	t.Helper()

	root := t.TempDir()
	env := &Environment{
		Root:         root,
		Prefix:       filepath.Join(root, "project"),
		GlobalPrefix: filepath.Join(root, "global"),
		Cache:        filepath.Join(root, "cache"),
		ConfigFile:   filepath.Join(root, "config.toml"),
	}
	for _, dir := range []string{env.LocalDir(), env.GlobalDir(), env.GlobalBin(), env.Cache} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(env.ConfigFile, []byte(configTOML), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	for _, key := range []string{
		"NPM_CONFIG_REGISTRY", "NPM_CONFIG_TOKEN", "NPM_CONFIG_PROXY", "NPM_CONFIG_HTTPS_PROXY",
		"NPM_CONFIG_CACHE", "NPM_CONFIG_PREFIX", "NPM_CONFIG_LOGLEVEL", "NPM_CONFIG_COLOR",
		"NPM_CONFIG_NODE_LTS_POLICY", "NPM_CONFIG_LOGS_MAX",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg"))

	cmd.ResetGlobalState()
	t.Cleanup(cmd.ResetGlobalState)
	return env
}

// Args prepends the flags that point the CLI at the environment.
func (e *Environment) Args(args ...string) []string {
	return append([]string{
		"--config", e.ConfigFile,
		"--prefix", e.Prefix,
		"--global-prefix", e.GlobalPrefix,
		"--cache", e.Cache,
		"--color", "never",
	}, args...)
}

// RunCLI executes the CLI with args and returns stdout, stderr and the
// exit code. The doctor exit function is captured instead of exiting.
func RunCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	exitCode := -1
	cmd.SetDoctorExitFunc(func(code int) {
		exitCode = code
	})

	root := cmd.GetRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	code := cmd.Execute(root)
	if exitCode >= 0 {
		code = exitCode
	}
	return stdout.String(), stderr.String(), code
}
