// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up an isolated
// environment, running the CLI and capturing its output.
package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// testEnvironment holds the directories a test run of the CLI points at.
type testEnvironment struct {
	Root         string
	Prefix       string
	GlobalPrefix string
	Cache        string
	ConfigFile   string
}

// isolatedEnvKeys are cleared so the host's npm settings cannot leak into tests.
var isolatedEnvKeys = []string{
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

// setupTestEnvironment creates temporary prefix, global prefix and cache
// directories and a config file holding configTOML. Global command state
// is reset before and after the test.
func setupTestEnvironment(t *testing.T, configTOML string) *testEnvironment {
	t.Helper()

	root := t.TempDir()
	env := &testEnvironment{
		Root:         root,
		Prefix:       filepath.Join(root, "project"),
		GlobalPrefix: filepath.Join(root, "global"),
		Cache:        filepath.Join(root, "cache"),
		ConfigFile:   filepath.Join(root, "config.toml"),
	}
	for _, dir := range []string{env.Prefix, env.GlobalPrefix, env.Cache} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(env.ConfigFile, []byte(configTOML), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	for _, key := range isolatedEnvKeys {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg"))

	ResetGlobalState()
	t.Cleanup(ResetGlobalState)
	return env
}

// args prepends the flags that point the CLI at the test directories.
func (e *testEnvironment) args(args ...string) []string {
	return append([]string{
		"--config", e.ConfigFile,
		"--prefix", e.Prefix,
		"--global-prefix", e.GlobalPrefix,
		"--cache", e.Cache,
		"--color", "never",
	}, args...)
}

// createTestCLI returns the root command wired to write into stdout and stderr.
func createTestCLI(args []string, stdout, stderr *bytes.Buffer) *cobra.Command {
	root := GetRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root
}

// runTestCLI executes the CLI with args and returns stdout, stderr and the
// exit code. The doctor exit function is captured instead of exiting.
func runTestCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	exitCode := -1
	SetDoctorExitFunc(func(code int) {
		exitCode = code
	})

	code := Execute(createTestCLI(args, &stdout, &stderr))
	if exitCode >= 0 {
		code = exitCode
	}
	return stdout.String(), stderr.String(), code
}
