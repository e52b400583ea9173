package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// TestConfigShow contains tests for the `pkgdoctor config show` command.
func TestConfigShow(t *testing.T) {
	t.Run("TOMLOutput", testConfigShowTOML)
	t.Run("TokenIsRedacted", testConfigShowRedactsToken)
	t.Run("JSONWithPaths", testConfigShowJSONWithPaths)
	t.Run("TextWithPaths", testConfigShowTextWithPaths)
	t.Run("FlagOverridesEnvironment", testConfigShowFlagPrecedence)
	t.Run("EnvironmentOverridesFile", testConfigShowEnvPrecedence)
	t.Run("UnknownKeyIsRejected", testConfigShowUnknownKey)
	t.Run("InvalidColorFlag", testConfigShowInvalidColor)
}

func testConfigShowTOML(t *testing.T) {
	env := setupTestEnvironment(t, "registry = \"https://file.example.com/\"\n")

	stdout, stderr, code := runTestCLI(t, env.args("config", "show")...)

	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, `registry = "https://file.example.com/"`) {
		t.Errorf("Expected registry from file in output: %s", stdout)
	}
	if !strings.Contains(stdout, `cache = "`+tomlPath(env.Cache)+`"`) {
		t.Errorf("Expected cache from flag in output: %s", stdout)
	}
	if !strings.Contains(stdout, `node-lts-policy = "error"`) {
		t.Errorf("Expected default LTS policy in output: %s", stdout)
	}
}

func testConfigShowRedactsToken(t *testing.T) {
	env := setupTestEnvironment(t, "token = \"npm_s3cret\"\n")

	stdout, _, code := runTestCLI(t, env.args("config", "show")...)

	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if strings.Contains(stdout, "npm_s3cret") {
		t.Errorf("Token leaked into output: %s", stdout)
	}
	if !strings.Contains(stdout, `token = "(protected)"`) {
		t.Errorf("Expected redacted token in output: %s", stdout)
	}
}

func testConfigShowJSONWithPaths(t *testing.T) {
	env := setupTestEnvironment(t, "")

	stdout, _, code := runTestCLI(t, env.args("config", "show", "--json", "--paths")...)

	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}

	var parsed struct {
		Registry string            `json:"registry"`
		Token    string            `json:"token"`
		Paths    map[string]string `json:"paths"`
	}
	if err := json.Unmarshal([]byte(stdout), &parsed); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\n%s", err, stdout)
	}
	if parsed.Registry != "https://registry.npmjs.org/" {
		t.Errorf("Expected default registry, got %q", parsed.Registry)
	}
	if want := filepath.Join(env.Cache, "_cacache"); parsed.Paths["cache"] != want {
		t.Errorf("Expected cache path %q, got %q", want, parsed.Paths["cache"])
	}
	if want := filepath.Join(env.Prefix, "node_modules"); parsed.Paths["local"] != want {
		t.Errorf("Expected local path %q, got %q", want, parsed.Paths["local"])
	}
}

func testConfigShowTextWithPaths(t *testing.T) {
	env := setupTestEnvironment(t, "")

	stdout, _, code := runTestCLI(t, env.args("config", "show", "--paths")...)

	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if !strings.Contains(stdout, "Derived paths:") {
		t.Errorf("Expected derived paths section: %s", stdout)
	}
	if !strings.Contains(stdout, "Config file: '"+env.ConfigFile+"'") {
		t.Errorf("Expected config file path: %s", stdout)
	}
	if !strings.Contains(stdout, filepath.Join(env.Cache, "_logs")) {
		t.Errorf("Expected logs path: %s", stdout)
	}
}

func testConfigShowFlagPrecedence(t *testing.T) {
	env := setupTestEnvironment(t, "registry = \"https://file.example.com/\"\n")
	t.Setenv("NPM_CONFIG_REGISTRY", "https://env.example.com/")

	stdout, _, code := runTestCLI(t, env.args("--registry", "https://flag.example.com/", "config", "show")...)

	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if !strings.Contains(stdout, `registry = "https://flag.example.com/"`) {
		t.Errorf("Expected flag registry to win: %s", stdout)
	}
}

func testConfigShowEnvPrecedence(t *testing.T) {
	env := setupTestEnvironment(t, "registry = \"https://file.example.com/\"\n")
	t.Setenv("NPM_CONFIG_REGISTRY", "https://env.example.com/")

	stdout, _, code := runTestCLI(t, env.args("config", "show")...)

	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}
	if !strings.Contains(stdout, `registry = "https://env.example.com/"`) {
		t.Errorf("Expected environment registry to win: %s", stdout)
	}
}

func testConfigShowUnknownKey(t *testing.T) {
	env := setupTestEnvironment(t, "regsitry = \"https://typo.example.com/\"\n")

	_, stderr, code := runTestCLI(t, env.args("config", "show")...)

	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr, "unknown keys: regsitry") {
		t.Errorf("Expected unknown key error: %s", stderr)
	}
}

func testConfigShowInvalidColor(t *testing.T) {
	env := setupTestEnvironment(t, "")

	_, stderr, code := runTestCLI(t, append(env.args("config", "show"), "--color", "sometimes")...)

	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr, `invalid color mode "sometimes"`) {
		t.Errorf("Expected color error: %s", stderr)
	}
}

// tomlPath escapes backslashes the way the TOML encoder does.
func tomlPath(p string) string {
	return strings.ReplaceAll(p, `\`, `\\`)
}
