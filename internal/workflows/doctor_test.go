package workflows

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/pkgdoctor/internal/audit"
	"github.com/PolarWolf314/pkgdoctor/internal/configs"
	"github.com/PolarWolf314/pkgdoctor/internal/doctor"
	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
	"github.com/PolarWolf314/pkgdoctor/internal/registry"
	"github.com/PolarWolf314/pkgdoctor/internal/registry/registrytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, mock *registrytest.Registry) *configs.Config {
	t.Helper()
	root := t.TempDir()
	return &configs.Config{
		Registry:      mock.URL(),
		NodeDistURL:   mock.NodeDistURL(),
		PackageName:   configs.DefaultPackageName,
		Prefix:        filepath.Join(root, "project"),
		GlobalPrefix:  filepath.Join(root, "global"),
		Cache:         filepath.Join(root, "cache"),
		Color:         "never",
		LogLevel:      "notice",
		NodeLTSPolicy: configs.LTSPolicyError,
		LogsMax:       5,
	}
}

func TestDoctorAgainstMockRegistry(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	mock.Ping(http.StatusOK)
	mock.Package(registrytest.Manifest("npm", "10.1.0", "10.2.4"))
	mock.NodeIndex([]registry.Release{{Version: "v20.10.0", LTS: "Iron"}})
	cfg := testConfig(t, mock)

	result, err := Doctor(context.Background(), DoctorOptions{
		Config:      cfg,
		Groups:      []string{doctor.GroupPing, doctor.GroupVersions, doctor.GroupCache},
		NpmVersion:  "10.2.4",
		NodeVersion: "v20.10.0",
	})
	require.NoError(t, err)

	report := result.Report
	require.Len(t, report.Results, 4)
	for _, r := range report.Results {
		assert.Equal(t, doctor.StatusOK, r.Status, "%s: %s", r.Name, r.Message)
	}
	npm, ok := report.Result("npm-version")
	require.True(t, ok)
	assert.Equal(t, "current: v10.2.4, latest: v10.2.4", npm.Message)
	assert.Equal(t, 1, mock.Hits("/-/ping?write=true"))
	assert.Equal(t, 1, mock.Hits("/dist/index.json"))
}

func TestDoctorRecordsRunLog(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	mock.Ping(http.StatusOK)
	cfg := testConfig(t, mock)

	result, err := Doctor(context.Background(), DoctorOptions{Config: cfg, Groups: []string{doctor.GroupPing}})
	require.NoError(t, err)

	entries, err := audit.RunLog{Dir: cfg.LogsDir(), Max: cfg.LogsMax}.ReadEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, result.Entry.RunID, entries[0].RunID)
	assert.Equal(t, "ok", entries[0].Status)
	assert.Equal(t, []string{"ping"}, entries[0].Groups)
}

func TestDoctorRunLogStaysOutsideAuditedCache(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	mock.Ping(http.StatusOK)
	cfg := testConfig(t, mock)

	_, err := Doctor(context.Background(), DoctorOptions{Config: cfg, Groups: []string{doctor.GroupPing}})
	require.NoError(t, err)

	logPath := filepath.Join(cfg.LogsDir(), audit.FileName)
	require.FileExists(t, logPath)
	rel, err := filepath.Rel(cfg.CacheDir(), logPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, ".."), "run log %s is inside %s", logPath, cfg.CacheDir())
}

func TestDoctorRunLogDisabled(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	mock.Ping(http.StatusOK)
	cfg := testConfig(t, mock)
	cfg.LogsMax = 0

	result, err := Doctor(context.Background(), DoctorOptions{Config: cfg, Groups: []string{doctor.GroupPing}})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Entry.RunID)
	assert.NoFileExists(t, filepath.Join(cfg.LogsDir(), audit.FileName))
}

func TestDoctorInvalidProxyMakesNoRequests(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	cfg := testConfig(t, mock)
	cfg.Proxy = "ssh://npmjs.org"

	result, err := Doctor(context.Background(), DoctorOptions{
		Config:      cfg,
		Groups:      []string{doctor.GroupPing, doctor.GroupVersions},
		NpmVersion:  "10.2.4",
		NodeVersion: "v20.10.0",
	})
	require.NoError(t, err)

	for _, r := range result.Report.Results {
		assert.Equal(t, doctor.StatusError, r.Status, r.Name)
		assert.Contains(t, r.Message, `invalid protocol "ssh:" for proxy "ssh://npmjs.org"`)
	}
	assert.Zero(t, mock.Requests())
}

func TestDoctorUnknownGroup(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})

	_, err := Doctor(context.Background(), DoctorOptions{Config: testConfig(t, mock), Groups: []string{"bogus"}})

	assert.ErrorIs(t, err, kerrors.ErrUnknownCheck)
	assert.Zero(t, mock.Requests())
}

func TestDoctorRequiresConfig(t *testing.T) {
	_, err := Doctor(context.Background(), DoctorOptions{})

	assert.ErrorIs(t, err, kerrors.ErrInvalidConfig)
}

func TestDoctorInvalidRegistryURL(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{})
	cfg := testConfig(t, mock)
	cfg.Registry = "registry.example.com"

	_, err := Doctor(context.Background(), DoctorOptions{Config: cfg, Groups: []string{doctor.GroupPing}})

	assert.ErrorIs(t, err, kerrors.ErrInvalidConfig)
}

func TestDoctorSendsToken(t *testing.T) {
	mock := registrytest.New(t, registrytest.Options{Token: "s3cret"})
	mock.Ping(http.StatusOK)
	cfg := testConfig(t, mock)
	cfg.Token = "s3cret"

	result, err := Doctor(context.Background(), DoctorOptions{Config: cfg, Groups: []string{doctor.GroupPing}})
	require.NoError(t, err)

	ping, ok := result.Report.Result("ping")
	require.True(t, ok)
	assert.Equal(t, doctor.StatusOK, ping.Status, ping.Message)
}

func TestUserAgent(t *testing.T) {
	assert.Contains(t, userAgent("1.2.3", "v20.10.0"), "pkgdoctor/1.2.3 node/v20.10.0 ")
	assert.Contains(t, userAgent("", ""), "pkgdoctor/dev ")
}
