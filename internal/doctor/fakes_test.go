package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/PolarWolf314/pkgdoctor/internal/cache"
	"github.com/PolarWolf314/pkgdoctor/internal/registry"
	"github.com/PolarWolf314/pkgdoctor/internal/registry/registrytest"
	"github.com/PolarWolf314/pkgdoctor/internal/utils"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	mu         sync.Mutex
	pingErr    error
	packument  *registry.Packument
	packErr    error
	pingCalls  int
	packCalls  int
	packLookup []string
}

func (f *fakeRegistry) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingCalls++
	return f.pingErr
}

func (f *fakeRegistry) Packument(_ context.Context, name string) (*registry.Packument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packCalls++
	f.packLookup = append(f.packLookup, name)
	return f.packument, f.packErr
}

type fakeIndex struct {
	releases []registry.Release
	err      error
	calls    int
	urls     []string
}

func (f *fakeIndex) FetchIndex(_ context.Context, url string) ([]registry.Release, error) {
	f.calls++
	f.urls = append(f.urls, url)
	return f.releases, f.err
}

type fakeResolver struct {
	path  string
	err   error
	panic bool
}

func (f *fakeResolver) Resolve(string) (string, error) {
	if f.panic {
		panic("resolver exploded")
	}
	return f.path, f.err
}

type fakeCache struct {
	stats cache.Stats
	err   error
}

func (f *fakeCache) Verify(context.Context) (cache.Stats, error) {
	return f.stats, f.err
}

// ownerShiftFS reports every entry as owned by someone else.
type ownerShiftFS struct {
	utils.OSFilesystem
}

func (f ownerShiftFS) Lstat(path string) (utils.FileStat, error) {
	st, err := f.OSFilesystem.Lstat(path)
	st.UID++
	st.GID++
	return st, err
}

// denyFS fails every access check, or only those on regular files.
type denyFS struct {
	utils.OSFilesystem
	filesOnly bool
}

func (f denyFS) Access(path string, mode utils.AccessMode) error {
	if f.filesOnly {
		st, err := f.OSFilesystem.Stat(path)
		if err != nil || !st.IsRegular() {
			return f.OSFilesystem.Access(path, mode)
		}
	}
	return &os.PathError{Op: "access", Path: path, Err: errors.New("Test Error")}
}

// readOnlyFS fails every access check that asks for write access.
type readOnlyFS struct {
	utils.OSFilesystem
}

func (f readOnlyFS) Access(path string, mode utils.AccessMode) error {
	if mode&utils.AccessWrite != 0 {
		return &os.PathError{Op: "access", Path: path, Err: errors.New("read-only")}
	}
	return f.OSFilesystem.Access(path, mode)
}

// readDirFS fails every directory listing.
type readDirFS struct {
	utils.OSFilesystem
}

func (readDirFS) ReadDir(path string) ([]string, error) {
	return nil, errors.New("Test Error")
}

var nodeVersions = []registry.Release{
	{Version: "v2.0.1"},
	{Version: "v2.0.0"},
	{Version: "v1.0.0", LTS: "NpmTestium"},
}

type fixture struct {
	runner   *Runner
	registry *fakeRegistry
	index    *fakeIndex
	resolver *fakeResolver
	cache    *fakeCache

	prefix   string
	global   string
	cacheDir string
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("permission audit needs POSIX ownership")
	}
}

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0o755))
	}
}

// newFixture lays out a healthy installation:
//
//	prefix/node_modules/{testDir/testFile, testLink -> testDir, .bin}
//	global/{bin, lib/node_modules}
//	cache/
func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	prefix := filepath.Join(root, "prefix")
	global := filepath.Join(root, "global")
	cacheDir := filepath.Join(root, "cache")

	nodeModules := filepath.Join(prefix, "node_modules")
	mkdirs(t,
		filepath.Join(nodeModules, "testDir"),
		filepath.Join(nodeModules, ".bin"),
		filepath.Join(global, "bin"),
		filepath.Join(global, "lib", "node_modules"),
		cacheDir,
	)
	require.NoError(t, os.WriteFile(filepath.Join(nodeModules, "testDir", "testFile"), []byte("test contents"), 0o644))
	if runtime.GOOS != "windows" {
		require.NoError(t, os.Symlink("./testDir", filepath.Join(nodeModules, "testLink")))
	}

	f := &fixture{
		registry: &fakeRegistry{packument: registrytest.Manifest("npm", "1.0.0")},
		index:    &fakeIndex{releases: nodeVersions},
		resolver: &fakeResolver{path: "/path/to/git"},
		cache:    &fakeCache{},
		prefix:   prefix,
		global:   global,
		cacheDir: cacheDir,
	}

	id := utils.CurrentIdentity()
	globalBin := filepath.Join(global, "bin")
	f.runner = &Runner{
		Registry: f.registry,
		Index:    f.index,
		Resolver: f.resolver,
		Cache:    f.cache,
		FS:       utils.OSFilesystem{},
		Runtime: RuntimeContext{
			NpmVersion:  "v1.0.0",
			NodeVersion: "v1.0.0",
			UID:         id.UID,
			GID:         id.GID,
			POSIX:       utils.POSIXOwnership(),
			PathEnv:     globalBin + string(os.PathListSeparator) + "/usr/bin",
		},
		Settings: Settings{
			Registry:        "https://registry.npmjs.org/",
			DefaultRegistry: "https://registry.npmjs.org/",
			PackageName:     "npm",
			NodeIndexURL:    "https://nodejs.org/dist/index.json",
			CacheRoot:       cacheDir,
			LocalDir:        nodeModules,
			LocalBin:        filepath.Join(nodeModules, ".bin"),
			GlobalDir:       filepath.Join(global, "lib", "node_modules"),
			GlobalBin:       globalBin,
			LTSPolicy:       LTSPolicyError,
			Workers:         4,
		},
	}
	return f
}

func (f *fixture) run(t *testing.T) *Report {
	t.Helper()
	return f.runner.Run(context.Background(), Options{})
}

func mustResult(t *testing.T, report *Report, name string) Result {
	t.Helper()
	result, ok := report.Result(name)
	require.True(t, ok, "missing result %s", name)
	return result
}
