package doctor

import (
	"context"
	"os"

	"github.com/PolarWolf314/pkgdoctor/internal/cache"
	"github.com/PolarWolf314/pkgdoctor/internal/registry"
	"github.com/PolarWolf314/pkgdoctor/internal/utils"
)

// Registry is the subset of the registry client the checks use.
type Registry interface {
	Ping(ctx context.Context) error
	Packument(ctx context.Context, name string) (*registry.Packument, error)
}

// VersionIndex fetches the node release index.
type VersionIndex interface {
	FetchIndex(ctx context.Context, url string) ([]registry.Release, error)
}

// Resolver finds executables.
type Resolver interface {
	Resolve(name string) (string, error)
}

// CacheVerifier verifies the content cache without modifying it.
type CacheVerifier interface {
	Verify(ctx context.Context) (cache.Stats, error)
}

// Filesystem is what the permission audit reads.
type Filesystem interface {
	Lstat(path string) (utils.FileStat, error)
	Stat(path string) (utils.FileStat, error)
	Access(path string, mode utils.AccessMode) error
	ReadDir(path string) ([]string, error)
}

// RuntimeContext describes the process being diagnosed. Checks read it
// instead of process globals.
type RuntimeContext struct {
	NpmVersion  string
	NodeVersion string
	UID         int
	GID         int
	// POSIX is false where files carry no uid/gid owners; the permission
	// audit is skipped there.
	POSIX bool
	// PathEnv is the PATH list searched for the global bin directory.
	PathEnv string
}

// CurrentRuntime describes this process. Versions are left for the
// caller to discover.
func CurrentRuntime() RuntimeContext {
	id := utils.CurrentIdentity()
	return RuntimeContext{
		UID:     id.UID,
		GID:     id.GID,
		POSIX:   utils.POSIXOwnership(),
		PathEnv: os.Getenv("PATH"),
	}
}
