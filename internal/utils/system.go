package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strings"

	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
)

// GetUsername returns the current username.
func GetUsername() (string, error) {
	user, err := user.Current()
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// Identity is the effective owner the permission audit compares against.
type Identity struct {
	UID int
	GID int
}

// CurrentIdentity returns the effective uid/gid of the process. On
// platforms without them both are -1.
func CurrentIdentity() Identity {
	return Identity{UID: os.Geteuid(), GID: os.Getegid()}
}

// DiscoverVersion runs "<binary> --version" and returns the trimmed
// output with a leading "v", e.g. "v10.2.4".
func DiscoverVersion(ctx context.Context, binary string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "--version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("running %s --version: %w: %s", binary, err, msg)
		}
		return "", fmt.Errorf("running %s --version: %w", binary, err)
	}

	version := strings.TrimSpace(stdout.String())
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = version[:i]
	}
	if version == "" {
		return "", fmt.Errorf("%s --version printed nothing", binary)
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return version, nil
}

// PathResolver resolves executables on the process PATH.
type PathResolver struct{}

// Resolve returns the absolute path of name.
func (PathResolver) Resolve(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", name, kerrors.ErrToolMissing, err)
	}
	return path, nil
}
