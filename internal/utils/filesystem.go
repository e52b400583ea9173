package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStat is the subset of stat(2) the permission audit needs.
type FileStat struct {
	UID  int
	GID  int
	Mode fs.FileMode
	Size int64
}

// IsDir reports whether the entry is a directory.
func (s FileStat) IsDir() bool { return s.Mode.IsDir() }

// IsRegular reports whether the entry is a regular file.
func (s FileStat) IsRegular() bool { return s.Mode.IsRegular() }

// IsSymlink reports whether the entry is a symbolic link.
func (s FileStat) IsSymlink() bool { return s.Mode&fs.ModeSymlink != 0 }

// AccessMode is an access(2) mask.
type AccessMode uint32

const (
	AccessExec  AccessMode = 1
	AccessWrite AccessMode = 2
	AccessRead  AccessMode = 4
)

// String renders the mask as a comma separated list, e.g. "read, write".
func (m AccessMode) String() string {
	var parts []string
	if m&AccessRead != 0 {
		parts = append(parts, "read")
	}
	if m&AccessWrite != 0 {
		parts = append(parts, "write")
	}
	if m&AccessExec != 0 {
		parts = append(parts, "execute")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// OSFilesystem reads the real filesystem. Lstat and Access are
// implemented per platform.
type OSFilesystem struct{}

// Stat follows symbolic links.
func (f OSFilesystem) Stat(path string) (FileStat, error) {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return FileStat{}, err
	}
	return f.Lstat(target)
}

// ReadDir returns the sorted entry names of a directory.
func (OSFilesystem) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// FindPackageRoot walks up from start to the nearest directory that holds
// a package.json or a node_modules directory. If none is found, start is
// returned, which is how npm picks its local prefix.
func FindPackageRoot(start string) (string, error) {
	currentDir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}
	origin := currentDir

	for {
		if _, err := os.Stat(filepath.Join(currentDir, "package.json")); err == nil {
			return currentDir, nil
		}
		info, err := os.Stat(filepath.Join(currentDir, "node_modules"))
		if err == nil && info.IsDir() {
			return currentDir, nil
		} else if err != nil && !os.IsNotExist(err) {
			// Return any error that's not "file not found" (like permission issues)
			return "", fmt.Errorf("error checking for node_modules at %s: %w", currentDir, err)
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return origin, nil
		}
		currentDir = parentDir
	}
}
