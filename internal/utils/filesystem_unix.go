//go:build !windows

package utils

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// Lstat stats path without following a final symbolic link.
func (OSFilesystem) Lstat(path string) (FileStat, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return FileStat{}, &fs.PathError{Op: "lstat", Path: path, Err: err}
	}

	mode := fs.FileMode(uint32(st.Mode) & 0o777)
	switch uint32(st.Mode) & unix.S_IFMT {
	case unix.S_IFDIR:
		mode |= fs.ModeDir
	case unix.S_IFLNK:
		mode |= fs.ModeSymlink
	case unix.S_IFIFO:
		mode |= fs.ModeNamedPipe
	case unix.S_IFSOCK:
		mode |= fs.ModeSocket
	case unix.S_IFCHR:
		mode |= fs.ModeDevice | fs.ModeCharDevice
	case unix.S_IFBLK:
		mode |= fs.ModeDevice
	}

	return FileStat{
		UID:  int(st.Uid),
		GID:  int(st.Gid),
		Mode: mode,
		Size: st.Size,
	}, nil
}

// Access checks the calling process's permissions on path.
func (OSFilesystem) Access(path string, mode AccessMode) error {
	if err := unix.Access(path, uint32(mode)); err != nil {
		return &fs.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}

// POSIXOwnership reports whether files carry uid/gid owners on this platform.
func POSIXOwnership() bool { return true }
