//go:build windows

package utils

import (
	"os"
)

// Lstat stats path without following a final symbolic link. Windows has
// no uid/gid, so both are reported as 0.
func (OSFilesystem) Lstat(path string) (FileStat, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return FileStat{}, err
	}
	return FileStat{Mode: info.Mode(), Size: info.Size()}, nil
}

// Access approximates access(2) by opening the entry for reading.
func (OSFilesystem) Access(path string, mode AccessMode) error {
	if mode&AccessRead == 0 {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// POSIXOwnership reports whether files carry uid/gid owners on this platform.
func POSIXOwnership() bool { return false }
