//go:build windows

package registry

import "syscall"

// Windows errnos have no portable symbolic names.
func errnoName(errno syscall.Errno) string {
	return ""
}
