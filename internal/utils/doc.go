// Package utils provides shared helpers for pkgdoctor.
//
// # Filesystem Utilities
//
//   - OSFilesystem: Lstat/Stat/Access/ReadDir on the real filesystem, with
//     uid/gid taken from stat(2) via golang.org/x/sys/unix
//   - FileStat, AccessMode: the values the permission audit works with
//   - FindPackageRoot: walks up to the nearest package.json or node_modules
//
// # System Utilities
//
//   - CurrentIdentity: effective uid/gid of the process
//   - DiscoverVersion: runs "<binary> --version"
//   - PathResolver: resolves executables on PATH
//
// # String Utilities
//
//   - FormatPaths: indented path lists for human-readable output
//   - InPathList: PATH membership test
//
// # Terminal Utilities
//
//   - IsTerminal: checks if a file is a terminal
package utils
