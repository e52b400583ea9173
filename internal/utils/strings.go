package utils

import (
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/pkgdoctor/internal/ui"
)

// FormatPaths formats a slice of paths into an indented list.
func FormatPaths(paths []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, path := range paths {
		b.WriteString("    - ")
		b.WriteString(ui.Path.Sprint(path))
		b.WriteString("\n")
	}
	return b.String()
}

// InPathList reports whether dir is one of the entries of a PATH-style list.
func InPathList(dir, pathList string) bool {
	want := filepath.Clean(dir)
	for _, entry := range filepath.SplitList(pathList) {
		if entry == "" {
			continue
		}
		if filepath.Clean(entry) == want {
			return true
		}
	}
	return false
}
