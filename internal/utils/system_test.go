package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
)

func TestGetUsername(t *testing.T) {
	username, err := GetUsername()
	if err != nil {
		t.Fatalf("GetUsername failed: %v", err)
	}
	if username == "" {
		t.Fatal("Expected non-empty username")
	}
}

func TestCurrentIdentity(t *testing.T) {
	id := CurrentIdentity()
	if runtime.GOOS == "windows" {
		return
	}
	if id.UID != os.Geteuid() || id.GID != os.Getegid() {
		t.Errorf("CurrentIdentity() = %+v, want uid=%d gid=%d", id, os.Geteuid(), os.Getegid())
	}
}

func TestDiscoverVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "fake-npm")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 10.2.4\necho extra\n"), 0o755); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}

	version, err := DiscoverVersion(context.Background(), script)
	if err != nil {
		t.Fatalf("DiscoverVersion failed: %v", err)
	}
	if version != "v10.2.4" {
		t.Errorf("DiscoverVersion() = %q, want %q", version, "v10.2.4")
	}

	if _, err := DiscoverVersion(context.Background(), filepath.Join(dir, "missing")); err == nil {
		t.Error("DiscoverVersion should fail for a missing binary")
	}
}

func TestPathResolver(t *testing.T) {
	_, err := PathResolver{}.Resolve("definitely-not-a-real-binary-pkgdoctor")
	if err == nil {
		t.Fatal("Resolve should fail for an unknown binary")
	}
	if !kerrors.Is(err, kerrors.ErrToolMissing) {
		t.Errorf("Resolve error should wrap ErrToolMissing, got %v", err)
	}
}

func TestInPathList(t *testing.T) {
	sep := string(os.PathListSeparator)
	list := "/usr/bin" + sep + "/usr/local/bin/" + sep + sep + "/opt/bin"

	tests := []struct {
		dir  string
		want bool
	}{
		{"/usr/local/bin", true},
		{"/usr/bin/", true},
		{"/opt/bin", true},
		{"/sbin", false},
	}
	for _, tt := range tests {
		if runtime.GOOS == "windows" {
			t.Skip("posix paths")
		}
		if got := InPathList(tt.dir, list); got != tt.want {
			t.Errorf("InPathList(%q) = %v, want %v", tt.dir, got, tt.want)
		}
	}
}
