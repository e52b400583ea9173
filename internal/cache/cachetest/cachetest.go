// Package cachetest writes cache directories in the layout the package
// manager produces, for tests that verify them.
package cachetest

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/pkgdoctor/internal/cache"
)

// BucketPath is the index bucket that holds key.
func BucketPath(dir, key string) string {
	sum := sha256.Sum256([]byte(key))
	h := hex.EncodeToString(sum[:])
	return filepath.Join(dir, cache.IndexDir, h[0:2], h[2:4], h[4:])
}

// AppendIndex appends entry to its bucket with a valid line checksum.
func AppendIndex(t testing.TB, dir string, entry cache.Entry) {
	t.Helper()
	body, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("cachetest: marshal entry: %v", err)
	}
	sum := sha1.Sum(body)

	path := BucketPath(dir, entry.Key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("cachetest: %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("cachetest: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(hex.EncodeToString(sum[:]) + "\t" + string(body) + "\n"); err != nil {
		t.Fatalf("cachetest: %v", err)
	}
}

// WriteContent stores data at the content path for sri and returns the path.
func WriteContent(t testing.TB, dir string, sri cache.Integrity, data []byte) string {
	t.Helper()
	path := sri.ContentPath(filepath.Join(dir, cache.ContentDir))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("cachetest: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("cachetest: %v", err)
	}
	return path
}

// Put stores data under key with a sha512 integrity.
func Put(t testing.TB, dir, key string, data []byte) cache.Integrity {
	t.Helper()
	sri := cache.Compute("sha512", data)
	WriteContent(t, dir, sri, data)
	s := sri.String()
	AppendIndex(t, dir, cache.Entry{Key: key, Integrity: &s, Time: 1, Size: int64(len(data))})
	return sri
}

// Corrupt replaces the content stored for sri.
func Corrupt(t testing.TB, dir string, sri cache.Integrity) {
	t.Helper()
	WriteContent(t, dir, sri, []byte("corrupted"))
}
