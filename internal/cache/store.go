package cache

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Layout of a cache directory.
const (
	IndexDir   = "index-v5"
	ContentDir = "content-v2"
)

// Stats is the outcome of a verification pass.
type Stats struct {
	TotalEntries    int   `json:"totalEntries"`
	VerifiedContent int   `json:"verifiedContent"`
	BadContentCount int   `json:"badContentCount"`
	ReclaimedCount  int   `json:"reclaimedCount"`
	MissingContent  int   `json:"missingContent"`
	KeptSize        int64 `json:"keptSize"`
	ReclaimedSize   int64 `json:"reclaimedSize"`
	RejectedEntries int   `json:"rejectedEntries"`
}

// Healthy reports whether nothing is corrupt, missing or reclaimable.
func (s Stats) Healthy() bool {
	return s.BadContentCount == 0 && s.ReclaimedCount == 0 && s.MissingContent == 0
}

// Entry is one index record.
type Entry struct {
	Key       string          `json:"key"`
	Integrity *string         `json:"integrity"`
	Time      int64           `json:"time"`
	Size      int64           `json:"size,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Store is a cacache directory, usually "<cache>/_cacache".
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Entries reads every index bucket and returns the live entries keyed by
// cache key. Later lines override earlier ones and a null integrity
// deletes the key. Lines whose checksum does not match are counted as
// rejected and skipped.
func (s *Store) Entries(ctx context.Context) (map[string]Entry, int, error) {
	buckets, err := s.glob(IndexDir, "**")
	if err != nil {
		return nil, 0, err
	}

	live := make(map[string]Entry)
	rejected := 0
	for _, bucket := range buckets {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		n, err := readBucket(bucket, live)
		if err != nil {
			return nil, 0, err
		}
		rejected += n
	}
	return live, rejected, nil
}

func readBucket(path string, live map[string]Entry) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading index bucket %s: %w", path, err)
	}
	defer f.Close()

	rejected := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		sum, body, ok := strings.Cut(line, "\t")
		if !ok || !checksumMatches(sum, body) {
			rejected++
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(body), &entry); err != nil || entry.Key == "" {
			rejected++
			continue
		}
		if entry.Integrity == nil {
			delete(live, entry.Key)
			continue
		}
		live[entry.Key] = entry
	}
	if err := scanner.Err(); err != nil {
		return rejected, fmt.Errorf("reading index bucket %s: %w", path, err)
	}
	return rejected, nil
}

func checksumMatches(sum, body string) bool {
	h := sha1.Sum([]byte(body))
	return hex.EncodeToString(h[:]) == sum
}

// Verify walks the index and content directories without modifying
// either. A cache directory that does not exist yet verifies clean.
func (s *Store) Verify(ctx context.Context) (Stats, error) {
	var stats Stats

	if _, err := os.Stat(s.Dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}

	live, rejected, err := s.Entries(ctx)
	if err != nil {
		return stats, err
	}
	stats.TotalEntries = len(live)
	stats.RejectedEntries = rejected

	contentRoot := filepath.Join(s.Dir, ContentDir)
	referenced := make(map[string]Integrity)
	for _, entry := range live {
		sri, err := ParseIntegrity(*entry.Integrity)
		if err != nil {
			stats.RejectedEntries++
			continue
		}
		referenced[sri.ContentPath(contentRoot)] = sri
	}

	paths := make([]string, 0, len(referenced))
	for p := range referenced {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		ok, size, err := referenced[p].matchFile(p)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			stats.MissingContent++
		case err != nil:
			return stats, fmt.Errorf("verifying %s: %w", p, err)
		case ok:
			stats.VerifiedContent++
			stats.KeptSize += size
		default:
			stats.BadContentCount++
		}
	}

	content, err := s.glob(ContentDir, "*/*/*/*")
	if err != nil {
		return stats, err
	}
	for _, p := range content {
		if _, ok := referenced[p]; ok {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return stats, fmt.Errorf("reading %s: %w", p, err)
		}
		stats.ReclaimedCount++
		stats.ReclaimedSize += info.Size()
	}

	return stats, nil
}

// glob lists regular files under Dir/sub matching pattern.
func (s *Store) glob(sub, pattern string) ([]string, error) {
	root := filepath.Join(s.Dir, sub)
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	files := make([]string, 0, len(matches))
	for _, rel := range matches {
		m := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", m, err)
		}
		if info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
