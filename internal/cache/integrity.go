package cache

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// algorithms in ascending strength.
var algorithms = []string{"sha1", "sha256", "sha512"}

// digestSizes is the decoded digest length for each algorithm.
var digestSizes = map[string]int{"sha1": sha1.Size, "sha256": sha256.Size, "sha512": sha512.Size}

// Integrity is a single parsed SRI hash.
type Integrity struct {
	Algorithm string
	Digest    []byte
}

// ParseIntegrity parses an SRI string such as "sha512-<base64>". When
// several space-separated hashes are present the strongest supported one
// wins. Options after '?' are ignored, as are hashes whose digest has
// the wrong length for their algorithm.
func ParseIntegrity(sri string) (Integrity, error) {
	var best Integrity
	bestRank := -1
	for _, field := range strings.Fields(sri) {
		algo, b64, ok := strings.Cut(field, "-")
		if !ok {
			continue
		}
		b64, _, _ = strings.Cut(b64, "?")
		rank := rankOf(algo)
		if rank < 0 || rank <= bestRank {
			continue
		}
		digest, err := base64.StdEncoding.DecodeString(b64)
		if err != nil || len(digest) != digestSizes[algo] {
			continue
		}
		best = Integrity{Algorithm: algo, Digest: digest}
		bestRank = rank
	}
	if bestRank < 0 {
		return Integrity{}, fmt.Errorf("no supported hash in integrity %q", sri)
	}
	return best, nil
}

func rankOf(algo string) int {
	for i, a := range algorithms {
		if a == algo {
			return i
		}
	}
	return -1
}

// String renders the integrity back in SRI form.
func (i Integrity) String() string {
	return i.Algorithm + "-" + base64.StdEncoding.EncodeToString(i.Digest)
}

// Hex is the lowercase hex form of the digest.
func (i Integrity) Hex() string {
	return hex.EncodeToString(i.Digest)
}

// ContentPath is where content with this integrity lives under the
// content-v2 directory: <algo>/<hh>/<hh>/<rest>.
func (i Integrity) ContentPath(contentRoot string) string {
	h := i.Hex()
	if len(h) < 5 {
		return filepath.Join(contentRoot, i.Algorithm, h)
	}
	return filepath.Join(contentRoot, i.Algorithm, h[0:2], h[2:4], h[4:])
}

func newHash(algo string) hash.Hash {
	switch algo {
	case "sha1":
		return sha1.New()
	case "sha256":
		return sha256.New()
	default:
		return sha512.New()
	}
}

// Compute hashes data with algo and returns its integrity.
func Compute(algo string, data []byte) Integrity {
	h := newHash(algo)
	h.Write(data)
	return Integrity{Algorithm: algo, Digest: h.Sum(nil)}
}

// matchFile reports whether the file at path hashes to i, and its size.
// Anything other than a regular file never matches.
func (i Integrity) matchFile(path string) (bool, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, 0, err
	}
	if !info.Mode().IsRegular() {
		return false, 0, nil
	}

	h := newHash(i.Algorithm)
	n, err := io.Copy(h, f)
	if err != nil {
		return false, n, err
	}
	return hex.EncodeToString(h.Sum(nil)) == i.Hex(), n, nil
}
