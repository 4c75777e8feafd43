package incremental

import (
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/cespare/xxhash/v2"
)

// HashFile computes the xxHash64 of a file's contents as hex.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Fingerprint maps input paths to content hashes. An unreadable file maps to
// the empty string, so a deletion still changes the fingerprint.
type Fingerprint map[string]string

// FingerprintFiles hashes every path.
func FingerprintFiles(paths []string) Fingerprint {
	fp := make(Fingerprint, len(paths))
	for _, path := range paths {
		hash, err := HashFile(path)
		if err != nil {
			hash = ""
		}
		fp[path] = hash
	}
	return fp
}

// Equal reports whether both fingerprints cover the same files with the
// same contents.
func (fp Fingerprint) Equal(other Fingerprint) bool {
	return maps.Equal(fp, other)
}
