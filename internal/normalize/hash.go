package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// FileDigest returns the hex SHA-256 of the file at path and its size in
// bytes. Exports record the digest so a report row can be traced to the
// exact catalog it was computed from.
func FileDigest(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open catalog for digest: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("digest catalog: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
