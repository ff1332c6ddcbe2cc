// Package digest computes the content hashes used for ETags, export
// checksums and unchanged-file detection.
package digest

import (
	"encoding/hex"
	"io"

	"golang.org/x/crypto/blake2b"
)

// Sum returns the hex BLAKE2b-256 digest of data.
func Sum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Reader returns the hex BLAKE2b-256 digest of everything read from r.
func Reader(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ETag returns a strong entity tag for data.
func ETag(data []byte) string {
	return `"` + Sum(data)[:32] + `"`
}
