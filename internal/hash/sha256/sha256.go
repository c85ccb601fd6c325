// Package sha256 fingerprints rendered pages so runs can be compared in logs.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher produces hex SHA-256 digests.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of data.
func (h *Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Short returns the first 12 hex characters of the digest, enough to tell
// page versions apart in a log line.
func (h *Hasher) Short(data []byte) string {
	return h.Hash(data)[:12]
}
