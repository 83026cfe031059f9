// Package secret provides answer normalization and digest matching.
// Only digests are ever stored or compared; plaintext answers never leave
// the matching call. This package is PURE domain logic.
package secret

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize trims leading/trailing whitespace and lowercases the candidate.
// Internal characters are preserved exactly.
func Normalize(candidate string) string {
	return strings.ToLower(strings.TrimSpace(candidate))
}

// Digest computes the lowercase hex SHA-256 of the normalized candidate.
func Digest(candidate string) string {
	sum := sha256.Sum256([]byte(Normalize(candidate)))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether the candidate's normalized digest equals the
// stored digest. Returns false on any mismatch; never fails for
// well-formed string input.
func Matches(candidate, digest string) bool {
	return Digest(candidate) == strings.ToLower(digest)
}
