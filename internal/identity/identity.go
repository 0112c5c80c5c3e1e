// Package identity derives the stable content identifier used as the
// primary key for video records.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Identify returns the lowercase hex SHA-256 of the absolute file path.
// The id is stable across rescans of the same path; a moved or renamed
// file therefore receives a new identity.
func Identify(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}
