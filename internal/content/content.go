package content

import (
	"crypto/sha256"
	"encoding/hex"
)

// IDLength is the fixed length of a content identifier in hex characters.
const IDLength = 16

// Identify returns the content identifier for a blob: the SHA-256 digest
// of the bytes, hex-encoded and truncated to IDLength characters. It is a
// pure function of the content; file name, path, and timestamps play no
// part. Any byte sequence, including empty, produces an id.
func Identify(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:IDLength]
}

// Checksum returns the full SHA-256 digest of the bytes as lowercase hex,
// used for integrity verification of originals and vault artifacts.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidID reports whether s is a well-formed content identifier: exactly
// IDLength lowercase hex characters. Handlers must reject anything else
// before touching the filesystem or catalog.
func ValidID(s string) bool {
	if len(s) != IDLength {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
