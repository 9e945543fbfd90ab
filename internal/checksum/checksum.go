// Package checksum computes the revision digests stored in the index and
// served as ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Note returns the digest that identifies an indexed revision of a note:
// its title and content separated by a NUL byte.
func Note(title, content string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}
