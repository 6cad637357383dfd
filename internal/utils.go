package internal

import (
	"crypto/sha1"
	"encoding/hex"
)

// URLDigest returns the lowercase hex SHA-1 of the URL text.
// The digest is taken over the URL string, never over the content it points to.
func URLDigest(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// DigestFilename returns the on-disk file name for an image URL: <sha1>.jpg
func DigestFilename(rawURL string) string {
	return URLDigest(rawURL) + ".jpg"
}
