// Package checksum computes content digests and converts them to and from
// HTTP entity tags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag formats a digest as a strong entity tag.
func ETag(sum string) string {
	return strconv.Quote(sum)
}

// FromETag extracts the digest from an If-Match or ETag header value.
// Bare digests, quoted tags and weak tags are all accepted.
func FromETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}

// Matches reports whether data hashes to want. An empty want matches
// anything.
func Matches(data []byte, want string) bool {
	return want == "" || Sum(data) == want
}
