// Package checksum computes digests of uploaded file payloads so the
// front-end can deduplicate workbooks across uploads.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// FromBase64 decodes the base64 payload and returns the hex digest for
// the requested algorithm: "md5", "sha1", or "sha256".
func FromBase64(content, algorithm string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	return Sum(data, algorithm)
}

// MustMD5 returns the md5 hex digest of a string. Used for compact,
// deterministic cache keys, not for integrity.
func MustMD5(s string) string {
	h := md5.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// Sum returns the hex digest of data for the requested algorithm.
func Sum(data []byte, algorithm string) (string, error) {
	switch algorithm {
	case "md5":
		h := md5.Sum(data)
		return hex.EncodeToString(h[:]), nil
	case "sha1":
		h := sha1.Sum(data)
		return hex.EncodeToString(h[:]), nil
	case "sha256":
		h := sha256.Sum256(data)
		return hex.EncodeToString(h[:]), nil
	default:
		return "", fmt.Errorf("unsupported algorithm %q", algorithm)
	}
}
