// Package checksum computes the entity tags used for conditional
// document writes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumJSON returns Sum of the JSON encoding of v.
func SumJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Sum(data), nil
}

// Match reports whether an If-Match header value accepts tag. An empty
// header or "*" accepts anything; quotes around the tag are ignored.
func Match(header, tag string) bool {
	if header == "" || header == "*" {
		return true
	}
	if len(header) >= 2 && header[0] == '"' && header[len(header)-1] == '"' {
		header = header[1 : len(header)-1]
	}
	return header == tag
}
