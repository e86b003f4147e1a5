package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// RenderKey builds the cache key for a rendered SVG. The key is derived from
// the layout engine name and the full hash of the DOT source, so any change
// to either input addresses a different entry and stale renders are
// unreachable by construction.
func RenderKey(engine string, source []byte) string {
	return fmt.Sprintf("render:%s:%s", engine, Hash(source))
}
