package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from arbitrary parts. Parts are
// hashed so citation text never leaks into filenames.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0}) // Separator so ("ab","c") != ("a","bc")
	}
	return "citecheck:v1:" + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}
