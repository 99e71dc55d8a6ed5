package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the opaque key-value store the fetch layer writes raw database
// responses through. Implementations must be safe for concurrent use; a
// failing backend is treated as a miss by callers, never as a run error.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Fingerprint builds the cache key for one outbound request. The source
// name is part of the key so two databases can never collide on a URL.
func Fingerprint(source, url string) string {
	hash := sha256.Sum256([]byte(source + "\x00" + url))
	return "athanor:v1:" + hex.EncodeToString(hash[:])
}

// Nop is a no-op cache used when caching is disabled.
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
