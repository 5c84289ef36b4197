// Package cache holds the in-process cache backends and the key layout
// shared with the redis backend.
package cache

// KeyPrefix namespaces short-link entries in a shared cache.
const KeyPrefix = "short:"

// Key returns the cache key for a short code.
func Key(shortCode string) string {
	return KeyPrefix + shortCode
}
