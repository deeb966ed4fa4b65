// Package cache provides pluggable key-value caching for catalog search
// results, so repeated runs over an unchanged library do not burn the
// request budget. Providers register themselves by name; the memory
// provider is LRU with TTL, the redis provider delegates expiry to the
// server.
package cache

// Logger receives error reports from cache operations. If nil, errors are
// silently ignored; a cache failure is never fatal to a run.
type Logger interface {
	Error(msg string, err error)
}

// Cache is the minimal key-value surface the catalog client needs.
type Cache interface {
	// Get retrieves a value by key. Returns the value and true on a hit.
	Get(key string) ([]byte, bool)

	// Set stores a value, overwriting any existing entry for the key.
	Set(key string, value []byte)

	// Len returns the number of entries currently held. For external
	// backends this may be approximate.
	Len() int

	// Close releases resources held by the cache (network connections).
	// In-memory caches treat this as a no-op.
	Close() error
}
