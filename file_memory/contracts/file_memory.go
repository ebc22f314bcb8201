package contracts

import "github.com/askrepo/askrepo/file_memory/models"

// IFileReader is the file I/O collaborator used by the index and the cache.
type IFileReader interface {
	// ReadFull reads the whole file.
	ReadFull(path string) (string, error)
	// ReadPrefix reads at most maxBytes from the start of the file.
	ReadPrefix(path string, maxBytes int) (string, error)
}

// IFileMemory is the session-scoped file content cache.
type IFileMemory interface {
	// Get returns the cached entry for path, loading and caching it on first
	// access. A failed load is not cached, so a later retry can succeed.
	Get(path string) (models.CacheEntry, error)
	// Contains reports whether path is cached, without any I/O.
	Contains(path string) bool
	// Snapshot returns the cached paths in insertion order.
	Snapshot() []string
	// Len returns the number of cached entries.
	Len() int
	// Wipe removes all entries. Explicit user action, never invoked automatically.
	Wipe()
	// Stats returns cache hit and miss counts since session start.
	Stats() (hits int64, misses int64)
}
