package models

// CacheEntry holds the cached (possibly truncated) content of one file.
type CacheEntry struct {
	Path      string
	Content   string
	Truncated bool
}
