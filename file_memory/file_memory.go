package file_memory

import (
	"fmt"
	"sync"

	"github.com/askrepo/askrepo/file_memory/contracts"
	"github.com/askrepo/askrepo/file_memory/models"
)

// ReadError reports a failed file load. The path is not cached on failure.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read file %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// TruncationPolicy bounds cached content: files longer than MaxChars keep a
// head and a tail segment joined by an elision marker, preserving imports and
// declarations at the start and summaries or exports at the end.
type TruncationPolicy struct {
	MaxChars  int
	HeadChars int
	TailChars int
}

// DefaultTruncationPolicy mirrors the 8000/6000/2000 character ceilings.
var DefaultTruncationPolicy = TruncationPolicy{
	MaxChars:  8000,
	HeadChars: 6000,
	TailChars: 2000,
}

// FileMemory is the session-scoped cache of loaded file contents. Entries are
// added and never silently overwritten; only Wipe removes them.
type FileMemory struct {
	mutex  sync.RWMutex
	reader contracts.IFileReader
	policy TruncationPolicy

	entries map[string]models.CacheEntry
	order   []string

	hits   int64
	misses int64
}

// NewFileMemory creates an empty cache reading through the given reader.
func NewFileMemory(reader contracts.IFileReader, policy TruncationPolicy) contracts.IFileMemory {
	return &FileMemory{
		reader:  reader,
		policy:  policy,
		entries: make(map[string]models.CacheEntry),
	}
}

func (fm *FileMemory) Get(path string) (models.CacheEntry, error) {
	fm.mutex.RLock()
	entry, found := fm.entries[path]
	fm.mutex.RUnlock()
	if found {
		fm.recordHit()
		return entry, nil
	}

	content, err := fm.reader.ReadFull(path)
	if err != nil {
		fm.recordMiss()
		return models.CacheEntry{}, &ReadError{Path: path, Err: err}
	}

	entry = fm.truncate(path, content)

	fm.mutex.Lock()
	// Another Get for the same path may have won the race; keep the first entry.
	if existing, found := fm.entries[path]; found {
		fm.mutex.Unlock()
		fm.recordHit()
		return existing, nil
	}
	fm.entries[path] = entry
	fm.order = append(fm.order, path)
	fm.mutex.Unlock()

	fm.recordMiss()
	return entry, nil
}

func (fm *FileMemory) truncate(path string, content string) models.CacheEntry {
	if fm.policy.MaxChars <= 0 || len(content) <= fm.policy.MaxChars {
		return models.CacheEntry{Path: path, Content: content}
	}

	marker := fmt.Sprintf("\n\n... (truncated %d chars) ...\n\n", len(content)-fm.policy.MaxChars)
	truncated := content[:fm.policy.HeadChars] + marker + content[len(content)-fm.policy.TailChars:]

	return models.CacheEntry{Path: path, Content: truncated, Truncated: true}
}

func (fm *FileMemory) Contains(path string) bool {
	fm.mutex.RLock()
	defer fm.mutex.RUnlock()
	_, found := fm.entries[path]
	return found
}

func (fm *FileMemory) Snapshot() []string {
	fm.mutex.RLock()
	defer fm.mutex.RUnlock()
	paths := make([]string, len(fm.order))
	copy(paths, fm.order)
	return paths
}

func (fm *FileMemory) Len() int {
	fm.mutex.RLock()
	defer fm.mutex.RUnlock()
	return len(fm.entries)
}

func (fm *FileMemory) Wipe() {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	fm.entries = make(map[string]models.CacheEntry)
	fm.order = nil
}

func (fm *FileMemory) Stats() (int64, int64) {
	fm.mutex.RLock()
	defer fm.mutex.RUnlock()
	return fm.hits, fm.misses
}

func (fm *FileMemory) recordHit() {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	fm.hits++
}

func (fm *FileMemory) recordMiss() {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	fm.misses++
}
