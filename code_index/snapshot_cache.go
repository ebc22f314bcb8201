package code_index

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/askrepo/askrepo/code_index/models"
	"github.com/zeebo/xxh3"
)

// SnapshotCache persists index snapshots on disk so an unchanged codebase
// skips the prefix reads on the next session.
type SnapshotCache struct {
	cacheDir string
	mutex    sync.RWMutex

	hits   int64
	misses int64
}

// NewSnapshotCache creates the cache rooted at cacheDir, defaulting to
// .askrepo-cache under the working directory.
func NewSnapshotCache(cacheDir string) (*SnapshotCache, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cacheDir = filepath.Join(cwd, ".askrepo-cache")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &SnapshotCache{cacheDir: cacheDir}, nil
}

func (sc *SnapshotCache) snapshotPath(root string) string {
	key := fmt.Sprintf("%x.snapshot", xxh3.HashString(root))
	return filepath.Join(sc.cacheDir, key)
}

// Get returns the stored snapshot for root, if any. Validation against the
// current file states is the caller's job.
func (sc *SnapshotCache) Get(root string) (*models.IndexSnapshot, bool) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	data, err := os.ReadFile(sc.snapshotPath(root))
	if err != nil {
		sc.misses++
		return nil, false
	}

	var snapshot models.IndexSnapshot
	decoder := gob.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&snapshot); err != nil {
		// Corrupt snapshot, drop it and rebuild.
		os.Remove(sc.snapshotPath(root))
		sc.misses++
		return nil, false
	}

	sc.hits++
	return &snapshot, true
}

// Set stores the snapshot for its root.
func (sc *SnapshotCache) Set(root string, snapshot *models.IndexSnapshot) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	var buffer bytes.Buffer
	encoder := gob.NewEncoder(&buffer)
	if err := encoder.Encode(snapshot); err != nil {
		return fmt.Errorf("failed to encode index snapshot: %w", err)
	}

	if err := os.WriteFile(sc.snapshotPath(root), buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	return nil
}

// Clear removes every stored snapshot.
func (sc *SnapshotCache) Clear() (int, error) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	entries, err := os.ReadDir(sc.cacheDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var removed int
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".snapshot" {
			continue
		}
		if err := os.Remove(filepath.Join(sc.cacheDir, entry.Name())); err == nil {
			removed++
		}
	}

	return removed, nil
}

// Stats reports snapshot count, total size on disk, and hit/miss counters.
func (sc *SnapshotCache) Stats() (map[string]interface{}, error) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	entries, err := os.ReadDir(sc.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var totalSize int64
	var count int
	newest := time.Time{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".snapshot" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		totalSize += info.Size()
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}

	stats := map[string]interface{}{
		"cache_dir":   sc.cacheDir,
		"snapshots":   count,
		"total_bytes": totalSize,
		"hits":        sc.hits,
		"misses":      sc.misses,
	}
	if count > 0 {
		stats["newest_entry"] = newest.Format(time.RFC3339)
	}

	return stats, nil
}
