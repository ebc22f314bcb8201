package code_index

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/askrepo/askrepo/code_index/contracts"
	"github.com/askrepo/askrepo/code_index/models"
	fm_contracts "github.com/askrepo/askrepo/file_memory/contracts"
	"github.com/askrepo/askrepo/utils"
)

// BuildError reports a failed index construction: missing root or a root
// with zero eligible files. Fatal to session start.
type BuildError struct {
	Root   string
	Reason string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to build file index for %s: %s: %v", e.Root, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to build file index for %s: %s", e.Root, e.Reason)
}

func (e *BuildError) Unwrap() error { return e.Err }

// BuilderOptions tunes index construction.
type BuilderOptions struct {
	// PreviewChars caps the preview stored per record.
	PreviewChars int
	// PrefixBytes bounds how much of each file is read. Index construction
	// cost stays linear in file count, not file size.
	PrefixBytes int
	// MaxFileBytes skips files larger than this.
	MaxFileBytes int64
	// EnableOutline extracts a tree-sitter declaration outline from the prefix.
	EnableOutline bool
	// SnapshotCache reuses a previous build while no file changed. Optional.
	SnapshotCache *SnapshotCache
}

// DefaultBuilderOptions mirrors the session defaults.
var DefaultBuilderOptions = BuilderOptions{
	PreviewChars:  500,
	PrefixBytes:   8192,
	MaxFileBytes:  100 * 1024,
	EnableOutline: true,
}

// CodeIndex is the immutable session catalogue of eligible files.
type CodeIndex struct {
	root    string
	records []models.FileRecord
	byPath  map[string]models.FileRecord
}

// Build walks the codebase root once and produces the file index, applying
// default ignore patterns plus .askrepo-ignore. Previews and outlines come
// from a bounded prefix read through the reader collaborator.
func Build(root string, reader fm_contracts.IFileReader, opts BuilderOptions) (contracts.ICodeIndex, error) {
	ignorePatterns, err := utils.GetIgnorePatterns(root)
	if err != nil {
		return nil, &BuildError{Root: root, Reason: "failed to read ignore patterns", Err: err}
	}

	states, err := collectFileStates(root, ignorePatterns, opts.MaxFileBytes)
	if err != nil {
		return nil, &BuildError{Root: root, Reason: "root path is not readable", Err: err}
	}
	if len(states) == 0 {
		return nil, &BuildError{Root: root, Reason: "no eligible files found"}
	}

	if opts.SnapshotCache != nil {
		if snapshot, found := opts.SnapshotCache.Get(root); found && snapshotMatches(snapshot, states) {
			return newCodeIndex(root, snapshot.Records), nil
		}
	}

	records := make([]models.FileRecord, 0, len(states))
	for _, state := range states {
		prefix, err := reader.ReadPrefix(state.path, opts.PrefixBytes)
		if err != nil {
			// Unreadable files are skipped, not fatal to the build.
			continue
		}

		record := models.FileRecord{
			Path:      state.path,
			LineCount: estimateLineCount(prefix, opts.PrefixBytes, state.size),
			Extension: filepath.Ext(state.path),
			Preview:   clipPreview(prefix, opts.PreviewChars),
		}
		if opts.EnableOutline {
			record.Outline = ExtractOutline(state.path, []byte(prefix))
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, &BuildError{Root: root, Reason: "no eligible files found"}
	}

	if opts.SnapshotCache != nil {
		snapshot := &models.IndexSnapshot{
			RootDir:   root,
			Timestamp: time.Now(),
			Files:     make(map[string]models.FileState, len(states)),
			Records:   records,
		}
		for _, state := range states {
			snapshot.Files[state.path] = models.FileState{Size: state.size, ModTime: state.modTime}
		}
		// A failed snapshot write only costs the next session a rebuild.
		_ = opts.SnapshotCache.Set(root, snapshot)
	}

	return newCodeIndex(root, records), nil
}

type fileState struct {
	path    string
	size    int64
	modTime time.Time
}

func collectFileStates(root string, ignorePatterns []string, maxFileBytes int64) ([]fileState, error) {
	var states []fileState

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relativePath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relativePath = strings.ReplaceAll(relativePath, "\\", "/")

		if relativePath == "." {
			return nil
		}

		if utils.IsDefaultIgnored(relativePath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if utils.IsIgnored(relativePath, ignorePatterns) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if maxFileBytes > 0 && info.Size() > maxFileBytes {
			return nil
		}

		states = append(states, fileState{path: relativePath, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return states, nil
}

func snapshotMatches(snapshot *models.IndexSnapshot, states []fileState) bool {
	if len(snapshot.Files) != len(states) {
		return false
	}
	for _, state := range states {
		cached, found := snapshot.Files[state.path]
		if !found || cached.Size != state.size || !cached.ModTime.Equal(state.modTime) {
			return false
		}
	}
	return true
}

// estimateLineCount returns an exact newline count when the whole file fit in
// the prefix, and otherwise an estimate from the prefix's mean line length.
func estimateLineCount(prefix string, prefixBytes int, size int64) int {
	lines := strings.Count(prefix, "\n") + 1
	if len(prefix) < prefixBytes || int64(len(prefix)) >= size {
		return lines
	}
	avgLineLen := len(prefix) / lines
	if avgLineLen == 0 {
		return lines
	}
	return int(size) / avgLineLen
}

func clipPreview(prefix string, previewChars int) string {
	if previewChars > 0 && len(prefix) > previewChars {
		return prefix[:previewChars]
	}
	return prefix
}

func newCodeIndex(root string, records []models.FileRecord) *CodeIndex {
	byPath := make(map[string]models.FileRecord, len(records))
	for _, record := range records {
		byPath[record.Path] = record
	}
	return &CodeIndex{root: root, records: records, byPath: byPath}
}

func (idx *CodeIndex) Records() []models.FileRecord {
	records := make([]models.FileRecord, len(idx.records))
	copy(records, idx.records)
	return records
}

func (idx *CodeIndex) Lookup(path string) (models.FileRecord, bool) {
	record, found := idx.byPath[path]
	return record, found
}

func (idx *CodeIndex) ListDirectory(prefix string) []models.FileRecord {
	var matches []models.FileRecord
	for _, record := range idx.records {
		if strings.HasPrefix(record.Path, prefix) {
			matches = append(matches, record)
		}
	}
	return matches
}

func (idx *CodeIndex) Len() int {
	return len(idx.records)
}
