package models

import "time"

// FileRecord is one entry of the session file index. Built once when the
// index is constructed and immutable for the session.
type FileRecord struct {
	Path      string
	LineCount int
	Extension string
	Preview   string
	// Outline lists declarations extracted from the indexed prefix, when the
	// file's language is supported. Empty otherwise.
	Outline string
}

// FileState captures the on-disk state of one file for snapshot validation.
type FileState struct {
	Size    int64
	ModTime time.Time
}

// IndexSnapshot is the persisted form of a built index, reused across
// sessions while no file changes.
type IndexSnapshot struct {
	RootDir   string
	Timestamp time.Time
	Files     map[string]FileState
	Records   []FileRecord
}
