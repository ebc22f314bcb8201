package contracts

import "github.com/askrepo/askrepo/code_index/models"

// ICodeIndex is the read-only catalogue of files available to a session.
type ICodeIndex interface {
	// Records returns all file records in walk order.
	Records() []models.FileRecord
	// Lookup returns the record for an exact path.
	Lookup(path string) (models.FileRecord, bool)
	// ListDirectory returns records whose path starts with the given prefix.
	ListDirectory(prefix string) []models.FileRecord
	// Len returns the number of indexed files.
	Len() int
}
