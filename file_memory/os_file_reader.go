package file_memory

import (
	"io"
	"os"
	"path/filepath"

	"github.com/askrepo/askrepo/file_memory/contracts"
)

// OSFileReader reads files relative to a codebase root directory.
type OSFileReader struct {
	Root string
}

// NewOSFileReader creates a reader rooted at the given directory.
func NewOSFileReader(root string) contracts.IFileReader {
	return &OSFileReader{Root: root}
}

func (r *OSFileReader) ReadFull(path string) (string, error) {
	content, err := os.ReadFile(filepath.Join(r.Root, path))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (r *OSFileReader) ReadPrefix(path string, maxBytes int) (string, error) {
	f, err := os.Open(filepath.Join(r.Root, path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, maxBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	return string(buf[:n]), nil
}
