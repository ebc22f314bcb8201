package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultIgnorePatterns covers VCS metadata, build output, and binary assets
// that never belong in a code index.
var defaultIgnorePatterns = []string{
	"askrepo-config.yml",
	".askrepo-ignore",
	".askrepo-cache",
	".git",
	".svn",
	".idea",
	".vscode",
	".cache",
	"node_modules",
	"bin",
	"obj",
	"dist",
	"out",
	"__pycache__",
	"*.exe",
	"*.dll",
	"*.so",
	"*.log",
	"*.bak",
	"*.zip",
	"*.tar.gz",
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.gif",
	"*.pdf",
	"*.mp3",
	"*.mp4",
	"*.wav",
	"*.avi",
	"*.mov",
	"*.drawio",
	"*.excalidraw",
}

// GetIgnorePatterns reads the patterns from the .askrepo-ignore file in root.
// A missing file yields an empty pattern list.
func GetIgnorePatterns(root string) ([]string, error) {
	ignorePath := filepath.Join(root, ".askrepo-ignore")

	content, err := os.ReadFile(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read .askrepo-ignore: %w", err)
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// IsDefaultIgnored checks each path segment against the default ignore patterns.
func IsDefaultIgnored(path string) bool {
	parts := strings.Split(path, "/")

	for _, part := range parts {
		part = strings.ToLower(part)
		for _, pattern := range defaultIgnorePatterns {
			if strings.HasPrefix(pattern, "*") {
				if strings.HasSuffix(part, strings.TrimPrefix(pattern, "*")) {
					return true
				}
			} else if part == pattern {
				return true
			}
		}
	}
	return false
}

// IsIgnored checks if a path matches any of the user-supplied patterns.
func IsIgnored(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if match, _ := filepath.Match(pattern, path); match {
			return true
		}
		// Patterns like "dir/" ignore entire directories.
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return true
		}
	}
	return false
}
