package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDefaultIgnored(t *testing.T) {
	tests := []struct {
		path    string
		ignored bool
	}{
		{"src/main.go", false},
		{".git/config", true},
		{"node_modules/pkg/index.js", true},
		{"assets/logo.png", true},
		{"build.log", true},
		{"cmd/root.go", false},
		{"__pycache__/mod.pyc", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ignored, IsDefaultIgnored(tt.path), tt.path)
	}
}

func TestGetIgnorePatterns(t *testing.T) {
	tempDir := t.TempDir()

	// Missing file yields no patterns.
	patterns, err := GetIgnorePatterns(tempDir)
	require.NoError(t, err)
	assert.Empty(t, patterns)

	content := "# comment\n*.tmp\n\nvendor/\n"
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".askrepo-ignore"), []byte(content), 0644))

	patterns, err = GetIgnorePatterns(tempDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.tmp", "vendor/"}, patterns)
}

func TestIsIgnored(t *testing.T) {
	patterns := []string{"*.tmp", "vendor/"}

	assert.True(t, IsIgnored("scratch.tmp", patterns))
	assert.True(t, IsIgnored("vendor/lib/mod.go", patterns))
	assert.False(t, IsIgnored("main.go", patterns))
}

func TestGetSupportedLanguage(t *testing.T) {
	assert.Equal(t, "go", GetSupportedLanguage("cmd/root.go"))
	assert.Equal(t, "python", GetSupportedLanguage("app.py"))
	assert.Equal(t, "typescript", GetSupportedLanguage("src/App.tsx"))
	assert.Equal(t, "", GetSupportedLanguage("README.md"))
}
