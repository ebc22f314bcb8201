package utils

import (
	"path/filepath"
	"strings"
)

// GetSupportedLanguage maps a file path to the tree-sitter language used for
// outline extraction. Unsupported extensions return an empty string.
func GetSupportedLanguage(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".java":
		return "java"
	case ".cs":
		return "csharp"
	default:
		return ""
	}
}

// DetectLanguageFromCodeBlock extracts the language tag from a markdown code
// fence so the renderer can pick a lexer.
func DetectLanguageFromCodeBlock(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			lang := strings.TrimPrefix(trimmed, "```")
			if lang != "" {
				return lang
			}
		}
	}
	return "markdown"
}
