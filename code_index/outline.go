package code_index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/askrepo/askrepo/embed_data"
	"github.com/askrepo/askrepo/utils"
)

// maxOutlineEntries bounds the outline so previews stay prompt-sized.
const maxOutlineEntries = 12

type outlineLanguage struct {
	language *sitter.Language
	queries  map[string]string
}

var outlineLanguages = map[string]outlineLanguage{}

func init() {
	register := func(name string, language *sitter.Language, rawQueries []byte) {
		queries := make(map[string]string)
		if err := json.Unmarshal(rawQueries, &queries); err != nil {
			return
		}
		outlineLanguages[name] = outlineLanguage{language: language, queries: queries}
	}

	register("go", golang.GetLanguage(), embed_data.GoQuery)
	register("python", python.GetLanguage(), embed_data.PythonQuery)
	register("javascript", javascript.GetLanguage(), embed_data.JavascriptQuery)
	register("typescript", typescript.GetLanguage(), embed_data.TypescriptQuery)
	register("java", java.GetLanguage(), embed_data.JavaQuery)
	register("csharp", csharp.GetLanguage(), embed_data.CSharpQuery)
}

// ExtractOutline extracts declaration names from the given source prefix.
// Tree-sitter tolerates the cut-off tail of a prefix, so parsing a bounded
// prefix yields the declarations that matter for file selection. Returns an
// empty string for unsupported languages.
func ExtractOutline(path string, source []byte) string {
	language := utils.GetSupportedLanguage(path)
	spec, supported := outlineLanguages[language]
	if !supported || len(source) == 0 {
		return ""
	}

	parser := sitter.NewParser()
	parser.SetLanguage(spec.language)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return ""
	}
	defer tree.Close()

	tags := make([]string, 0, len(spec.queries))
	for tag := range spec.queries {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var elements []string
	for _, tag := range tags {
		query, err := sitter.NewQuery([]byte(spec.queries[tag]), spec.language)
		if err != nil {
			continue
		}

		cursor := sitter.NewQueryCursor()
		cursor.Exec(query, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, capture := range match.Captures {
				elements = append(elements, fmt.Sprintf("%s: %s", tag, capture.Node.Content(source)))
				if len(elements) >= maxOutlineEntries {
					cursor.Close()
					query.Close()
					return strings.Join(elements, "; ")
				}
			}
		}
		cursor.Close()
		query.Close()
	}

	return strings.Join(elements, "; ")
}
