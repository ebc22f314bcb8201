package embed_data

import _ "embed"

// Reasoning prompt templates. Placeholders are filled by the reasoning package.

//go:embed prompts/classify_query.tmpl
var ClassifyQueryPrompt []byte

//go:embed prompts/select_files.tmpl
var SelectFilesPrompt []byte

//go:embed prompts/assess_confidence.tmpl
var AssessConfidencePrompt []byte

//go:embed prompts/generate_answer.tmpl
var GenerateAnswerPrompt []byte

//go:embed prompts/direct_answer.tmpl
var DirectAnswerPrompt []byte

//go:embed prompts/memory_answer.tmpl
var MemoryAnswerPrompt []byte

//go:embed prompts/docs_search.tmpl
var DocsSearchPrompt []byte

//go:embed prompts/docs_ask.tmpl
var DocsAskPrompt []byte

//go:embed prompts/docs_teach.tmpl
var DocsTeachPrompt []byte

// Tree-sitter tag -> query maps, one JSON file per language.

//go:embed tree-sitter/queries/go.json
var GoQuery []byte

//go:embed tree-sitter/queries/python.json
var PythonQuery []byte

//go:embed tree-sitter/queries/javascript.json
var JavascriptQuery []byte

//go:embed tree-sitter/queries/typescript.json
var TypescriptQuery []byte

//go:embed tree-sitter/queries/java.json
var JavaQuery []byte

//go:embed tree-sitter/queries/csharp.json
var CSharpQuery []byte

// Per-model pricing for token cost display.

//go:embed models_details.json
var ModelDetails []byte
