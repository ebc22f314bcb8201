package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/askrepo/askrepo/chat_history"
	index_models "github.com/askrepo/askrepo/code_index/models"
	"github.com/askrepo/askrepo/file_memory"
	provider_models "github.com/askrepo/askrepo/providers/models"
	reasoning_models "github.com/askrepo/askrepo/reasoning/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	records []index_models.FileRecord
}

func (f *fakeIndex) Records() []index_models.FileRecord { return f.records }

func (f *fakeIndex) Lookup(path string) (index_models.FileRecord, bool) {
	for _, record := range f.records {
		if record.Path == path {
			return record, true
		}
	}
	return index_models.FileRecord{}, false
}

func (f *fakeIndex) ListDirectory(prefix string) []index_models.FileRecord {
	var matches []index_models.FileRecord
	for _, record := range f.records {
		if strings.HasPrefix(record.Path, prefix) {
			matches = append(matches, record)
		}
	}
	return matches
}

func (f *fakeIndex) Len() int { return len(f.records) }

type mapReader struct {
	files     map[string]string
	failPaths map[string]bool
	reads     int
}

func (r *mapReader) ReadFull(path string) (string, error) {
	r.reads++
	if r.failPaths[path] {
		return "", errors.New("permission denied")
	}
	content, found := r.files[path]
	if !found {
		return "", errors.New("no such file")
	}
	return content, nil
}

func (r *mapReader) ReadPrefix(path string, maxBytes int) (string, error) {
	content, err := r.ReadFull(path)
	if err != nil {
		return "", err
	}
	if len(content) > maxBytes {
		return content[:maxBytes], nil
	}
	return content, nil
}

// fakeEngine replays scripted decisions, counts every call, and records
// the arguments the controller passed in.
type fakeEngine struct {
	classification reasoning_models.Classification
	classifyErr    error
	selections     []reasoning_models.Selection
	selectErrs     []error
	assessments    []reasoning_models.Assessment
	assessErrs     []error
	answer         string
	answerErr      error

	classifyCalls int
	selectCalls   int
	assessCalls   int
	generateCalls int
	memoryCalls   int
	directCalls   int

	overviews      []string
	suggestions    []string
	assessEvidence []string
}

func (f *fakeEngine) Classify(ctx context.Context, query string, memoryPaths []string, history []provider_models.ChatMessage) (reasoning_models.Classification, error) {
	f.classifyCalls++
	return f.classification, f.classifyErr
}

func (f *fakeEngine) SelectFiles(ctx context.Context, query string, filesOverview string, alreadyAnalyzed []string, memoryPaths []string, suggestion string) (reasoning_models.Selection, error) {
	call := f.selectCalls
	f.selectCalls++
	f.overviews = append(f.overviews, filesOverview)
	f.suggestions = append(f.suggestions, suggestion)
	if call < len(f.selectErrs) && f.selectErrs[call] != nil {
		return reasoning_models.Selection{}, f.selectErrs[call]
	}
	if call < len(f.selections) {
		return f.selections[call], nil
	}
	return reasoning_models.Selection{Sufficient: true}, nil
}

func (f *fakeEngine) AssessConfidence(ctx context.Context, query string, evidence string, history []provider_models.ChatMessage) (reasoning_models.Assessment, error) {
	call := f.assessCalls
	f.assessCalls++
	f.assessEvidence = append(f.assessEvidence, evidence)
	if call < len(f.assessErrs) && f.assessErrs[call] != nil {
		return reasoning_models.Assessment{}, f.assessErrs[call]
	}
	if call < len(f.assessments) {
		return f.assessments[call], nil
	}
	return reasoning_models.Assessment{Confidence: reasoning_models.ConfidenceLow}, nil
}

func (f *fakeEngine) stream() <-chan provider_models.StreamResponse {
	ch := make(chan provider_models.StreamResponse, 3)
	if f.answerErr != nil {
		ch <- provider_models.StreamResponse{Err: f.answerErr}
	} else {
		ch <- provider_models.StreamResponse{Content: f.answer}
		ch <- provider_models.StreamResponse{Done: true}
	}
	close(ch)
	return ch
}

func (f *fakeEngine) GenerateAnswer(ctx context.Context, codeContext string, query string, history []provider_models.ChatMessage) <-chan provider_models.StreamResponse {
	f.generateCalls++
	return f.stream()
}

func (f *fakeEngine) MemoryAnswer(ctx context.Context, codeContext string, query string, history []provider_models.ChatMessage) <-chan provider_models.StreamResponse {
	f.memoryCalls++
	return f.stream()
}

func (f *fakeEngine) DirectAnswer(ctx context.Context, query string, history []provider_models.ChatMessage) <-chan provider_models.StreamResponse {
	f.directCalls++
	return f.stream()
}

func newTestSetup(engine *fakeEngine, reader *mapReader, paths ...string) (*Controller, *mapReader) {
	records := make([]index_models.FileRecord, 0, len(paths))
	for _, path := range paths {
		records = append(records, index_models.FileRecord{Path: path, LineCount: 10})
	}
	memory := file_memory.NewFileMemory(reader, file_memory.DefaultTruncationPolicy)
	history := chat_history.NewChatHistory(4, 500)
	controller := NewController(&fakeIndex{records: records}, memory, engine, history, 3)
	return controller.(*Controller), reader
}

func TestRun_DirectQueryTouchesNoFiles(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionDirect},
		answer:         "a goroutine is a lightweight thread",
	}
	reader := &mapReader{files: map[string]string{"main.go": "package main\n"}}
	controller, reader := newTestSetup(engine, reader, "main.go")

	result, err := controller.Run(context.Background(), "what is a goroutine?", nil)
	require.NoError(t, err)

	assert.Equal(t, reasoning_models.ActionDirect, result.Action)
	assert.Equal(t, "a goroutine is a lightweight thread", result.Answer)
	assert.Empty(t, result.AnalyzedFiles)
	assert.Zero(t, reader.reads)
	assert.Zero(t, engine.selectCalls)
	assert.Equal(t, 1, engine.directCalls)
}

func TestRun_UseMemoryWithEmptyCacheFallsBackToSearch(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionUseMemory},
		selections: []reasoning_models.Selection{
			{Files: []string{"main.go"}},
		},
		assessments: []reasoning_models.Assessment{
			{Confidence: reasoning_models.ConfidenceHigh},
		},
		answer: "main starts the server",
	}
	reader := &mapReader{files: map[string]string{"main.go": "package main\n"}}
	controller, _ := newTestSetup(engine, reader, "main.go")

	result, err := controller.Run(context.Background(), "what does main do?", nil)
	require.NoError(t, err)

	assert.Equal(t, reasoning_models.ActionSearchCode, result.Action)
	assert.Equal(t, []string{"main.go"}, result.AnalyzedFiles)
	assert.Zero(t, engine.memoryCalls)
	assert.Equal(t, 1, engine.generateCalls)
}

func TestRun_UseMemoryAnswersFromCache(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionUseMemory},
		answer:         "it parses flags",
	}
	reader := &mapReader{files: map[string]string{"main.go": "package main\n"}}
	controller, reader := newTestSetup(engine, reader, "main.go")

	// Preload the cache the way a prior query would have.
	_, err := controller.memory.Get("main.go")
	require.NoError(t, err)
	readsBefore := reader.reads

	result, err := controller.Run(context.Background(), "and what else?", nil)
	require.NoError(t, err)

	assert.Equal(t, reasoning_models.ActionUseMemory, result.Action)
	assert.Equal(t, []string{"main.go"}, result.AnalyzedFiles)
	assert.Equal(t, readsBefore, reader.reads, "memory answers must not re-read files")
	assert.Equal(t, 1, engine.memoryCalls)
	assert.Zero(t, engine.selectCalls)
}

func TestRun_SearchStopsOnHighConfidence(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionSearchCode},
		selections: []reasoning_models.Selection{
			{Files: []string{"a.go", "b.go"}},
		},
		assessments: []reasoning_models.Assessment{
			{Confidence: reasoning_models.ConfidenceHigh},
		},
		answer: "the handler lives in a.go",
	}
	reader := &mapReader{files: map[string]string{"a.go": "package a\n", "b.go": "package b\n"}}
	controller, _ := newTestSetup(engine, reader, "a.go", "b.go")

	result, err := controller.Run(context.Background(), "where is the handler?", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, []string{"a.go", "b.go"}, result.AnalyzedFiles)
	assert.Equal(t, reasoning_models.ConfidenceHigh, result.Confidence)
	assert.Equal(t, 1, engine.selectCalls)
	assert.Equal(t, 1, engine.generateCalls, "exactly one answer call per query")
}

func TestRun_SearchUnknownPathsDropped(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionSearchCode},
		selections: []reasoning_models.Selection{
			{Files: []string{"invented.go", "also_fake.go"}},
		},
		answer: "unused",
	}
	reader := &mapReader{files: map[string]string{"real.go": "package real\n"}}
	controller, _ := newTestSetup(engine, reader, "real.go")

	result, err := controller.Run(context.Background(), "what is in invented.go?", nil)
	require.NoError(t, err)

	assert.Empty(t, result.AnalyzedFiles)
	assert.Contains(t, result.Answer, "could not find any files")
	assert.Zero(t, engine.generateCalls, "no answer call when nothing was selected")
}

func TestRun_SearchHonorsIterationCap(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionSearchCode},
		selections: []reasoning_models.Selection{
			{Files: []string{"a.go"}},
			{Files: []string{"b.go"}},
			{Files: []string{"c.go"}},
			{Files: []string{"d.go"}},
		},
		assessments: []reasoning_models.Assessment{
			{Confidence: reasoning_models.ConfidenceLow, Suggestion: "look at b"},
			{Confidence: reasoning_models.ConfidenceLow, Suggestion: "look at c"},
			{Confidence: reasoning_models.ConfidenceLow},
		},
		answer: "partial evidence answer",
	}
	files := map[string]string{"a.go": "a", "b.go": "b", "c.go": "c", "d.go": "d"}
	reader := &mapReader{files: files}
	controller, _ := newTestSetup(engine, reader, "a.go", "b.go", "c.go", "d.go")

	result, err := controller.Run(context.Background(), "trace the request flow", nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Iterations)
	assert.Equal(t, 3, engine.selectCalls)
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, result.AnalyzedFiles)
	assert.Equal(t, 1, engine.generateCalls)
	// The final iteration is never assessed; the result keeps the last
	// assessment that was made.
	assert.Equal(t, 2, engine.assessCalls)
	assert.Equal(t, reasoning_models.ConfidenceLow, result.Confidence)
}

func TestRun_SuggestionCarriedToNextSelection(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionSearchCode},
		selections: []reasoning_models.Selection{
			{Files: []string{"a.go", "b.go"}},
			{Files: []string{"c.go"}},
		},
		assessments: []reasoning_models.Assessment{
			{Confidence: reasoning_models.ConfidenceMedium, Suggestion: "timers"},
			{Confidence: reasoning_models.ConfidenceHigh},
		},
		answer: "the scheduler drives everything through timers",
	}
	files := map[string]string{"a.go": "a", "b.go": "b", "c.go": "c"}
	reader := &mapReader{files: files}
	controller, _ := newTestSetup(engine, reader, "a.go", "b.go", "c.go")

	result, err := controller.Run(context.Background(), "how does scheduling work?", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, result.AnalyzedFiles)
	assert.Equal(t, reasoning_models.ConfidenceHigh, result.Confidence)
	require.Len(t, engine.suggestions, 2)
	assert.Empty(t, engine.suggestions[0])
	assert.Equal(t, "timers", engine.suggestions[1], "the assessment's suggestion must reach the next selection")
	assert.Equal(t, 1, engine.generateCalls)
}

func TestRun_AssessmentSeesLoadedContent(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionSearchCode},
		selections: []reasoning_models.Selection{
			{Files: []string{"a.go"}},
		},
		assessments: []reasoning_models.Assessment{
			{Confidence: reasoning_models.ConfidenceHigh},
		},
		answer: "the handler is in a.go",
	}
	reader := &mapReader{files: map[string]string{"a.go": "package a\n\nfunc Handler() {}\n"}}
	controller, _ := newTestSetup(engine, reader, "a.go")

	_, err := controller.Run(context.Background(), "where is the handler?", nil)
	require.NoError(t, err)

	require.Len(t, engine.assessEvidence, 1)
	assert.Contains(t, engine.assessEvidence[0], "=== a.go ===")
	assert.Contains(t, engine.assessEvidence[0], "func Handler() {}", "assessment must judge file contents, not names")
}

func TestRun_SelectionOverviewIncludesPreviews(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionSearchCode},
		selections: []reasoning_models.Selection{
			{Files: []string{"srv.go"}, Sufficient: true},
		},
		answer: "srv.go serves requests",
	}
	records := []index_models.FileRecord{{
		Path:      "srv.go",
		LineCount: 42,
		Outline:   "func ServeHTTP",
		Preview:   "package srv\n\nfunc ServeHTTP(w http.ResponseWriter, r *http.Request) {",
	}}
	reader := &mapReader{files: map[string]string{"srv.go": "package srv\n"}}
	memory := file_memory.NewFileMemory(reader, file_memory.DefaultTruncationPolicy)
	history := chat_history.NewChatHistory(4, 500)
	controller := NewController(&fakeIndex{records: records}, memory, engine, history, 3).(*Controller)

	_, err := controller.Run(context.Background(), "where are requests served?", nil)
	require.NoError(t, err)

	require.Len(t, engine.overviews, 1)
	assert.Contains(t, engine.overviews[0], "srv.go (42 lines)")
	assert.Contains(t, engine.overviews[0], "func ServeHTTP(w http.ResponseWriter", "overview must carry file previews")
}

func TestRun_SearchAbsorbsFailedLoads(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionSearchCode},
		selections: []reasoning_models.Selection{
			{Files: []string{"good.go", "locked.go"}, Sufficient: true},
		},
		answer: "answer from good.go",
	}
	reader := &mapReader{
		files:     map[string]string{"good.go": "package good\n", "locked.go": "x"},
		failPaths: map[string]bool{"locked.go": true},
	}
	controller, _ := newTestSetup(engine, reader, "good.go", "locked.go")

	result, err := controller.Run(context.Background(), "what does good do?", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"good.go"}, result.AnalyzedFiles)
	assert.Equal(t, []string{"locked.go"}, result.FailedPaths)
	assert.Equal(t, 1, engine.generateCalls)
}

func TestRun_ClassifyFailureAbortsQuery(t *testing.T) {
	engine := &fakeEngine{classifyErr: errors.New("connection refused")}
	reader := &mapReader{files: map[string]string{"main.go": "package main\n"}}
	controller, _ := newTestSetup(engine, reader, "main.go")

	result, err := controller.Run(context.Background(), "anything", nil)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Zero(t, engine.generateCalls)
}

func TestRun_MidLoopSelectionFailureAbortsWithoutAnswer(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionSearchCode},
		selections: []reasoning_models.Selection{
			{Files: []string{"a.go"}},
		},
		selectErrs: []error{nil, errors.New("model went away")},
		assessments: []reasoning_models.Assessment{
			{Confidence: reasoning_models.ConfidenceMedium},
		},
		answer: "unused",
	}
	reader := &mapReader{files: map[string]string{"a.go": "package a\n"}}
	controller, _ := newTestSetup(engine, reader, "a.go")

	result, err := controller.Run(context.Background(), "explain a.go", nil)

	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []string{"a.go"}, result.AnalyzedFiles)
	assert.Empty(t, result.Answer, "a failed reasoning call fails the query")
	assert.Zero(t, engine.generateCalls, "no answer is generated from a failed engine")
}

func TestRun_MidLoopAssessmentFailureAbortsWithoutAnswer(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionSearchCode},
		selections: []reasoning_models.Selection{
			{Files: []string{"a.go"}},
		},
		assessErrs: []error{errors.New("model went away")},
		answer:     "unused",
	}
	reader := &mapReader{files: map[string]string{"a.go": "package a\n"}}
	controller, _ := newTestSetup(engine, reader, "a.go")

	result, err := controller.Run(context.Background(), "explain a.go", nil)

	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []string{"a.go"}, result.AnalyzedFiles)
	assert.Empty(t, result.Answer)
	assert.Zero(t, engine.generateCalls)
}

func TestRun_StreamsChunksToCallback(t *testing.T) {
	engine := &fakeEngine{
		classification: reasoning_models.Classification{Action: reasoning_models.ActionDirect},
		answer:         "streamed content",
	}
	reader := &mapReader{files: map[string]string{}}
	controller, _ := newTestSetup(engine, reader)

	var streamed strings.Builder
	_, err := controller.Run(context.Background(), "hi", func(content string) {
		streamed.WriteString(content)
	})
	require.NoError(t, err)

	assert.Equal(t, "streamed content", streamed.String())
}
