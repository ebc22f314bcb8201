package agent

import (
	"context"
	"fmt"
	"strings"

	agent_contracts "github.com/askrepo/askrepo/agent/contracts"
	"github.com/askrepo/askrepo/agent/models"
	history_contracts "github.com/askrepo/askrepo/chat_history/contracts"
	index_contracts "github.com/askrepo/askrepo/code_index/contracts"
	memory_contracts "github.com/askrepo/askrepo/file_memory/contracts"
	provider_models "github.com/askrepo/askrepo/providers/models"
	reasoning_contracts "github.com/askrepo/askrepo/reasoning/contracts"
	reasoning_models "github.com/askrepo/askrepo/reasoning/models"
)

// DefaultMaxIterations bounds the select/load/assess loop per query.
const DefaultMaxIterations = 3

// noRelevantFilesAnswer is returned without a model call when the first
// selection round picks nothing.
const noRelevantFilesAnswer = "I could not find any files in this codebase relevant to your question. Try rephrasing it, or use /ls and /search to explore the tree yourself."

// Controller drives a query through classification, iterative file
// selection, and answer generation.
type Controller struct {
	index         index_contracts.ICodeIndex
	memory        memory_contracts.IFileMemory
	engine        reasoning_contracts.IReasoningEngine
	history       history_contracts.IChatHistory
	maxIterations int
}

// NewController assembles the agent over its collaborators.
func NewController(
	index index_contracts.ICodeIndex,
	memory memory_contracts.IFileMemory,
	engine reasoning_contracts.IReasoningEngine,
	history history_contracts.IChatHistory,
	maxIterations int,
) agent_contracts.IAgent {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Controller{
		index:         index,
		memory:        memory,
		engine:        engine,
		history:       history,
		maxIterations: maxIterations,
	}
}

// Run executes one query. Exactly one answer-generation call is made per
// query, after the evidence-gathering loop finishes.
func (c *Controller) Run(ctx context.Context, query string, onChunk func(content string)) (*models.Result, error) {
	classification, err := c.engine.Classify(ctx, query, c.memory.Snapshot(), c.renderHistory())
	if err != nil {
		return nil, err
	}

	action := classification.Action
	if action == reasoning_models.ActionUseMemory && c.memory.Len() == 0 {
		// Nothing loaded to answer from, so search instead.
		action = reasoning_models.ActionSearchCode
	}

	switch action {
	case reasoning_models.ActionDirect:
		return c.runDirect(ctx, query, onChunk)
	case reasoning_models.ActionUseMemory:
		return c.runFromMemory(ctx, query, onChunk)
	default:
		return c.runSearch(ctx, query, onChunk)
	}
}

func (c *Controller) runDirect(ctx context.Context, query string, onChunk func(string)) (*models.Result, error) {
	answer, err := drainStream(c.engine.DirectAnswer(ctx, query, c.renderHistory()), onChunk)
	if err != nil {
		return nil, err
	}
	return &models.Result{Action: reasoning_models.ActionDirect, Answer: answer}, nil
}

func (c *Controller) runFromMemory(ctx context.Context, query string, onChunk func(string)) (*models.Result, error) {
	paths := c.memory.Snapshot()
	codeContext := c.buildCodeContext(paths)

	answer, err := drainStream(c.engine.MemoryAnswer(ctx, codeContext, query, c.renderHistory()), onChunk)
	if err != nil {
		return nil, err
	}
	return &models.Result{
		Action:        reasoning_models.ActionUseMemory,
		Answer:        answer,
		AnalyzedFiles: paths,
	}, nil
}

func (c *Controller) runSearch(ctx context.Context, query string, onChunk func(string)) (*models.Result, error) {
	result := &models.Result{Action: reasoning_models.ActionSearchCode}
	overview := c.buildFilesOverview()
	suggestion := ""

	for iteration := 1; iteration <= c.maxIterations; iteration++ {
		result.Iterations = iteration

		selection, err := c.engine.SelectFiles(ctx, query, overview, result.AnalyzedFiles, c.memory.Snapshot(), suggestion)
		if err != nil {
			return result, err
		}

		newPaths := c.filterSelection(selection.Files, result.AnalyzedFiles)
		if len(newPaths) == 0 {
			if iteration == 1 && len(result.AnalyzedFiles) == 0 {
				result.Answer = noRelevantFilesAnswer
				if onChunk != nil {
					onChunk(result.Answer)
				}
				return result, nil
			}
			break
		}

		loaded := 0
		for _, path := range newPaths {
			if _, err := c.memory.Get(path); err != nil {
				result.FailedPaths = append(result.FailedPaths, path)
				continue
			}
			result.AnalyzedFiles = append(result.AnalyzedFiles, path)
			loaded++
		}
		if loaded == 0 {
			break
		}

		// The assessment only matters while another selection round can
		// use its suggestion; a sufficient selection or the final
		// iteration ends the loop either way. Result.Confidence then
		// holds the last assessment made, if any.
		if selection.Sufficient || iteration == c.maxIterations {
			break
		}

		assessment, err := c.engine.AssessConfidence(ctx, query, c.buildCodeContext(result.AnalyzedFiles), c.renderHistory())
		if err != nil {
			return result, err
		}
		result.Confidence = assessment.Confidence
		if assessment.Confidence == reasoning_models.ConfidenceHigh {
			break
		}
		suggestion = assessment.Suggestion
	}

	codeContext := c.buildCodeContext(result.AnalyzedFiles)
	if codeContext == "" {
		codeContext = "(no file content could be loaded)"
	}

	answer, err := drainStream(c.engine.GenerateAnswer(ctx, codeContext, query, c.renderHistory()), onChunk)
	if err != nil {
		return result, err
	}
	result.Answer = answer
	return result, nil
}

// filterSelection drops paths the index does not know and paths already
// analyzed this query.
func (c *Controller) filterSelection(picked []string, analyzed []string) []string {
	seen := make(map[string]bool, len(analyzed))
	for _, path := range analyzed {
		seen[path] = true
	}

	var valid []string
	for _, path := range picked {
		if seen[path] {
			continue
		}
		if _, found := c.index.Lookup(path); !found {
			continue
		}
		seen[path] = true
		valid = append(valid, path)
	}
	return valid
}

func (c *Controller) buildFilesOverview() string {
	var sb strings.Builder
	for _, record := range c.index.Records() {
		sb.WriteString(fmt.Sprintf("- %s (%d lines)", record.Path, record.LineCount))
		if record.Outline != "" {
			sb.WriteString(": ")
			sb.WriteString(record.Outline)
		}
		sb.WriteString("\n")
		if record.Preview != "" {
			for _, line := range strings.Split(strings.TrimRight(record.Preview, "\n"), "\n") {
				sb.WriteString("    ")
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func (c *Controller) buildCodeContext(paths []string) string {
	var sb strings.Builder
	for _, path := range paths {
		entry, err := c.memory.Get(path)
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("=== %s ===\n%s\n\n", entry.Path, entry.Content))
	}
	return sb.String()
}

func (c *Controller) renderHistory() []provider_models.ChatMessage {
	entries := c.history.Render()
	messages := make([]provider_models.ChatMessage, 0, len(entries)*2)
	for _, entry := range entries {
		messages = append(messages, provider_models.ChatMessage{Role: "user", Content: entry.Query})
		messages = append(messages, provider_models.ChatMessage{Role: "assistant", Content: entry.Answer})
	}
	return messages
}

func drainStream(stream <-chan provider_models.StreamResponse, onChunk func(string)) (string, error) {
	var sb strings.Builder
	for chunk := range stream {
		if chunk.Err != nil {
			return sb.String(), chunk.Err
		}
		if chunk.Content != "" {
			sb.WriteString(chunk.Content)
			if onChunk != nil {
				onChunk(chunk.Content)
			}
		}
		if chunk.Done {
			break
		}
	}
	return sb.String(), nil
}
