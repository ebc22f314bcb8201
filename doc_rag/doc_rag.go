package doc_rag

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/askrepo/askrepo/doc_rag/contracts"
	"github.com/askrepo/askrepo/doc_rag/models"
	"github.com/askrepo/askrepo/embed_data"
	provider_contracts "github.com/askrepo/askrepo/providers/contracts"
	provider_models "github.com/askrepo/askrepo/providers/models"
)

// DefaultTopK is the retrieval depth when none is configured.
const DefaultTopK = 5

// DocRAG is the single-shot documentation path: embed the query, rank the
// pre-ingested chunks by cosine similarity, answer over the top hits.
type DocRAG struct {
	chunks   []models.Chunk
	provider provider_contracts.IChatAIProvider
	botName  string
	topK     int
}

// NewDocRAG loads the JSONL chunk store and wires the provider used for
// query embeddings and answers.
func NewDocRAG(chunksPath string, provider provider_contracts.IChatAIProvider, botName string, topK int) (contracts.IDocRAG, error) {
	chunks, err := LoadChunks(chunksPath)
	if err != nil {
		return nil, err
	}
	if botName == "" {
		botName = "askrepo"
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &DocRAG{chunks: chunks, provider: provider, botName: botName, topK: topK}, nil
}

// LoadChunks reads a JSONL file of chunks, one object per line. Blank lines
// are skipped; a malformed line fails the load.
func LoadChunks(path string) ([]models.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer f.Close()

	var chunks []models.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk models.Chunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return nil, fmt.Errorf("malformed chunk at line %d: %w", lineNo, err)
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk store: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("chunk store %s contains no chunks", path)
	}

	return chunks, nil
}

func (rag *DocRAG) Retrieve(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = rag.topK
	}

	queryEmbedding, err := rag.provider.EmbeddingRequest(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored := make([]models.ScoredChunk, 0, len(rag.chunks))
	for _, chunk := range rag.chunks {
		scored = append(scored, models.ScoredChunk{
			Chunk: chunk,
			Score: CosineSimilarity(queryEmbedding, chunk.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (rag *DocRAG) Answer(ctx context.Context, query string, mode contracts.AnswerMode, history []provider_models.ChatMessage) <-chan provider_models.StreamResponse {
	hits, err := rag.Retrieve(ctx, query, rag.topK)
	if err != nil {
		ch := make(chan provider_models.StreamResponse, 1)
		ch <- provider_models.StreamResponse{Err: err}
		close(ch)
		return ch
	}

	var sb strings.Builder
	for _, hit := range hits {
		sb.WriteString(fmt.Sprintf("[%s]\n%s\n\n", hit.DocID, hit.Text))
	}

	prompt := fmt.Sprintf(string(rag.promptTemplate(mode)), rag.botName, sb.String(), query)
	return rag.provider.ChatCompletionRequest(ctx, "", prompt, history)
}

func (rag *DocRAG) promptTemplate(mode contracts.AnswerMode) []byte {
	switch mode {
	case contracts.ModeSearch:
		return embed_data.DocsSearchPrompt
	case contracts.ModeTeach:
		return embed_data.DocsTeachPrompt
	default:
		return embed_data.DocsAskPrompt
	}
}

func (rag *DocRAG) Len() int {
	return len(rag.chunks)
}

// CosineSimilarity scores two embeddings. Mismatched or zero-length vectors
// score zero rather than erroring, so one bad chunk cannot fail a query.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
