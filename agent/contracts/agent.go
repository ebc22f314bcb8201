package contracts

import (
	"context"

	"github.com/askrepo/askrepo/agent/models"
)

// IAgent runs one query end to end. onChunk receives answer text as it
// streams; the returned Result carries the accumulated answer. A non-nil
// error aborts only the current query, never the session.
type IAgent interface {
	Run(ctx context.Context, query string, onChunk func(content string)) (*models.Result, error)
}
