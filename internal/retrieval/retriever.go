package retrieval

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no FAQ index has been built or the vector store is down
var ErrUnavailable = errors.New("faq index unavailable")

// Match is one retrieved FAQ passage; lower distance means more similar
type Match struct {
	Text     string
	Source   string
	Distance float64
}

// Retriever finds FAQ passages similar to a query
type Retriever interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]Match, error)
}

// ChunkWriter stores embedded FAQ chunks
type ChunkWriter interface {
	WriteChunks(ctx context.Context, source string, chunks []string, vectors [][]float32) (int, error)
}
