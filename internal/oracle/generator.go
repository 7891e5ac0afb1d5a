package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ananth-NQI/aira-gateway/internal/config"
)

// ErrEmptyCompletion is returned when the model answers with no choices
var ErrEmptyCompletion = errors.New("model returned no choices")

// Generator turns a rendered prompt into model text
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder turns texts into vectors for similarity search
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewGenerator builds the generator selected by LLM_BACKEND
func NewGenerator(cfg *config.Config) (Generator, error) {
	switch cfg.LLMBackend {
	case "langchain":
		return NewLangchainClient(cfg)
	case "openai":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown LLM backend %q", cfg.LLMBackend)
	}
}
