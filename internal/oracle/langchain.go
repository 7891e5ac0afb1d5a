package oracle

import (
	"context"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Ananth-NQI/aira-gateway/internal/config"
)

// LangchainClient generates text through any langchaingo model
type LangchainClient struct {
	llm llms.Model
}

// NewLangchainClient builds a langchaingo OpenAI model from config
func NewLangchainClient(cfg *config.Config) (*LangchainClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	llm, err := openai.New(openai.WithModel(cfg.OpenAIModel), openai.WithToken(cfg.OpenAIKey))
	if err != nil {
		return nil, fmt.Errorf("init langchain model: %w", err)
	}
	log.Printf("Initializing langchain model %s", cfg.OpenAIModel)
	return &LangchainClient{llm: llm}, nil
}

// NewLangchainClientWithModel wraps an existing model
func NewLangchainClientWithModel(llm llms.Model) *LangchainClient {
	return &LangchainClient{llm: llm}
}

// Complete sends the persona and the prompt as a two message exchange
func (l *LangchainClient) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPersona),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := l.llm.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("langchain generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Content, nil
}
