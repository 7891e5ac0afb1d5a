package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/Ananth-NQI/aira-gateway/internal/metrics"
	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/retrieval"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

const (
	DefaultFAQTopK = 5

	msgNoFAQData   = "No CSV data uploaded"
	msgNoPassages  = "No relevant data found."
	msgFAQNoAnswer = "I don't have enough information to answer that. Please provide more details or ask about something else."
	msgFAQFailed   = "An error occurred while processing your FAQ query. Please try again."
)

// FAQHandler answers general questions from the retrieved FAQ passages
type FAQHandler struct {
	*responder
	oracle    LanguageOracle
	retriever retrieval.Retriever
	cache     retrieval.AnswerCache
	topK      int
}

// NewFAQHandler creates the csv handler; retriever and cache may be nil
func NewFAQHandler(store storage.Store, contexts *ContextStore, o LanguageOracle, retriever retrieval.Retriever, cache retrieval.AnswerCache, topK int) *FAQHandler {
	if topK <= 0 {
		topK = DefaultFAQTopK
	}
	return &FAQHandler{
		responder: &responder{store: store, contexts: contexts},
		oracle:    o,
		retriever: retriever,
		cache:     cache,
		topK:      topK,
	}
}

func (h *FAQHandler) Handle(ctx context.Context, turn *Turn) models.QueryResult {
	if h.retriever == nil {
		log.Println("FAQ query received but no FAQ index is configured")
		return h.touch(ctx, turn, models.Failure(msgNoFAQData, models.ErrCodeNoData))
	}

	if answer, ok := h.cachedAnswer(ctx, turn.Query); ok {
		return h.reply(ctx, turn, answer, &ContextUpdate{})
	}

	matches, err := h.retriever.SimilaritySearch(ctx, turn.Query, h.topK)
	if errors.Is(err, retrieval.ErrUnavailable) {
		log.Printf("FAQ index unavailable: %v", err)
		return h.touch(ctx, turn, models.Failure(msgNoFAQData, models.ErrCodeNoData))
	}
	if err != nil {
		log.Printf("FAQ retrieval failed for session %s: %v", turn.SessionID, err)
		return h.reply(ctx, turn, msgFAQFailed, nil)
	}

	passages := msgNoPassages
	if len(matches) > 0 {
		texts := make([]string, len(matches))
		for i, m := range matches {
			texts[i] = m.Text
		}
		passages = strings.Join(texts, "\n")
	}

	answer, err := h.oracle.AnswerFAQ(ctx, turn.Query, passages)
	if err != nil {
		return h.reply(ctx, turn, msgFAQFailed, nil)
	}
	if answer == "" {
		answer = msgFAQNoAnswer
	} else if len(matches) > 0 {
		h.storeAnswer(ctx, turn.Query, answer)
	}
	return h.reply(ctx, turn, answer, &ContextUpdate{})
}

func (h *FAQHandler) cachedAnswer(ctx context.Context, query string) (string, bool) {
	if h.cache == nil {
		return "", false
	}
	answer, ok, err := h.cache.Get(ctx, query)
	if err != nil {
		log.Printf("FAQ answer cache read failed: %v", err)
		return "", false
	}
	if ok {
		metrics.AnswerCacheHits.Inc()
	}
	return answer, ok
}

func (h *FAQHandler) storeAnswer(ctx context.Context, query, answer string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, query, answer); err != nil {
		log.Printf("FAQ answer cache write failed: %v", err)
	}
}
