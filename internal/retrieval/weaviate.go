package retrieval

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/Ananth-NQI/aira-gateway/internal/config"
	"github.com/Ananth-NQI/aira-gateway/internal/oracle"
)

// WeaviateRetriever searches and writes FAQ chunks in a Weaviate class
type WeaviateRetriever struct {
	client   *weaviate.Client
	class    string
	embedder oracle.Embedder
}

// NewWeaviateRetriever connects to Weaviate; vectors come from the embedder
func NewWeaviateRetriever(cfg *config.Config, embedder oracle.Embedder) (*WeaviateRetriever, error) {
	if cfg.WeaviateHost == "" {
		return nil, fmt.Errorf("WEAVIATE_HOST not set")
	}
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.WeaviateHost,
		Scheme: cfg.WeaviateScheme,
	})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &WeaviateRetriever{client: client, class: cfg.WeaviateClass, embedder: embedder}, nil
}

// FAQSchema describes the class holding FAQ chunks
func FAQSchema(class string) *models.Class {
	return &models.Class{
		Class:       class,
		Description: "Chunks of the customer FAQ",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "ingested_at", DataType: []string{"int"}},
		},
	}
}

// EnsureSchema creates the FAQ class when it does not exist yet
func (w *WeaviateRetriever) EnsureSchema(ctx context.Context) error {
	if _, err := w.client.Schema().ClassGetter().WithClassName(w.class).Do(ctx); err == nil {
		return nil
	}
	log.Printf("Creating Weaviate class %s", w.class)
	if err := w.client.Schema().ClassCreator().WithClass(FAQSchema(w.class)).Do(ctx); err != nil {
		return fmt.Errorf("create weaviate class %s: %w", w.class, err)
	}
	return nil
}

// SimilaritySearch embeds the query and returns the k nearest chunks
func (w *WeaviateRetriever) SimilaritySearch(ctx context.Context, query string, k int) ([]Match, error) {
	vectors, err := w.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}

	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(vectors[0])
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(w.class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, result.Errors[0].Message)
	}
	return parseMatches(result, w.class), nil
}

// WriteChunks stores chunks with their vectors in one batch request
func (w *WeaviateRetriever) WriteChunks(ctx context.Context, source string, chunks []string, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if err := w.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	objects := make([]*models.Object, len(chunks))
	now := time.Now().UnixMilli()
	for i, chunk := range chunks {
		objects[i] = &models.Object{
			Class:  w.class,
			ID:     chunkID(chunk),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"content":     chunk,
				"source":      fmt.Sprintf("%s_part_%d", source, i+1),
				"ingested_at": now,
			},
		}
	}

	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("batch write to weaviate: %w", err)
	}

	written := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			written++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil {
			for _, e := range item.Result.Errors.Error {
				log.Printf("weaviate batch item failed for %s: %s", source, e.Message)
			}
		}
	}
	return written, nil
}

// chunkID derives a stable id so re-ingesting the same text overwrites it
func chunkID(chunk string) strfmt.UUID {
	hash := sha256.Sum256([]byte(chunk))
	id, _ := uuid.FromBytes(hash[:16])
	return strfmt.UUID(id.String())
}

func parseMatches(result *models.GraphQLResponse, class string) []Match {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return []Match{}
	}
	objects, ok := data[class].([]interface{})
	if !ok {
		return []Match{}
	}

	matches := make([]Match, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		match := Match{Distance: 1}
		match.Text, _ = m["content"].(string)
		match.Source, _ = m["source"].(string)
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			if d, ok := additional["distance"].(float64); ok {
				match.Distance = d
			}
		}
		matches = append(matches, match)
	}
	return matches
}
