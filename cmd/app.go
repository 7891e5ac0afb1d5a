package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/Ananth-NQI/aira-gateway/database"
	"github.com/Ananth-NQI/aira-gateway/internal/config"
	"github.com/Ananth-NQI/aira-gateway/internal/oracle"
	"github.com/Ananth-NQI/aira-gateway/internal/retrieval"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

// openStore returns the configured storage, migrating the database first
func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		return storage.NewMemoryStore(), nil
	}

	log.Printf("📦 Connecting to %s database...", cfg.DBDriver)
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	log.Println("🔄 Running database migrations...")
	if err := storage.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Println("✅ Database migrations completed!")
	return storage.NewDatabaseStore(db), nil
}

// openIndex connects the FAQ vector index. A nil retriever means FAQ answers are unavailable.
func openIndex(ctx context.Context, cfg *config.Config) (*retrieval.WeaviateRetriever, *oracle.OpenAIClient, error) {
	embedder, err := oracle.NewOpenAIClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder: %w", err)
	}
	index, err := retrieval.NewWeaviateRetriever(cfg, embedder)
	if err != nil {
		return nil, nil, err
	}
	if err := index.EnsureSchema(ctx); err != nil {
		return nil, nil, err
	}
	return index, embedder, nil
}

func storageType(cfg *config.Config) string {
	if cfg.UseMemoryStore {
		return "In-Memory (Testing)"
	}
	if cfg.DBDriver == "sqlite" {
		return "SQLite Database"
	}
	return "PostgreSQL Database"
}

func whatsAppStatus(cfg *config.Config) string {
	if !cfg.TwilioConfigured() {
		return "Not configured"
	}
	return "Configured"
}
