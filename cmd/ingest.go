package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ananth-NQI/aira-gateway/internal/config"
	"github.com/Ananth-NQI/aira-gateway/internal/retrieval"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest-faq <file.csv>...",
		Short: "Chunk, embed and index FAQ CSV files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			index, embedder, err := openIndex(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			ingestor := retrieval.NewIngestor(embedder, index, cfg.ChunkSize, cfg.ChunkOverlap)

			total := 0
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				count, err := ingestor.IngestCSV(cmd.Context(), filepath.Base(path), f)
				f.Close()
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				log.Printf("✅ Indexed %d chunks from %s", count, path)
				total += count
			}

			if cfg.RedisAddr != "" {
				cache, err := retrieval.NewRedisAnswerCache(cfg.RedisAddr, cfg.AnswerCacheTTL)
				if err != nil {
					log.Printf("⚠️  Could not reach answer cache: %v", err)
				} else {
					defer cache.Close()
					if err := cache.Invalidate(cmd.Context()); err != nil {
						log.Printf("⚠️  Answer cache not invalidated: %v", err)
					}
				}
			}

			log.Printf("📚 %d chunks indexed from %d files", total, len(args))
			return nil
		},
	}
}
