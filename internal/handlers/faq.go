package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/retrieval"
)

// CSVIngestor chunks and indexes an uploaded knowledge base file
type CSVIngestor interface {
	IngestCSV(ctx context.Context, source string, r io.Reader) (int, error)
}

// FAQHandler accepts knowledge base uploads
type FAQHandler struct {
	ingestor CSVIngestor
	cache    retrieval.AnswerCache
}

// NewFAQHandler creates the upload handler; cache may be nil
func NewFAQHandler(ingestor CSVIngestor, cache retrieval.AnswerCache) *FAQHandler {
	return &FAQHandler{ingestor: ingestor, cache: cache}
}

// UploadCSV indexes a CSV file of FAQ entries
func (h *FAQHandler) UploadCSV(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "No file uploaded", models.ErrCodeNoFile)
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return errorResponse(c, fiber.StatusBadRequest, "Only CSV files are allowed", models.ErrCodeInvalidFile)
	}
	if h.ingestor == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "FAQ index is not configured", models.ErrCodeNoData)
	}

	file, err := header.Open()
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error(), models.ErrCodeProcessingFailed)
	}
	defer file.Close()

	count, err := h.ingestor.IngestCSV(c.UserContext(), header.Filename, file)
	if errors.Is(err, retrieval.ErrEmptyFile) {
		return errorResponse(c, fiber.StatusBadRequest, err.Error(), models.ErrCodeInvalidFile)
	}
	if err != nil {
		log.Printf("CSV ingestion failed for %s: %v", header.Filename, err)
		return errorResponse(c, fiber.StatusInternalServerError, err.Error(), models.ErrCodeProcessingFailed)
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(c.UserContext()); err != nil {
			log.Printf("Failed to invalidate answer cache: %v", err)
		}
	}

	log.Printf("Indexed %d chunks from %s", count, header.Filename)
	return c.JSON(fiber.Map{
		"message": "CSV file processed successfully",
		"chunks":  count,
	})
}
