package retrieval

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/Ananth-NQI/aira-gateway/internal/oracle"
)

// ErrEmptyFile is returned when a CSV holds no data rows
var ErrEmptyFile = errors.New("csv file has no rows")

const embedBatchSize = 64

// Ingestor turns FAQ CSV files into embedded chunks
type Ingestor struct {
	splitter textsplitter.TextSplitter
	embedder oracle.Embedder
	writer   ChunkWriter
}

// NewIngestor builds an ingestor with a recursive character splitter
func NewIngestor(embedder oracle.Embedder, writer ChunkWriter, chunkSize, chunkOverlap int) *Ingestor {
	return &Ingestor{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
		embedder: embedder,
		writer:   writer,
	}
}

// IngestCSV reads the file, splits it, embeds the chunks and stores them
func (i *Ingestor) IngestCSV(ctx context.Context, source string, r io.Reader) (int, error) {
	content, err := FlattenCSV(r)
	if err != nil {
		return 0, err
	}

	chunks, err := i.splitter.SplitText(content)
	if err != nil {
		return 0, fmt.Errorf("split %s: %w", source, err)
	}
	if len(chunks) == 0 {
		return 0, ErrEmptyFile
	}
	log.Printf("Split %s into %d chunks", source, len(chunks))

	written := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		vectors, err := i.embedder.Embed(ctx, batch)
		if err != nil {
			return written, fmt.Errorf("embed %s: %w", source, err)
		}
		n, err := i.writer.WriteChunks(ctx, source, batch, vectors)
		written += n
		if err != nil {
			return written, err
		}
	}

	log.Printf("Ingested %d/%d chunks from %s", written, len(chunks), source)
	return written, nil
}

// FlattenCSV renders every data row as "header: value" lines separated by blank lines
func FlattenCSV(r io.Reader) (string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return "", ErrEmptyFile
	}
	if err != nil {
		return "", fmt.Errorf("read csv header: %w", err)
	}

	var b strings.Builder
	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv row %d: %w", rows+1, err)
		}

		lines := make([]string, 0, len(record))
		for col, value := range record {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			name := fmt.Sprintf("column_%d", col+1)
			if col < len(header) && strings.TrimSpace(header[col]) != "" {
				name = strings.TrimSpace(header[col])
			}
			lines = append(lines, name+": "+value)
		}
		if len(lines) == 0 {
			continue
		}
		if rows > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Join(lines, "\n"))
		rows++
	}

	if rows == 0 {
		return "", ErrEmptyFile
	}
	return b.String(), nil
}
