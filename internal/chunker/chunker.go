package chunker

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/llm"
)

// Chunker runs the full decomposition of one document: structure analysis,
// strategy-dispatched splitting, and per-chunk enrichment. The analysis call
// and the optional entity call are sequential prerequisites; they complete
// (or fall back) before any chunk exists.
type Chunker struct {
	analyzer *Analyzer
	splitter *Splitter
	enricher *Enricher
	logger   *slog.Logger
}

type Options struct {
	MaxChunkSize     int
	Overlap          int
	StructurePreview int
	EntityTableLimit int
}

func New(chat llm.Chatter, opts Options) *Chunker {
	return &Chunker{
		analyzer: NewAnalyzer(chat, opts.StructurePreview),
		splitter: NewSplitter(opts.MaxChunkSize, opts.Overlap),
		enricher: NewEnricher(chat, opts.EntityTableLimit, opts.StructurePreview),
		logger:   slog.Default().With("service", "chunker"),
	}
}

// ChunkDocument produces the ordered, enriched chunk set for one document.
// Non-empty input always yields at least one chunk.
func (c *Chunker) ChunkDocument(ctx context.Context, text, filename string, scope Scope) ([]Chunk, StructureResult) {
	result := c.analyzer.Analyze(ctx, text, filename)
	c.logger.Info("document structure",
		"filename", filename,
		"doc_type", result.Descriptor.DocType,
		"pattern", result.Descriptor.StructurePattern,
		"fallback", result.Fallback)

	raw := c.splitter.Split(text, result.Descriptor)
	if len(raw) == 0 {
		if strings.TrimSpace(text) == "" {
			return nil, result
		}
		raw = []RawChunk{{Text: strings.TrimSpace(text), Hierarchy: []string{"Full Document"}}}
	}

	table := c.enricher.ExtractEntityTable(ctx, text, len(raw))

	chunks := make([]Chunk, 0, len(raw))
	for i, r := range raw {
		chunks = append(chunks, c.enricher.Enrich(r, i, len(raw), result.Descriptor, table, scope))
	}

	c.logger.Info("document chunked", "filename", filename, "chunks", len(chunks))
	return chunks, result
}
