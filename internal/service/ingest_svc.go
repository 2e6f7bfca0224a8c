package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/chunker"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/extract"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/model"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/vectorstore"
)

const previewLen = 800

// ErrIndexInconsistent marks an update that deleted the old vectors but
// failed before the new ones were written. The file has no index entries
// until a re-ingest succeeds.
var ErrIndexInconsistent = errors.New("index left inconsistent: vectors deleted but reinsert failed")

// ErrFileExists rejects a first-time ingest under an already-ingested file id.
var ErrFileExists = errors.New("file_id already ingested; use update")

// FileCatalog persists the file records of ingested documents. Implemented by
// repository.FileRepository; tests substitute an in-memory fake. Absent files
// are reported as gorm.ErrRecordNotFound.
type FileCatalog interface {
	Create(ctx context.Context, file *model.StandaloneFile) error
	Update(ctx context.Context, file *model.StandaloneFile) error
	FindByFileID(ctx context.Context, fileID string) (*model.StandaloneFile, error)
	Delete(ctx context.Context, fileID string) error
	List(ctx context.Context, companyID, category, buildingID string) ([]model.StandaloneFile, error)
}

// IngestInput is the inbound tuple for (re-)ingesting one document.
type IngestInput struct {
	Filename   string
	Data       []byte
	CompanyID  string
	Category   string
	FileID     string
	BuildingID string
	UploadedBy string
}

// IngestService drives the ingestion path: extract, analyze, split, enrich,
// embed, index, catalog. Callers serialize ingestion per file_id; this
// service does not lock.
type IngestService struct {
	extractor *extract.Extractor
	chunker   *chunker.Chunker
	embedder  Embedder
	store     vectorstore.Store
	fileRepo  FileCatalog
	logger    *slog.Logger
}

func NewIngestService(
	extractor *extract.Extractor,
	ch *chunker.Chunker,
	embedder Embedder,
	store vectorstore.Store,
	fileRepo FileCatalog,
) *IngestService {
	return &IngestService{
		extractor: extractor,
		chunker:   ch,
		embedder:  embedder,
		store:     store,
		fileRepo:  fileRepo,
		logger:    slog.Default().With("service", "ingest"),
	}
}

// Ingest processes a new document and returns the number of vectors written.
func (s *IngestService) Ingest(ctx context.Context, in IngestInput) (int, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}
	if s.fileRepo != nil {
		_, err := s.fileRepo.FindByFileID(ctx, in.FileID)
		switch {
		case err == nil:
			return 0, fmt.Errorf("%w: %s", ErrFileExists, in.FileID)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			// A transient catalog error must not read as "not ingested yet":
			// proceeding could write duplicate vectors.
			return 0, fmt.Errorf("failed to check file catalog for %s: %w", in.FileID, err)
		}
	}

	count, err := s.index(ctx, in)
	if err != nil {
		return 0, err
	}

	if s.fileRepo != nil {
		now := time.Now()
		file := &model.StandaloneFile{
			FileID:       in.FileID,
			OriginalName: in.Filename,
			CompanyID:    in.CompanyID,
			Category:     in.Category,
			BuildingID:   in.BuildingID,
			SizeBytes:    int64(len(in.Data)),
			ChunkCount:   count,
			UploadedBy:   in.UploadedBy,
			ProcessedAt:  &now,
		}
		if err := s.fileRepo.Create(ctx, file); err != nil {
			return count, fmt.Errorf("failed to record file catalog entry: %w", err)
		}
	}

	s.logger.Info("file ingested", "file_id", in.FileID, "filename", in.Filename, "vectors", count)
	return count, nil
}

// Update replaces the indexed content of an existing file: all vectors under
// its file_id are deleted first, then the new set is written. The window in
// between has no vectors for the file; a failure inside it is surfaced as
// ErrIndexInconsistent.
func (s *IngestService) Update(ctx context.Context, in IngestInput) (int, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}

	var existing *model.StandaloneFile
	if s.fileRepo != nil {
		var err error
		existing, err = s.fileRepo.FindByFileID(ctx, in.FileID)
		if err != nil {
			return 0, fmt.Errorf("file %s not found: %w", in.FileID, err)
		}
	}

	if err := s.store.Delete(ctx, vectorstore.Filter{FileID: in.FileID, CompanyID: in.CompanyID}); err != nil {
		return 0, fmt.Errorf("failed to delete stale vectors for %s: %w", in.FileID, err)
	}

	count, err := s.index(ctx, in)
	if err != nil {
		s.logger.Error("reinsert failed after vector delete; file has no index entries",
			"file_id", in.FileID, "error", err)
		return 0, fmt.Errorf("%w: %s: %v", ErrIndexInconsistent, in.FileID, err)
	}

	if existing != nil {
		now := time.Now()
		existing.OriginalName = in.Filename
		existing.Category = in.Category
		existing.BuildingID = in.BuildingID
		existing.SizeBytes = int64(len(in.Data))
		existing.ChunkCount = count
		existing.ProcessedAt = &now
		if err := s.fileRepo.Update(ctx, existing); err != nil {
			return count, fmt.Errorf("failed to update file catalog entry: %w", err)
		}
	}

	s.logger.Info("file re-ingested", "file_id", in.FileID, "vectors", count)
	return count, nil
}

// Delete removes all vectors for the file, then its catalog record. The two
// steps are not transactional; a catalog failure after the vectors are gone
// is logged loudly and surfaced.
func (s *IngestService) Delete(ctx context.Context, fileID, companyID, category string) error {
	if fileID == "" {
		return fmt.Errorf("file_id is required")
	}

	if s.fileRepo != nil {
		file, err := s.fileRepo.FindByFileID(ctx, fileID)
		if err != nil {
			return fmt.Errorf("file %s not found: %w", fileID, err)
		}
		if companyID != "" && file.CompanyID != companyID {
			return fmt.Errorf("file %s not found for company", fileID)
		}
		if category != "" && file.Category != category {
			return fmt.Errorf("file %s not found in category", fileID)
		}
	}

	if err := s.store.Delete(ctx, vectorstore.Filter{FileID: fileID, CompanyID: companyID, Category: category}); err != nil {
		return fmt.Errorf("failed to delete vectors for %s: %w", fileID, err)
	}

	if s.fileRepo != nil {
		if err := s.fileRepo.Delete(ctx, fileID); err != nil {
			s.logger.Error("vectors deleted but catalog record removal failed",
				"file_id", fileID, "error", err)
			return fmt.Errorf("vectors removed but catalog delete failed for %s: %w", fileID, err)
		}
	}

	s.logger.Info("file deleted", "file_id", fileID)
	return nil
}

// ListFiles returns the catalog entries visible to a company.
func (s *IngestService) ListFiles(ctx context.Context, companyID, category, buildingID string) ([]model.StandaloneFile, error) {
	return s.fileRepo.List(ctx, companyID, category, buildingID)
}

// index runs extract -> chunk -> embed -> upsert for one document.
func (s *IngestService) index(ctx context.Context, in IngestInput) (int, error) {
	text, err := s.extractor.Extract(in.Filename, in.Data)
	if err != nil {
		return 0, err
	}

	scope := chunker.Scope{
		CompanyID:  in.CompanyID,
		Category:   in.Category,
		FileID:     in.FileID,
		BuildingID: in.BuildingID,
	}
	chunks, _ := s.chunker.ChunkDocument(ctx, text, in.Filename, scope)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: %s", extract.ErrNoText, in.Filename)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding failed for %s: %w", in.FileID, err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch for %s: %d vectors for %d chunks",
			in.FileID, len(embeddings), len(chunks))
	}

	uploadedAt := time.Now().Unix()
	records := make([]model.ChunkVector, len(chunks))
	for i, c := range chunks {
		preview := clip(c.Text, previewLen)
		records[i] = model.ChunkVector{
			ID:                 uuid.New(),
			CompanyID:          c.Scope.CompanyID,
			Category:           c.Scope.Category,
			FileID:             c.Scope.FileID,
			BuildingID:         c.Scope.BuildingID,
			DocType:            c.DocType,
			ChunkType:          c.ChunkType,
			ChunkTitle:         c.ChunkTitle,
			ChunkIndex:         c.ChunkIndex,
			TotalChunks:        c.TotalChunks,
			SectionHierarchy:   c.SectionHierarchy,
			KeyTopics:          c.KeyTopics,
			SearchableFields:   c.SearchableFields,
			PrimaryEntityType:  c.PrimaryEntityType,
			PrimaryEntityValue: c.PrimaryEntityValue,
			SemanticSummary:    c.SemanticSummary,
			Text:               c.Text,
			TextPreview:        preview,
			Filename:           in.Filename,
			UploadedAt:         uploadedAt,
			Embedding:          embeddings[i],
		}
	}

	if err := s.store.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("index write failed for %s: %w", in.FileID, err)
	}
	return len(records), nil
}

// clip cuts s to at most n bytes, backing off to a rune boundary so the
// result is always valid UTF-8.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func validateInput(in IngestInput) error {
	if in.FileID == "" {
		return fmt.Errorf("file_id is required")
	}
	if in.CompanyID == "" {
		return fmt.Errorf("company_id is required")
	}
	if in.Category == "" {
		return fmt.Errorf("category is required")
	}
	if !extract.Supported(in.Filename) {
		return fmt.Errorf("%w: %s", extract.ErrUnsupportedFormat, in.Filename)
	}
	return nil
}
