package vectorstore

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/model"
)

// PGStore keeps chunk vectors in Postgres with pgvector cosine search.
type PGStore struct {
	db        *gorm.DB
	batchSize int
}

func NewPGStore(db *gorm.DB, batchSize int) *PGStore {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &PGStore{db: db, batchSize: batchSize}
}

func (s *PGStore) Upsert(ctx context.Context, records []model.ChunkVector) error {
	if len(records) == 0 {
		return nil
	}
	for i := 0; i < len(records); i += s.batchSize {
		end := i + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]
		if err := s.db.WithContext(ctx).Create(&batch).Error; err != nil {
			return fmt.Errorf("vector upsert failed: %w", err)
		}
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, f Filter) error {
	if f.FileID == "" {
		return ErrMissingFileScope
	}
	q := s.db.WithContext(ctx).Where("file_id = ?", f.FileID)
	if f.CompanyID != "" {
		q = q.Where("company_id = ?", f.CompanyID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if err := q.Delete(&model.ChunkVector{}).Error; err != nil {
		return fmt.Errorf("vector delete failed: %w", err)
	}
	return nil
}

func (s *PGStore) Query(ctx context.Context, embedding []float32, topK int, f Filter) ([]Match, error) {
	if f.CompanyID == "" {
		return nil, ErrMissingCompanyScope
	}
	if topK <= 0 {
		topK = 10
	}

	var results []struct {
		model.ChunkVector
		Distance float64 `gorm:"column:distance"`
	}

	q := s.db.WithContext(ctx).
		Table("chunk_vectors").
		Select("*, embedding <=> ? as distance", pgvector.NewVector(embedding)).
		Where("company_id = ?", f.CompanyID).
		Order("distance ASC").
		Limit(topK)

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.FileID != "" {
		q = q.Where("file_id = ?", f.FileID)
	}
	if f.BuildingID != "" {
		q = q.Where("building_id = ?", f.BuildingID)
	}
	if f.DocType != "" {
		q = q.Where("doc_type = ?", f.DocType)
	}

	if err := q.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			Vector:     r.ChunkVector,
			Similarity: 1 - r.Distance,
		})
	}
	return matches, nil
}
