package vectorstore

import (
	"context"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/model"
)

func rec(companyID, category, fileID string, embedding []float32) model.ChunkVector {
	return model.ChunkVector{
		CompanyID: companyID,
		Category:  category,
		FileID:    fileID,
		Text:      "chunk text",
		Embedding: pgvector.NewVector(embedding),
	}
}

func TestQueryScopedToCompany(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []model.ChunkVector{
		rec("7", "leases", "f1", []float32{1, 0, 0}),
		rec("8", "leases", "f2", []float32{1, 0, 0}),
	}))

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 10, Filter{CompanyID: "7"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "7", matches[0].Vector.CompanyID)
}

func TestQueryRequiresCompanyScope(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Query(context.Background(), []float32{1}, 10, Filter{})
	assert.ErrorIs(t, err, ErrMissingCompanyScope)
}

func TestQueryOrdersBySimilarity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []model.ChunkVector{
		rec("7", "leases", "far", []float32{0, 1, 0}),
		rec("7", "leases", "near", []float32{1, 0, 0}),
		rec("7", "leases", "mid", []float32{1, 1, 0}),
	}))

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 2, Filter{CompanyID: "7"})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].Vector.FileID)
	assert.Equal(t, "mid", matches[1].Vector.FileID)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
}

func TestQueryNarrowsByOptionalFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a := rec("7", "leases", "f1", []float32{1, 0})
	a.BuildingID = "b1"
	b := rec("7", "contracts", "f2", []float32{1, 0})
	b.BuildingID = "b2"
	require.NoError(t, s.Upsert(ctx, []model.ChunkVector{a, b}))

	matches, err := s.Query(ctx, []float32{1, 0}, 10, Filter{CompanyID: "7", Category: "leases"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "f1", matches[0].Vector.FileID)

	matches, err = s.Query(ctx, []float32{1, 0}, 10, Filter{CompanyID: "7", BuildingID: "b2"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "f2", matches[0].Vector.FileID)

	matches, err = s.Query(ctx, []float32{1, 0}, 10, Filter{CompanyID: "7", FileID: "f2"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestDeleteRemovesOnlyScopedFile(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []model.ChunkVector{
		rec("7", "leases", "f1", []float32{1, 0}),
		rec("7", "leases", "f1", []float32{0, 1}),
		rec("7", "leases", "f2", []float32{1, 0}),
		rec("8", "leases", "f1", []float32{1, 0}),
	}))

	require.NoError(t, s.Delete(ctx, Filter{CompanyID: "7", FileID: "f1"}))

	assert.Equal(t, 0, s.Count(Filter{CompanyID: "7", FileID: "f1"}))
	assert.Equal(t, 1, s.Count(Filter{CompanyID: "7", FileID: "f2"}))
	// Another company's file with the same id is untouched.
	assert.Equal(t, 1, s.Count(Filter{CompanyID: "8", FileID: "f1"}))
}

func TestDeleteRequiresFileScope(t *testing.T) {
	s := NewMemoryStore()
	assert.ErrorIs(t, s.Delete(context.Background(), Filter{CompanyID: "7"}), ErrMissingFileScope)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosineSimilarity(nil, nil))
}
