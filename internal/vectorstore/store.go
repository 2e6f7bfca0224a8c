package vectorstore

import (
	"context"
	"errors"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/model"
)

// ErrMissingCompanyScope rejects queries whose filter lacks the mandatory
// tenant scope. Retrieval must never run unscoped.
var ErrMissingCompanyScope = errors.New("vector query requires a company_id filter")

// ErrMissingFileScope rejects deletes that do not name a file.
var ErrMissingFileScope = errors.New("vector delete requires a file_id filter")

// Filter is the metadata filter for queries and deletes. CompanyID is
// mandatory for queries; all other fields narrow the scope when non-empty.
type Filter struct {
	CompanyID  string
	Category   string
	FileID     string
	BuildingID string
	DocType    string
}

// Match is one ranked query result. Similarity is cosine similarity in [0,1]
// for normalized embeddings.
type Match struct {
	Vector     model.ChunkVector
	Similarity float64
}

// Store is the vector index: batched upsert, metadata-filtered delete, and
// scoped similarity query.
type Store interface {
	Upsert(ctx context.Context, records []model.ChunkVector) error
	Delete(ctx context.Context, f Filter) error
	Query(ctx context.Context, embedding []float32, topK int, f Filter) ([]Match, error)
}
