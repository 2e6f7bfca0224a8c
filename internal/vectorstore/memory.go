package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/model"
)

// MemoryStore holds vectors in process memory. It backs tests and local
// development; semantics mirror PGStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.ChunkVector
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Upsert(ctx context.Context, records []model.ChunkVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, f Filter) error {
	if f.FileID == "" {
		return ErrMissingFileScope
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if r.FileID == f.FileID &&
			(f.CompanyID == "" || r.CompanyID == f.CompanyID) &&
			(f.Category == "" || r.Category == f.Category) {
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, embedding []float32, topK int, f Filter) ([]Match, error) {
	if f.CompanyID == "" {
		return nil, ErrMissingCompanyScope
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Match
	for _, r := range s.records {
		if r.CompanyID != f.CompanyID {
			continue
		}
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if f.FileID != "" && r.FileID != f.FileID {
			continue
		}
		if f.BuildingID != "" && r.BuildingID != f.BuildingID {
			continue
		}
		if f.DocType != "" && r.DocType != f.DocType {
			continue
		}
		matches = append(matches, Match{
			Vector:     r,
			Similarity: cosineSimilarity(embedding, r.Embedding.Slice()),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count reports how many stored vectors pass the filter. Test helper.
func (s *MemoryStore) Count(f Filter) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if f.CompanyID != "" && r.CompanyID != f.CompanyID {
			continue
		}
		if f.FileID != "" && r.FileID != f.FileID {
			continue
		}
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		n++
	}
	return n
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
