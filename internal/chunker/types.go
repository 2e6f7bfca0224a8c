package chunker

import "github.com/rohitsolanki2392/creportfoliopulse/internal/model"

// Closed set of document types.
const (
	DocTypeLeaseAgreement = "lease_agreement"
	DocTypeTenantList     = "tenant_list"
	DocTypeBuildingSpec   = "building_spec"
	DocTypeMarketReport   = "market_report"
	DocTypeContactDB      = "contact_db"
	DocTypeOther          = "other"
)

// Closed set of structural patterns; each selects one splitting strategy.
const (
	PatternHierarchical    = "hierarchical"
	PatternRepeatedEntries = "repeated_entries"
	PatternTabular         = "tabular"
	PatternNarrative       = "narrative"
)

// StructureDescriptor is the per-document structural classification.
type StructureDescriptor struct {
	DocType           string   `json:"doc_type"`
	StructurePattern  string   `json:"structure_pattern"`
	PrimaryEntityType string   `json:"primary_entity_type"`
	SectionMarkers    []string `json:"section_markers"`
	EntrySeparators   []string `json:"entry_separators"`
	KeyFields         []string `json:"key_fields"`
}

// StructureResult makes the heuristic fallback a first-class branch: Fallback
// is true when the classification call failed or returned malformed output
// and the fixed descriptor was used instead.
type StructureResult struct {
	Descriptor StructureDescriptor
	Fallback   bool
}

// Scope is the tenant/document isolation tuple stamped onto every chunk.
type Scope struct {
	CompanyID  string
	Category   string
	FileID     string
	BuildingID string
}

// RawChunk is a split-out span of document text before enrichment.
type RawChunk struct {
	Text      string
	Hierarchy []string
}

// Chunk is an enriched chunk ready for embedding and indexing.
type Chunk struct {
	Text               string
	ChunkIndex         int
	TotalChunks        int
	SectionHierarchy   []string
	ChunkTitle         string
	ChunkType          string
	KeyTopics          []string
	SearchableFields   model.SearchableFields
	SemanticSummary    string
	DocType            string
	PrimaryEntityType  string
	PrimaryEntityValue string
	Scope              Scope
}
