package model

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Closed set of chunk types.
const (
	ChunkTypeTenantRecord     = "tenant_record"
	ChunkTypeBuildingRecord   = "building_record"
	ChunkTypeDocumentSection  = "document_section"
	ChunkTypeInformationBlock = "information_block"
)

// SearchableFields holds the regex-extracted key/value pairs of a chunk.
// The key set is fixed; absent fields stay empty.
type SearchableFields struct {
	TenantName    string `json:"tenant_name,omitempty"`
	Building      string `json:"building,omitempty"`
	Address       string `json:"address,omitempty"`
	Rent          string `json:"rent,omitempty"`
	SquareFootage string `json:"sf,omitempty"`
	LeaseEnd      string `json:"lease_end,omitempty"`
}

func (f SearchableFields) Value() (driver.Value, error) {
	return json.Marshal(f)
}

func (f *SearchableFields) Scan(value interface{}) error {
	if value == nil {
		*f = SearchableFields{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, f)
}

// ChunkVector is one embedded chunk plus its metadata. Every row carries the
// full scope tuple (company_id, category, file_id, building_id) so that a
// retrieval filter can never cross tenant boundaries by omission.
type ChunkVector struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID string    `gorm:"size:100;not null;index" json:"company_id"`
	Category  string    `gorm:"size:100;not null;index" json:"category"`
	FileID    string    `gorm:"size:100;not null;index" json:"file_id"`
	// Empty when the document is not scoped to a building.
	BuildingID string `gorm:"size:100;index" json:"building_id,omitempty"`

	DocType            string           `gorm:"size:50" json:"doc_type"`
	ChunkType          string           `gorm:"size:50" json:"chunk_type"`
	ChunkTitle         string           `gorm:"size:255" json:"chunk_title"`
	ChunkIndex         int              `gorm:"not null" json:"chunk_index"`
	TotalChunks        int              `gorm:"not null" json:"total_chunks"`
	SectionHierarchy   StringArray      `gorm:"type:jsonb" json:"section_hierarchy"`
	KeyTopics          StringArray      `gorm:"type:jsonb" json:"key_topics"`
	SearchableFields   SearchableFields `gorm:"type:jsonb" json:"searchable_fields"`
	PrimaryEntityType  string           `gorm:"size:50" json:"primary_entity_type,omitempty"`
	PrimaryEntityValue string           `gorm:"size:255" json:"primary_entity_value,omitempty"`
	SemanticSummary    string           `gorm:"size:255" json:"semantic_summary"`

	Text        string          `gorm:"type:text;not null" json:"text"`
	TextPreview string          `gorm:"size:1000" json:"text_preview"`
	Filename    string          `gorm:"size:500" json:"filename"`
	UploadedAt  int64           `gorm:"not null" json:"uploaded_at"`
	Embedding   pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
}

func (ChunkVector) TableName() string {
	return "chunk_vectors"
}
