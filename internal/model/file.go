package model

import "time"

// StandaloneFile is the catalog record for one ingested document. The FileID
// is the caller-supplied opaque key that every chunk vector is scoped to.
type StandaloneFile struct {
	BaseModel
	FileID       string     `gorm:"size:100;not null;uniqueIndex" json:"file_id"`
	OriginalName string     `gorm:"size:500;not null" json:"original_name"`
	CompanyID    string     `gorm:"size:100;not null;index" json:"company_id"`
	Category     string     `gorm:"size:100;not null;index" json:"category"`
	BuildingID   string     `gorm:"size:100;index" json:"building_id,omitempty"`
	SizeBytes    int64      `gorm:"not null" json:"size_bytes"`
	ChunkCount   int        `gorm:"default:0" json:"chunk_count"`
	UploadedBy   string     `gorm:"size:100" json:"uploaded_by"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

func (StandaloneFile) TableName() string {
	return "standalone_files"
}
