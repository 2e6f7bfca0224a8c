package model

import "time"

// ChatSession groups the turns of one conversation. The ID is the
// caller-supplied session handle; session lifecycle is owned by the caller.
type ChatSession struct {
	ID        string    `gorm:"size:100;primary_key" json:"id"`
	UserID    string    `gorm:"size:100;index" json:"user_id"`
	CompanyID string    `gorm:"size:100;not null;index" json:"company_id"`
	Category  string    `gorm:"size:100" json:"category"`
	Title     string    `gorm:"size:255" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Turns []ChatTurn `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"turns,omitempty"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatTurn is one answered question. Written exactly once per request and
// immutable afterwards.
type ChatTurn struct {
	BaseModel
	SessionID      string  `gorm:"size:100;not null;index" json:"session_id"`
	CompanyID      string  `gorm:"size:100;not null;index" json:"company_id"`
	Question       string  `gorm:"type:text;not null" json:"question"`
	Answer         string  `gorm:"type:text" json:"answer"`
	Classification string  `gorm:"size:50" json:"classification"`
	Confidence     float64 `gorm:"not null;default:0" json:"confidence"`
	ResponseTime   float64 `json:"response_time"`
	SourcesUsed    int     `gorm:"default:0" json:"sources_used"`
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}
