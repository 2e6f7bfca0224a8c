package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/model"
)

// ErrSessionScope rejects a session handle presented by a company that does
// not own the session.
var ErrSessionScope = errors.New("session does not belong to this company")

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// GetOrCreateSession resolves the caller's session handle, creating the
// session row on first use. An existing session owned by another company is
// never returned.
func (r *ChatRepository) GetOrCreateSession(ctx context.Context, sessionID, userID, companyID, category string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error
	if err == nil {
		if session.CompanyID != companyID {
			return nil, fmt.Errorf("%w: %s", ErrSessionScope, sessionID)
		}
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session = model.ChatSession{
		ID:        sessionID,
		UserID:    userID,
		CompanyID: companyID,
		Category:  category,
	}
	if err := r.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ChatRepository) CreateTurn(ctx context.Context, turn *model.ChatTurn) error {
	return r.db.WithContext(ctx).Create(turn).Error
}

// ListTurns returns a session's turns oldest first, scoped to the company
// that owns them.
func (r *ChatRepository) ListTurns(ctx context.Context, sessionID, companyID string, limit int) ([]model.ChatTurn, error) {
	var turns []model.ChatTurn
	q := r.db.WithContext(ctx).
		Where("session_id = ? AND company_id = ?", sessionID, companyID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&turns).Error
	return turns, err
}
