package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/altarworks/emmaus/internal/types"
)

type transcriptModel struct {
	ID          int
	SessionID   string
	CharacterID string
	Role        string
	Content     string
	CreatedAt   time.Time
}

func (transcriptModel) TableName() string {
	return "chat_transcripts"
}

// TranscriptRepo accesses stored conversation turns.
type TranscriptRepo struct {
	db *gorm.DB
}

// NewTranscriptRepo returns a TranscriptRepo.
func NewTranscriptRepo(db *gorm.DB) *TranscriptRepo {
	return &TranscriptRepo{db: db}
}

func (r *TranscriptRepo) AddMessage(ctx context.Context, msg types.ChatMessage) error {
	record := transcriptModel{
		SessionID:   msg.SessionID,
		CharacterID: msg.CharacterID,
		Role:        msg.Role,
		Content:     msg.Content,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

func (r *TranscriptRepo) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]types.ChatMessage, error) {
	var records []transcriptModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query chat transcript: %w", err)
	}

	results := make([]types.ChatMessage, 0, len(records))
	for _, record := range records {
		results = append(results, transcriptMessageFromModel(record))
	}

	// Oldest -> newest
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

func transcriptMessageFromModel(model transcriptModel) types.ChatMessage {
	return types.ChatMessage{
		ID:          model.ID,
		SessionID:   model.SessionID,
		CharacterID: model.CharacterID,
		Role:        model.Role,
		Content:     model.Content,
		CreatedAt:   model.CreatedAt,
	}
}
