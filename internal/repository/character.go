package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/altarworks/emmaus/internal/types"
)

// characterModel maps to the characters table.
type characterModel struct {
	ID            string `gorm:"primaryKey"`
	Name          string
	Era           string
	Description   string
	Personality   string
	SpeakingStyle string
	// KeyScriptures is stored as JSONB.
	KeyScriptures   json.RawMessage `gorm:"type:jsonb"`
	FirstMessage    string
	ExampleDialogue string
	SystemPrompt    string
	AvatarURL       string `gorm:"column:avatar_url"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (characterModel) TableName() string {
	return "characters"
}

// CharacterRepo provides access to the character catalog.
type CharacterRepo struct {
	db *gorm.DB
}

// NewCharacterRepo creates a new CharacterRepo.
func NewCharacterRepo(db *gorm.DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// GetByID fetches a character by ID.
func (r *CharacterRepo) GetByID(ctx context.Context, id string) (*types.Character, error) {
	var record characterModel
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("character not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get character by id: %w", err)
	}
	return characterFromModel(record), nil
}

// GetDefault fetches the first available character.
func (r *CharacterRepo) GetDefault(ctx context.Context) (*types.Character, error) {
	var record characterModel
	if err := r.db.WithContext(ctx).Order("id ASC").First(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to get default character: %w", err)
	}
	return characterFromModel(record), nil
}

// List returns the whole catalog, ordered by ID.
func (r *CharacterRepo) List(ctx context.Context) ([]types.Character, error) {
	var records []characterModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}

	results := make([]types.Character, 0, len(records))
	for _, record := range records {
		results = append(results, *characterFromModel(record))
	}
	return results, nil
}

func characterFromModel(model characterModel) *types.Character {
	var scriptures []string
	_ = unmarshalJSON(model.KeyScriptures, &scriptures)
	return &types.Character{
		ID:              model.ID,
		Name:            model.Name,
		Era:             model.Era,
		Description:     model.Description,
		Personality:     model.Personality,
		SpeakingStyle:   model.SpeakingStyle,
		KeyScriptures:   scriptures,
		FirstMessage:    model.FirstMessage,
		ExampleDialogue: model.ExampleDialogue,
		SystemPrompt:    model.SystemPrompt,
		AvatarURL:       model.AvatarURL,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}
