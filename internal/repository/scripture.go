package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/altarworks/emmaus/internal/types"
)

// passageModel maps to the scripture_passages table.
type passageModel struct {
	ID        int
	Reference string
	Text      string
	// Themes is stored as JSONB for filtering.
	Themes json.RawMessage `gorm:"type:jsonb"`
	// Embedding stores the vector representation for similarity search.
	Embedding *pgvector.Vector `gorm:"type:vector"`
	CreatedAt time.Time
}

func (passageModel) TableName() string {
	return "scripture_passages"
}

// PassageRepo accesses the scripture passage store.
type PassageRepo struct {
	db *gorm.DB
}

// NewPassageRepo returns a PassageRepo.
func NewPassageRepo(db *gorm.DB) *PassageRepo {
	return &PassageRepo{db: db}
}

// AddPassage inserts a passage with its embedding.
func (r *PassageRepo) AddPassage(ctx context.Context, passage types.ScripturePassage, embedding []float32) error {
	var vector *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vector = &v
	}
	themes, err := marshalJSON(passage.Themes)
	if err != nil {
		return fmt.Errorf("failed to encode passage themes: %w", err)
	}
	record := passageModel{
		Reference: passage.Reference,
		Text:      passage.Text,
		Themes:    themes,
		Embedding: vector,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert passage: %w", err)
	}
	return nil
}

// GetByReference fetches a passage by its canonical reference.
func (r *PassageRepo) GetByReference(ctx context.Context, reference string) (*types.ScripturePassage, error) {
	var record passageModel
	if err := r.db.WithContext(ctx).First(&record, "reference = ?", reference).Error; err != nil {
		return nil, fmt.Errorf("failed to get passage by reference: %w", err)
	}
	passage := passageFromModel(record)
	return &passage, nil
}

// SearchSimilar returns the passages closest to the query embedding by
// cosine similarity, filtered by a similarity floor.
func (r *PassageRepo) SearchSimilar(ctx context.Context, embedding []float32, topK int, threshold float64) ([]types.ScripturePassage, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, reference, text, themes, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM scripture_passages
		WHERE embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) > $2
		ORDER BY similarity DESC
		LIMIT $3`

	vector := pgvector.NewVector(embedding)
	var records []struct {
		passageModel
		Similarity float64
	}
	if err := r.db.WithContext(ctx).
		Raw(query, vector, threshold, topK).
		Scan(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar passages: %w", err)
	}

	results := make([]types.ScripturePassage, 0, len(records))
	for _, record := range records {
		passage := passageFromModel(record.passageModel)
		passage.Similarity = record.Similarity
		results = append(results, passage)
	}
	return results, nil
}

func passageFromModel(model passageModel) types.ScripturePassage {
	var themes []string
	_ = unmarshalJSON(model.Themes, &themes)
	return types.ScripturePassage{
		ID:        model.ID,
		Reference: model.Reference,
		Text:      model.Text,
		Themes:    themes,
		CreatedAt: model.CreatedAt,
	}
}

// marshalJSON encodes a value into JSONB, returning nil for empty values.
func marshalJSON(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// unmarshalJSON decodes JSONB into the provided target.
func unmarshalJSON(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
