package types

import "time"

// Character is a persisted persona profile from the catalog. Catalog entries
// are immutable from the engine's point of view.
type Character struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Era             string    `json:"era"`
	Description     string    `json:"description"`
	Personality     string    `json:"personality"`
	SpeakingStyle   string    `json:"speaking_style"`
	KeyScriptures   []string  `json:"key_scriptures"`
	FirstMessage    string    `json:"first_message"`
	ExampleDialogue string    `json:"example_dialogue"`
	SystemPrompt    string    `json:"system_prompt"`
	AvatarURL       string    `json:"avatar_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ScripturePassage is a catalog verse with its text, used for suggesting
// passages that may resonate with a user's situation.
type ScripturePassage struct {
	ID         int       `json:"id"`
	Reference  string    `json:"reference"`
	Text       string    `json:"text"`
	Themes     []string  `json:"themes"`
	Similarity float64   `json:"similarity,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
