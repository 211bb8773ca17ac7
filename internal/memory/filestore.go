// Package memory implements the per-user persona memory engine: a
// file-backed store of structured memory records, the merge rules that
// grow them, and the summarizer that turns them into prompt context.
package memory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/altarworks/emmaus/internal/types"
)

// FileStore persists one indented JSON file per user, each holding the full
// array of that user's memory records. Every operation is serialized through
// a single mutex; the store is safe for concurrent use within one process
// but is not a multi-process store.
type FileStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFileStore creates the data directory if needed and returns a store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("memory directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Get returns the memory for a (user, character) pair, or nil when no record
// exists. Read failures degrade to nil so conversation can continue without
// memory; they never propagate.
func (s *FileStore) Get(userID, characterID string) *types.UserCharacterMemory {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, mem := range s.loadLocked(userID) {
		if strings.EqualFold(mem.CharacterID, characterID) {
			found := mem
			return &found
		}
	}
	return nil
}

// All returns every memory record stored for the user, possibly empty.
func (s *FileStore) All(userID string) []types.UserCharacterMemory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(userID)
}

// Save stamps the record's last-interaction time and rewrites the user's
// file with any previous record for the same character replaced. The write
// is a whole-file read-modify-write under the store lock, so at most one
// record per (user, character) pair can exist afterwards.
func (s *FileStore) Save(mem *types.UserCharacterMemory) error {
	if mem == nil {
		return fmt.Errorf("memory record is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mem.LastInteraction = s.now()

	existing := s.loadLocked(mem.UserID)
	updated := make([]types.UserCharacterMemory, 0, len(existing)+1)
	for _, record := range existing {
		if strings.EqualFold(record.CharacterID, mem.CharacterID) {
			continue
		}
		updated = append(updated, record)
	}
	updated = append(updated, *mem)

	return s.writeLocked(mem.UserID, updated)
}

// Clear deletes the user's entire memory file. Idempotent.
func (s *FileStore) Clear(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.userPath(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete memory file: %w", err)
	}
	return nil
}

// Export serializes the user's full record list as indented JSON.
func (s *FileStore) Export(userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked(userID)
	if records == nil {
		records = []types.UserCharacterMemory{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export memories: %w", err)
	}
	return string(raw), nil
}

// loadLocked reads the user's file. Missing files and malformed JSON both
// degrade to an empty list; malformed data is logged at error level because
// it means stored memories were lost.
func (s *FileStore) loadLocked(userID string) []types.UserCharacterMemory {
	raw, err := os.ReadFile(s.userPath(userID))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read memory file", "error", err.Error(), "user_id", userID)
		}
		return nil
	}

	var records []types.UserCharacterMemory
	if err := json.Unmarshal(raw, &records); err != nil {
		slog.Error("memory file is corrupt, treating as empty", "error", err.Error(), "user_id", userID)
		return nil
	}
	return records
}

// writeLocked overwrites the user's file. Write failures propagate to the
// caller; a silently dropped write would corrupt the user's record.
func (s *FileStore) writeLocked(userID string, records []types.UserCharacterMemory) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode memories: %w", err)
	}
	if err := os.WriteFile(s.userPath(userID), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	return nil
}

func (s *FileStore) userPath(userID string) string {
	return filepath.Join(s.dir, sanitizeFileName(userID)+".json")
}

// sanitizeFileName keeps user ids filesystem-safe.
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
