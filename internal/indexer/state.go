package indexer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// IndexState records which item IDs each document produced in the last run,
// so items a document no longer produces can be removed.
type IndexState struct {
	Collection  string              `json:"collection"`
	Documents   map[string]DocState `json:"documents"` // keyed by relative path
	LastUpdated time.Time           `json:"last_updated"`
}

// DocState is the per-document part of IndexState.
type DocState struct {
	ContentHash string   `json:"content_hash"`
	TextIDs     []string `json:"text_ids"`
	OCRIDs      []string `json:"ocr_ids,omitempty"`
}

// StatePath returns where the state file for a collection lives: a .docrag
// directory next to the vector database directory.
func StatePath(dbPath, collection string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(dbPath)), ".docrag", collection+"_state.json")
}

// LoadState reads the state file. A missing file yields an empty state.
func LoadState(path string) (*IndexState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &IndexState{Documents: make(map[string]DocState)}, nil
		}
		return nil, err
	}

	var state IndexState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Documents == nil {
		state.Documents = make(map[string]DocState)
	}
	return &state, nil
}

// Save writes the state file, creating its directory if needed.
func (s *IndexState) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	s.LastUpdated = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ClearState removes the state file. A missing file is not an error.
func ClearState(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// staleIDs returns the IDs in previous that are absent from current.
func staleIDs(previous, current []string) []string {
	keep := make(map[string]bool, len(current))
	for _, id := range current {
		keep[id] = true
	}
	var stale []string
	for _, id := range previous {
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	return stale
}
