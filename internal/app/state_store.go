package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// PersistedSession is the durable layout of one session. The whole
// collection is written as a single JSON array; load followed by save must
// reproduce the same structure.
type PersistedSession struct {
	Title     string             `json:"title"`
	Messages  []PersistedMessage `json:"messages"`
	GraphData []Element          `json:"graphData"`
}

type PersistedMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// StateStore persists the whole session collection as one blob.
type StateStore interface {
	// Load returns (nil, nil) when no state has been persisted yet.
	Load() ([]PersistedSession, error)
	Save([]PersistedSession) error
}

// FileStateStore keeps the collection in a single JSON file, written
// atomically via a temp file and rename.
type FileStateStore struct {
	Path string
}

func NewFileStateStore(dir string) *FileStateStore {
	if dir == "" {
		dir = DefaultStateDir()
	}
	return &FileStateStore{Path: filepath.Join(dir, "sessions.json")}
}

func (s *FileStateStore) Load() ([]PersistedSession, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []PersistedSession
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FileStateStore) Save(sessions []PersistedSession) error {
	if sessions == nil {
		sessions = []PersistedSession{}
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}
