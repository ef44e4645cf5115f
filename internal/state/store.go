package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
)

// Store persists Resume as a JSON file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the state file. It fails soft: a missing or unparsable file
// yields defaults. The returned error is informational only and the Resume
// is always usable.
func (s *Store) Load() (*Resume, error) {
	resume := NewResume()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return resume, nil
		}
		return resume, fmt.Errorf("read state file: %w", err)
	}

	// Pointer fields so absent keys keep their defaults; a stored volume
	// of 0 is a legitimate value, not a missing one.
	var data struct {
		PlaybackRate *float64           `json:"playbackRate"`
		Volume       *float64           `json:"volume"`
		History      map[string]float64 `json:"history"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return resume, fmt.Errorf("decode state file: %w", err)
	}

	if data.PlaybackRate != nil && *data.PlaybackRate > 0 {
		resume.data.PlaybackRate = *data.PlaybackRate
	}
	if data.Volume != nil {
		resume.SetVolume(*data.Volume)
	}
	for title, seconds := range data.History {
		resume.RecordProgress(title, seconds)
	}
	return resume, nil
}

// Save writes the state file atomically: the JSON goes to a pending temp
// file which is fsynced and renamed over the old one, so a crash mid-save
// never corrupts the previous state.
func (s *Store) Save(resume *Resume) error {
	pending, err := renameio.NewPendingFile(s.path)
	if err != nil {
		return fmt.Errorf("create pending state file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	encoder := json.NewEncoder(pending)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resume.snapshot()); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
