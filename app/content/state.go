package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// StateStore is the durable reference-to-asset mapping. It is the single
// authoritative record across restarts: loaded once at startup and rewritten
// in full after every mutation, so a crash mid-cycle leaves a state
// consistent with completed operations only.
type StateStore struct {
	path  string
	mu    sync.RWMutex
	state map[string]string
}

func NewStateStore(path string) *StateStore {
	return &StateStore{
		path:  path,
		state: make(map[string]string),
	}
}

// Load reads the state file. A missing file yields an empty state.
func (s *StateStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	state := make(map[string]string)
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

func (s *StateStore) Get(reference string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.state[reference]
	return id, ok
}

// Keys returns the known references in sorted order.
func (s *StateStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.state))
	for k := range s.state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state)
}

// Set records a reference and persists immediately.
func (s *StateStore) Set(reference, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[reference] = assetID
	return s.persist()
}

// Delete removes a reference and persists immediately.
func (s *StateStore) Delete(reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, reference)
	return s.persist()
}

func (s *StateStore) persist() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Dir returns the directory holding the state file.
func (s *StateStore) Dir() string {
	return filepath.Dir(s.path)
}
