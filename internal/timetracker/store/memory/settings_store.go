package memory

import (
	"context"
	"sync"
)

type SettingsStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewSettingsStore copies initial so callers may reuse the map.
func NewSettingsStore(initial map[string]string) *SettingsStore {
	data := make(map[string]string, len(initial))
	for k, v := range initial {
		data[k] = v
	}
	return &SettingsStore{data: data}
}

func (s *SettingsStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *SettingsStore) Set(_ context.Context, key, value, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}
