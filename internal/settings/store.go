package settings

import (
	"context"
	"fmt"
	"sync"
)

// Slot keys.
const (
	KeySSID      = "ssid"
	KeyPassword  = "password"
	KeyBroker    = "broker"
	KeyBoardName = "board_name"
)

// MaxValueLength bounds every stored value, in bytes.
const MaxValueLength = 64

// Store is durable key-value persistence for configuration strings.
//
// Get reports ok=false when the key has never been written. Implementations
// must make a single Get or Set atomic with respect to other calls on the same
// key; there is no isolation across keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

func validate(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(value) > MaxValueLength {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrValueTooLong, key, len(value), MaxValueLength)
	}
	return nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
