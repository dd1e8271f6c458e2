// Package secrets holds credentials a provider hands to the wrapped tool.
package secrets

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/simplygenius/atmos-sub001/internal/logging"
)

var secretsLog = logging.ForComponent(logging.CompSecrets)

// Store is a key/value secret store.
type Store interface {
	// Set stores value under key. It fails with ErrDuplicateKey when key is
	// present and overwrite is false, leaving the store unchanged.
	Set(key, value string, overwrite bool) error
	// Get returns the value under key and whether it was present.
	Get(key string) (string, bool)
	// Delete removes key. Missing keys are ignored.
	Delete(key string)
	// Keys lists the stored keys in sorted order.
	Keys() []string
}

// Memory is an in-process Store. Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Set(key, value string, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok && !overwrite {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	m.values[key] = value
	// Never log values.
	secretsLog.Debug("secret_set", slog.String("key", key))
	return nil
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
