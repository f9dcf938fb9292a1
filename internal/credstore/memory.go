package credstore

import (
	"slices"
	"strings"
	"sync"

	"github.com/zx06/credsafe/internal/config"
)

// MemoryStore keeps credentials in process memory only.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]*Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]*Credentials)}
}

func (m *MemoryStore) Kind() config.Kind { return config.KindMemoryOnly }

func (m *MemoryStore) Get(attrs Attributes) (*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.entries[attrs.Key()]; ok {
		return c, nil
	}
	if attrs.UserName != "" {
		return nil, nil
	}
	// Without a user name, the lowest user name under the service wins.
	var keys []Key
	for k := range m.entries {
		if k.Service == attrs.Service {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	slices.SortFunc(keys, func(a, b Key) int { return strings.Compare(a.UserName, b.UserName) })
	return m.entries[keys[0]], nil
}

func (m *MemoryStore) Set(attrs Attributes, creds *Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if creds.IsEmpty() {
		delete(m.entries, attrs.Key())
		return nil
	}
	m.entries[attrs.Key()] = NewCredentials(creds.UserName, creds.password)
	return nil
}

func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.entries = make(map[Key]*Credentials)
	m.mu.Unlock()
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
