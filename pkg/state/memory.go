package state

import (
	"context"
	"sort"
	"sync"

	"github.com/arkavo-labs/accord/pkg/directory"
)

type memoryEntry struct {
	payload []byte
	at      uint64
}

// MemoryStore is an in-memory Store for tests and ephemeral hosts.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[directory.Address]memoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[directory.Address]memoryEntry)}
}

func (m *MemoryStore) Save(_ context.Context, addr directory.Address, payload []byte, at uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	m.entries[addr] = memoryEntry{payload: buf, at: at}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, addr directory.Address) ([]byte, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[addr]
	if !ok {
		return nil, 0, ErrNotFound
	}
	buf := make([]byte, len(e.payload))
	copy(buf, e.payload)
	return buf, e.at, nil
}

func (m *MemoryStore) Addresses(_ context.Context) ([]directory.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]directory.Address, 0, len(m.entries))
	for addr := range m.entries {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
