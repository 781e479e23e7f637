package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps slots in process memory. Used for tests and for
// demo runs where nothing should survive a restart.
type MemoryStorage struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(ctx context.Context, slot string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *MemoryStorage) Save(ctx context.Context, slot string, data []byte) error {
	return m.SaveMany(ctx, map[string][]byte{slot: data})
}

func (m *MemoryStorage) SaveMany(ctx context.Context, writes map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for slot, data := range writes {
		m.slots[slot] = append([]byte(nil), data...)
	}
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
	return nil
}

func (m *MemoryStorage) Backend() string {
	return "memory"
}
