package store

import (
	"context"
	"sync"
)

// MemoryKV keeps sets and hashes in process memory.
type MemoryKV struct {
	mu     sync.RWMutex
	sets   map[string]map[string]struct{}
	hashes map[string]map[string]string
}

// NewMemoryKV returns an empty in-memory backend.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		sets:   make(map[string]map[string]struct{}),
		hashes: make(map[string]map[string]string),
	}
}

func (m *MemoryKV) SAdd(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[key]
	if !ok {
		s = make(map[string]struct{})
		m.sets[key] = s
	}
	s[member] = struct{}{}
	return nil
}

func (m *MemoryKV) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return out, nil
}

func (m *MemoryKV) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (m *MemoryKV) HGet(_ context.Context, key, field string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.hashes[key][field]
	return v, ok, nil
}

func (m *MemoryKV) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *MemoryKV) Close() error { return nil }
