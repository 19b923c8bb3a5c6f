package store

import (
	"context"
	"sync"
)

// MemoryBackend is an in-process Backend. The Fail fields inject errors so
// callers can exercise storage failures; they are read on every call.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte

	FailGet    error
	FailSet    error
	FailDelete error
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

// Kind names the backend in status output.
func (m *MemoryBackend) Kind() string {
	return "memory"
}

// Path is empty: nothing is stored on disk.
func (m *MemoryBackend) Path() string {
	return ""
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailGet != nil {
		return nil, false, m.FailGet
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSet != nil {
		return m.FailSet
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		return m.FailDelete
	}
	delete(m.values, key)
	return nil
}

// Fail sets all three injected errors at once. Pass nil to recover.
func (m *MemoryBackend) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailGet, m.FailSet, m.FailDelete = err, err, err
}

func (m *MemoryBackend) Close() error {
	return nil
}
