package storage

import (
	"context"
	"sync"
)

// MemoryProvider keeps values in process memory. Used by tests and the
// "memory" backend.
type MemoryProvider struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{data: make(map[string][]byte)}
}

func (p *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (p *MemoryProvider) Set(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	p.data[key] = v
	return nil
}

func (p *MemoryProvider) Remove(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, key)
	return nil
}

func (p *MemoryProvider) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = make(map[string][]byte)
	return nil
}

// Len returns the number of stored keys.
func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.data)
}
