package kv

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"sync"
)

var ErrClosed = errors.New("key value store closed")

// Memory is an in-memory Store, safe for concurrent use. Values are copied on the way in and out.
type Memory struct {
	mu     sync.Mutex
	store  map[string][]byte
	closed bool
}

var _ Store = &Memory{}

func NewMemory() *Memory {
	return &Memory{store: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	value, ok := m.store[string(key)]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(value), nil
}

func (m *Memory) CompareAndSet(ctx context.Context, key []byte, expected []byte, value []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}

	current, ok := m.store[string(key)]
	if expected == nil {
		if ok {
			return false, nil
		}
	} else if !ok || !bytes.Equal(current, expected) {
		return false, nil
	}

	if value == nil {
		delete(m.store, string(key))
	} else {
		m.store[string(key)] = bytes.Clone(value)
	}
	return true, nil
}

// Snapshot returns a copy of all stored entries.
func (m *Memory) Snapshot() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := maps.Clone(m.store)
	for k, v := range snapshot {
		snapshot[k] = bytes.Clone(v)
	}
	return snapshot
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.store)
	m.closed = true
	return nil
}
