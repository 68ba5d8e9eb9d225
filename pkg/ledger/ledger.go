// Package ledger records burn events whose mint has already been handed to the relay.
package ledger

import (
	"errors"
	"sync"
)

// ErrKeyEmpty is returned when an empty event key is used
var ErrKeyEmpty = errors.New("ledger key is empty")

// Ledger tracks relayed event keys so an event is handed off at most once
type Ledger interface {
	// Seen reports whether the key was already relayed
	Seen(key string) (bool, error)
	// Mark records a successful hand-off of key under the relay task id
	Mark(key string, taskID string) error
	Close() error
}

// Memory is an in-process Ledger that lives as long as the process
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ Ledger = (*Memory)(nil)

// NewMemory creates an empty in-memory ledger
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Seen(key string) (bool, error) {
	if key == "" {
		return false, ErrKeyEmpty
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok, nil
}

func (m *Memory) Mark(key string, taskID string) error {
	if key == "" {
		return ErrKeyEmpty
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = taskID
	return nil
}

// Len returns the number of recorded keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error {
	return nil
}
