package wavio

import (
	"fmt"
	"sync"
)

// Memory is an in-memory [Source]. Loads and saves copy their data.
type Memory struct {
	mu      sync.Mutex
	data    map[string][]float32
	saveErr error
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]float32)}
}

// Put stores a copy of samples under path.
func (m *Memory) Put(path string, samples []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[path] = append([]float32(nil), samples...)
}

// FailSaves makes every later Save return err. A nil err restores saving.
func (m *Memory) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Load returns a copy of the sequence stored under path.
func (m *Memory) Load(path string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.data[path]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return append([]float32(nil), s...), nil
}

// Save stores a copy of samples under path.
func (m *Memory) Save(path string, samples []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[path] = append([]float32(nil), samples...)
	return nil
}

// Has reports whether a sequence is stored under path.
func (m *Memory) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[path]
	return ok
}
