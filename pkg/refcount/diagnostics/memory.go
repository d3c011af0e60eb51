package diagnostics

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory report store.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]Report
	closed  bool
}

// NewMemoryStore creates a new in-memory report store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]Report),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(report Report) error {
	if report.ID == "" {
		return ErrMissingID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.reports[report.ID] = report
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(id string) (Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Report{}, ErrStoreClosed
	}

	r, ok := m.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return r, nil
}

// List implements Store.
func (m *MemoryStore) List(registry string) ([]Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []Report
	for _, r := range m.reports {
		if r.Registry == registry {
			out = append(out, r)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.reports, id)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.reports = nil
	return nil
}

// Len returns the number of stored reports.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}
