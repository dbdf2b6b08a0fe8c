package memory

import (
	"context"
	"sync"

	"laporan/internal/core"
	"laporan/internal/sheets"
)

// Mirror is an in-process EntryMirror, used by tests and local runs.
type Mirror struct {
	mu    sync.Mutex
	order []string
	rows  map[string][]any
}

var _ sheets.EntryMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[string][]any)}
}

func (m *Mirror) Upsert(_ context.Context, e core.Entry, menuLabel string) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.rows[e.ID] = sheets.EntryRow(e, menuLabel)
	return nil
}

func (m *Mirror) Remove(_ context.Context, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[entryID]; !ok {
		return nil
	}
	delete(m.rows, entryID)
	for i, id := range m.order {
		if id == entryID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Mirror) EntryIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...), nil
}

// Rows returns the mirrored rows in first-written order.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, append([]any(nil), m.rows[id]...))
	}
	return out
}

// Row returns the row of entryID.
func (m *Mirror) Row(entryID string) ([]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[entryID]
	return r, ok
}
