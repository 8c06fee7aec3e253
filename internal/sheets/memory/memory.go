package memory

import (
	"context"
	"sync"

	"spendbook/internal/core"
	ports "spendbook/internal/sheets"
)

var _ ports.Mirror = (*Mirror)(nil)

// Mirror keeps the last mirrored list in memory. It stands in for a remote
// spreadsheet when none is configured.
type Mirror struct {
	mu    sync.Mutex
	last  core.ExpenseList
	count int
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Mirror(_ context.Context, list core.ExpenseList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = list.Clone()
	m.count++
	return nil
}

// Last returns the most recently mirrored list and how many times Mirror
// has been called.
func (m *Mirror) Last() (core.ExpenseList, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last.Clone(), m.count
}
