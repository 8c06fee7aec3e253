package memory

import (
	"context"
	"sync"

	"spendbook/internal/core"
	"spendbook/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps the list in process memory. Load and Save copy, so callers
// never share a backing array with the store.
type Store struct {
	mu    sync.Mutex
	items core.ExpenseList
	saves int
}

func New(seed ...core.Expense) *Store {
	return &Store{items: core.ExpenseList(seed).Clone()}
}

func (s *Store) Load(_ context.Context) (core.ExpenseList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone(), nil
}

func (s *Store) Save(_ context.Context, list core.ExpenseList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = list.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
