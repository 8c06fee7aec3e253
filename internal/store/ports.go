package store

import (
	"context"

	"spendbook/internal/core"
)

// Ports for persistence backends. A backend always reads and writes the
// whole list; there is no incremental update.
type (
	Loader interface {
		// Load returns the persisted list, or an empty list when nothing
		// has been persisted yet.
		Load(ctx context.Context) (core.ExpenseList, error)
	}

	Saver interface {
		// Save overwrites the persisted list with list.
		Save(ctx context.Context, list core.ExpenseList) error
	}

	Store interface {
		Loader
		Saver
	}
)
