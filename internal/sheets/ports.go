package sheets

import (
	"context"

	"spendbook/internal/core"
)

// Mirror receives a full copy of the expense list after it changes.
type Mirror interface {
	// Mirror replaces the remote copy with list.
	Mirror(ctx context.Context, list core.ExpenseList) error
}
