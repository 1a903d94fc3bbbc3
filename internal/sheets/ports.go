package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound export adapters.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseDeleter removes a previously exported expense. The expense is
	// reconstructed from the delete message since the local row is gone.
	ExpenseDeleter interface {
		Delete(ctx context.Context, e core.Expense) error
	}
)
