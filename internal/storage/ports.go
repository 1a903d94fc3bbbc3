package storage

import (
	"context"

	"fintrack/internal/core"
)

// Repository is the persistence contract consumed by the service and HTTP
// layers. SQLiteRepository is the production implementation; MemoryRepository
// backs tests.
type Repository interface {
	// LoadAllCategories returns the full catalog in insertion order. The
	// classifier's tie-break rule depends on this ordering.
	LoadAllCategories(ctx context.Context) ([]core.Category, error)

	InsertExpense(ctx context.Context, e core.Expense) (int64, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context, userID string, filter core.ExpenseFilter) ([]core.Expense, error)
	// ListExpensesForYear returns a user's expenses within the civil year,
	// oldest first.
	ListExpensesForYear(ctx context.Context, userID string, year int) ([]core.Expense, error)
	// DeleteExpense removes an expense owned by userID. Returns
	// core.ErrNotFound both when the id does not exist and when it belongs
	// to a different user.
	DeleteExpense(ctx context.Context, id int64, userID string) error

	CreateUser(ctx context.Context, u core.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)

	Close() error
}
