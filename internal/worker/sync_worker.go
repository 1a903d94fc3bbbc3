package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// Storage is the slice of the repository the worker needs: fetching expenses
// and tracking their export status.
type Storage interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker exports expenses from SQLite to the spreadsheet and removes
// exported rows when expenses are deleted.
type SyncWorker struct {
	storage   Storage
	writer    sheets.ExpenseWriter
	deleter   sheets.ExpenseDeleter
	batchSize int
}

func NewSyncWorker(storage Storage, writer sheets.ExpenseWriter, deleter sheets.ExpenseDeleter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single expense sync message from the queue.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	expense, err := w.storage.GetExpense(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.exportExpense(ctx, expense); err != nil {
		return fmt.Errorf("export expense: %w", err)
	}

	return nil
}

// HandleDeleteMessage processes a single expense delete message. The local
// row is already gone, so the expense is rebuilt from the message payload.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.ExpenseDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if w.deleter == nil {
		slog.WarnContext(ctx, "No expense deleter configured, skipping spreadsheet deletion",
			"id", msg.ID)
		return nil
	}

	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", msg.Amount, err)
	}

	expense := core.Expense{
		ID:          msg.ID,
		UserID:      msg.UserID,
		Amount:      amount,
		Category:    msg.Category,
		Description: msg.Description,
		CreatedAt:   msg.CreatedAt,
	}

	if err := w.deleter.Delete(ctx, expense); err != nil {
		return fmt.Errorf("delete expense from spreadsheet: %w", err)
	}

	slog.InfoContext(ctx, "Expense removed from export target", "id", msg.ID)
	return nil
}

// ProcessPendingExpenses exports expenses whose sync message was lost. Runs
// periodically as a backup for the queue.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, expense := range pending {
		if err := w.exportExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending expense",
				"id", expense.ID, "error", err)
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup, using
// a larger batch to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncExpenses(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, expense := range pending {
		if err := w.exportExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense during startup",
				"id", expense.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}

func (w *SyncWorker) exportExpense(ctx context.Context, expense core.Expense) error {
	ref, err := w.writer.Append(ctx, expense)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"id", expense.ID, "error", markErr)
		}
		return fmt.Errorf("append to export target: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, expense.ID); err != nil {
		// The export itself succeeded; the sweep will retry the bookkeeping.
		slog.ErrorContext(ctx, "Failed to mark as synced",
			"id", expense.ID, "error", err)
	}

	slog.InfoContext(ctx, "Expense exported",
		"id", expense.ID,
		"ref", ref,
		"category", expense.Category,
		"amount", expense.Amount.String())

	return nil
}
