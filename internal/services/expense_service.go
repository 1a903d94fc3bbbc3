package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/extract"
	"fintrack/internal/report"
	"fintrack/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100

	summaryCacheSize = 256
	summaryCacheTTL  = 5 * time.Minute
)

// SyncPublisher publishes export messages for the worker. *amqp.Client is the
// production implementation; a nil publisher disables export.
type SyncPublisher interface {
	PublishExpenseSync(ctx context.Context, id, version int64) error
	PublishExpenseDelete(ctx context.Context, e core.Expense) error
}

var _ SyncPublisher = (*amqp.Client)(nil)

// ExpenseService orchestrates expense creation, queries and deletion across
// the extraction pipeline, SQLite and AMQP. Summary queries are cached per
// user and invalidated on every write.
type ExpenseService struct {
	storage  storage.Repository
	pipeline *extract.Pipeline
	amqp     SyncPublisher
	clock    core.Clock
	loc      *time.Location

	categoryCache *cache.LRUCache[[]core.CategorySummary]
	monthlyCache  *cache.LRUCache[[]core.MonthlySummary]
}

func NewExpenseService(
	repo storage.Repository,
	pipeline *extract.Pipeline,
	publisher SyncPublisher,
	clock core.Clock,
	loc *time.Location,
) *ExpenseService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExpenseService{
		storage:       repo,
		pipeline:      pipeline,
		amqp:          publisher,
		clock:         clock,
		loc:           loc,
		categoryCache: cache.NewLRUCache[[]core.CategorySummary](summaryCacheSize, summaryCacheTTL),
		monthlyCache:  cache.NewLRUCache[[]core.MonthlySummary](summaryCacheSize, summaryCacheTTL),
	}
}

// Caches exposes the summary caches for expiry cleanup registration.
func (s *ExpenseService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.categoryCache, s.monthlyCache}
}

// CreateExpense runs the extraction pipeline on the prompt and stores the
// resulting expense. Returns core.ErrNoAmount when no usable amount was
// found; nothing is stored in that case.
func (s *ExpenseService) CreateExpense(ctx context.Context, userID, prompt string) (core.Expense, error) {
	result, err := s.pipeline.Extract(ctx, prompt)
	if err != nil {
		return core.Expense{}, err
	}

	expense := core.Expense{
		UserID:         userID,
		Amount:         result.Amount,
		Category:       result.Category,
		Description:    result.Description,
		OriginalPrompt: prompt,
		CreatedAt:      s.clock.Now(),
	}

	id, err := s.storage.InsertExpense(ctx, expense)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	expense.ID = id

	s.invalidateSummaries(userID, expense.CreatedAt)

	// Export is best-effort; the pending-sync sweep picks up lost messages.
	if err := s.publishSyncMessage(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
	}

	return expense, nil
}

// ListExpenses returns the user's expenses, newest first. The limit defaults
// to 50 and is capped at 100.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID string, filter core.ExpenseFilter) ([]core.Expense, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	expenses, err := s.storage.ListExpenses(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes an expense owned by userID and asks the worker to
// remove the exported row. Returns core.ErrNotFound for a missing id or one
// owned by someone else; the two cases are indistinguishable to the caller.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64, userID string) error {
	expense, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if expense.UserID != userID {
		return core.ErrNotFound
	}

	if err := s.storage.DeleteExpense(ctx, id, userID); err != nil {
		return err
	}

	s.invalidateSummaries(userID, expense.CreatedAt)

	if err := s.publishDeleteMessage(ctx, expense); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

// CategorySummaries aggregates the user's whole history per category, sorted
// by descending total.
func (s *ExpenseService) CategorySummaries(ctx context.Context, userID string) ([]core.CategorySummary, error) {
	if cached, ok := s.categoryCache.Get(userID); ok {
		return cached, nil
	}

	expenses, err := s.storage.ListExpenses(ctx, userID, core.ExpenseFilter{})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	// Oldest first so insertion order breaks ties deterministically.
	reverse(expenses)
	summaries := report.CategoryTotals(expenses)
	s.categoryCache.Set(userID, summaries)
	return summaries, nil
}

// MonthlySummaries aggregates one civil year per month, ascending, months
// without expenses omitted.
func (s *ExpenseService) MonthlySummaries(ctx context.Context, userID string, year int) ([]core.MonthlySummary, error) {
	key := monthlyCacheKey(userID, year)
	if cached, ok := s.monthlyCache.Get(key); ok {
		return cached, nil
	}

	expenses, err := s.storage.ListExpensesForYear(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("list expenses for year: %w", err)
	}

	summaries := report.MonthlyForYear(expenses, year, s.loc)
	s.monthlyCache.Set(key, summaries)
	return summaries, nil
}

// CategoryNames returns the catalog's category names in insertion order.
func (s *ExpenseService) CategoryNames(ctx context.Context) ([]string, error) {
	categories, err := s.storage.LoadAllCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names, nil
}

// ReloadCatalog refreshes the extraction pipeline's category snapshot.
func (s *ExpenseService) ReloadCatalog(ctx context.Context) error {
	return s.pipeline.Reload(ctx)
}

func (s *ExpenseService) invalidateSummaries(userID string, at time.Time) {
	s.categoryCache.Delete(userID)
	s.monthlyCache.Delete(monthlyCacheKey(userID, at.In(s.loc).Year()))
}

func monthlyCacheKey(userID string, year int) string {
	return userID + "|" + strconv.Itoa(year)
}

func (s *ExpenseService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.amqp == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqp.PublishExpenseSync(ctx, id, version)
}

func (s *ExpenseService) publishDeleteMessage(ctx context.Context, e core.Expense) error {
	if s.amqp == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.amqp.PublishExpenseDelete(ctx, e)
}

// Close closes storage and the AMQP connection.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := s.amqp.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errors.Join(errs...))
	}

	return nil
}

func reverse(expenses []core.Expense) {
	for i, j := 0, len(expenses)-1; i < j; i, j = i+1, j-1 {
		expenses[i], expenses[j] = expenses[j], expenses[i]
	}
}
