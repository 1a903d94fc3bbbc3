package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/extract"
	"fintrack/internal/storage"
)

var kolkata = time.FixedZone("IST", 5*3600+30*60)

type fakePublisher struct {
	syncs   []int64
	deletes []core.Expense
	err     error
}

func (f *fakePublisher) PublishExpenseSync(_ context.Context, id, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.syncs = append(f.syncs, id)
	return nil
}

func (f *fakePublisher) PublishExpenseDelete(_ context.Context, e core.Expense) error {
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, e)
	return nil
}

func testCategories() []core.Category {
	return []core.Category{
		{Name: "food", Keywords: []string{"lunch", "dinner", "restaurant", "food"}},
		{Name: "travel", Keywords: []string{"uber", "taxi", "bus", "flight"}},
		{Name: "room_expense", Keywords: []string{"rent", "electricity", "water"}},
	}
}

func newTestService(t *testing.T) (*ExpenseService, *storage.MemoryRepository, *fakePublisher, *core.FixedClock) {
	t.Helper()
	repo := storage.NewMemoryRepository(testCategories(), kolkata)
	pipeline := extract.NewPipeline(extract.NewCatalog(repo))
	publisher := &fakePublisher{}
	clock := &core.FixedClock{Instant: time.Date(2024, time.January, 15, 12, 0, 0, 0, kolkata)}
	svc := NewExpenseService(repo, pipeline, publisher, clock, kolkata)
	return svc, repo, publisher, clock
}

func TestCreateExpenseFromPrompt(t *testing.T) {
	svc, _, publisher, clock := newTestService(t)
	ctx := context.Background()

	expense, err := svc.CreateExpense(ctx, "alice", "spent 500 rupees on lunch at restaurant")
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if !expense.Amount.Equal(decimal.RequireFromString("500")) {
		t.Errorf("expected amount 500, got %s", expense.Amount)
	}
	if expense.Category != "food" {
		t.Errorf("expected category food, got %q", expense.Category)
	}
	if expense.Description != "Spent on lunch at restaurant" {
		t.Errorf("unexpected description %q", expense.Description)
	}
	if expense.OriginalPrompt != "spent 500 rupees on lunch at restaurant" {
		t.Errorf("original prompt not preserved: %q", expense.OriginalPrompt)
	}
	if !expense.CreatedAt.Equal(clock.Now()) {
		t.Errorf("expected clock timestamp, got %v", expense.CreatedAt)
	}
	if len(publisher.syncs) != 1 || publisher.syncs[0] != expense.ID {
		t.Errorf("expected one sync message for id %d, got %v", expense.ID, publisher.syncs)
	}
}

func TestCreateExpenseNoAmount(t *testing.T) {
	svc, repo, publisher, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateExpense(ctx, "alice", "had a great lunch today")
	if !errors.Is(err, core.ErrNoAmount) {
		t.Fatalf("expected ErrNoAmount, got %v", err)
	}

	stored, err := repo.ListExpenses(ctx, "alice", core.ExpenseFilter{})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(stored) != 0 {
		t.Error("rejected prompt must not be stored")
	}
	if len(publisher.syncs) != 0 {
		t.Error("rejected prompt must not be published")
	}
}

func TestCreateExpensePublishFailureStillSaves(t *testing.T) {
	svc, repo, publisher, _ := newTestService(t)
	publisher.err = errors.New("broker down")
	ctx := context.Background()

	expense, err := svc.CreateExpense(ctx, "alice", "₹200 uber to office")
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if _, err := repo.GetExpense(ctx, expense.ID); err != nil {
		t.Errorf("expense not stored despite publish failure: %v", err)
	}
}

func TestDeleteExpenseOwnership(t *testing.T) {
	svc, _, publisher, _ := newTestService(t)
	ctx := context.Background()

	expense, err := svc.CreateExpense(ctx, "alice", "500 rupees dinner")
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if err := svc.DeleteExpense(ctx, expense.ID, "bob"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user's expense, got %v", err)
	}
	if err := svc.DeleteExpense(ctx, expense.ID, "alice"); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := svc.DeleteExpense(ctx, expense.ID, "alice"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	if len(publisher.deletes) != 1 || publisher.deletes[0].ID != expense.ID {
		t.Errorf("expected one delete message for id %d, got %v", expense.ID, publisher.deletes)
	}
}

func TestListExpensesLimitBounds(t *testing.T) {
	svc, _, _, clock := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		clock.Instant = clock.Instant.Add(time.Minute)
		if _, err := svc.CreateExpense(ctx, "alice", "100 rupees lunch"); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}

	got, err := svc.ListExpenses(ctx, "alice", core.ExpenseFilter{})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(got) != defaultListLimit {
		t.Errorf("expected default limit %d, got %d", defaultListLimit, len(got))
	}

	got, err = svc.ListExpenses(ctx, "alice", core.ExpenseFilter{Limit: 1000})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(got) != 60 {
		t.Errorf("expected all 60 under the cap of 100, got %d", len(got))
	}
}

func TestCategorySummariesCachedAndInvalidated(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateExpense(ctx, "alice", "500 rupees dinner"); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	first, err := svc.CategorySummaries(ctx, "alice")
	if err != nil {
		t.Fatalf("CategorySummaries: %v", err)
	}
	if len(first) != 1 || first[0].Category != "food" {
		t.Fatalf("unexpected summaries %v", first)
	}

	// A new expense must invalidate the cached summary.
	if _, err := svc.CreateExpense(ctx, "alice", "₹900 uber to airport"); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	second, err := svc.CategorySummaries(ctx, "alice")
	if err != nil {
		t.Fatalf("CategorySummaries: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected 2 categories after invalidation, got %v", second)
	}
	if second[0].Category != "travel" {
		t.Errorf("expected travel first by total, got %q", second[0].Category)
	}
}

func TestMonthlySummaries(t *testing.T) {
	svc, _, _, clock := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateExpense(ctx, "alice", "500 rupees dinner"); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	clock.Instant = time.Date(2024, time.March, 3, 9, 0, 0, 0, kolkata)
	if _, err := svc.CreateExpense(ctx, "alice", "1200 rupees rent"); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	got, err := svc.MonthlySummaries(ctx, "alice", 2024)
	if err != nil {
		t.Fatalf("MonthlySummaries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 active months, got %v", got)
	}
	if got[0].Month != 1 || got[1].Month != 3 {
		t.Errorf("expected months 1 and 3 ascending, got %v", got)
	}
	if got[1].UniqueCategories != 1 || got[1].ExpenseCount != 1 {
		t.Errorf("unexpected March summary %+v", got[1])
	}
}

func TestCategoryNames(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	names, err := svc.CategoryNames(context.Background())
	if err != nil {
		t.Fatalf("CategoryNames: %v", err)
	}
	want := []string{"food", "travel", "room_expense"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}
