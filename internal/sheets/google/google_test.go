package google

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func sampleExpense() core.Expense {
	return core.Expense{
		ID:          7,
		UserID:      "alice",
		Amount:      decimal.RequireFromString("120.50"),
		Category:    "food",
		Description: "Lunch at cafe",
		CreatedAt:   time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestExpenseRow(t *testing.T) {
	row := expenseRow(sampleExpense())
	want := []any{"2024-01-15", "alice", "Lunch at cafe", "120.5", "food"}
	if len(row) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d: expected %v, got %v", i, want[i], row[i])
		}
	}
}

func TestRowMatches(t *testing.T) {
	want := expenseRow(sampleExpense())

	cases := []struct {
		name  string
		row   []any
		match bool
	}{
		{"exact", []any{"2024-01-15", "alice", "Lunch at cafe", "120.5", "food"}, true},
		{"extra trailing columns", []any{"2024-01-15", "alice", "Lunch at cafe", "120.5", "food", "note"}, true},
		{"whitespace and case", []any{" 2024-01-15 ", "Alice", "lunch at cafe", "120.5", "FOOD"}, true},
		{"different amount", []any{"2024-01-15", "alice", "Lunch at cafe", "99", "food"}, false},
		{"too short", []any{"2024-01-15", "alice"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rowMatches(tc.row, want); got != tc.match {
				t.Errorf("rowMatches = %v, expected %v", got, tc.match)
			}
		})
	}
}
