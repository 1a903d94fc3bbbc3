package report

import (
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

var kolkata = time.FixedZone("IST", 5*3600+30*60)

func expense(category, amount string, at time.Time) core.Expense {
	return core.Expense{
		UserID:      "7",
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		Description: category,
		CreatedAt:   at,
	}
}

func TestCategoryTotals(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, kolkata)
	expenses := []core.Expense{
		expense("food", "120.50", at),
		expense("travel", "500", at),
		expense("food", "80", at),
		expense("gym", "2500", at),
	}

	got := CategoryTotals(expenses)
	if len(got) != 3 {
		t.Fatalf("got %d summaries, want 3", len(got))
	}

	// Descending by total: gym 2500, travel 500, food 200.50.
	wantOrder := []string{"gym", "travel", "food"}
	for i, cat := range wantOrder {
		if got[i].Category != cat {
			t.Fatalf("position %d = %q, want %q", i, got[i].Category, cat)
		}
	}
	if !got[2].Total.Equal(decimal.RequireFromString("200.50")) {
		t.Fatalf("food total = %s, want 200.50", got[2].Total)
	}
	if got[2].Count != 2 {
		t.Fatalf("food count = %d, want 2", got[2].Count)
	}
}

func TestCategoryTotalsTiesKeepInsertionOrder(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, kolkata)
	got := CategoryTotals([]core.Expense{
		expense("fun", "100", at),
		expense("food", "100", at),
	})
	if got[0].Category != "fun" || got[1].Category != "food" {
		t.Fatalf("tie order = [%s %s], want [fun food]", got[0].Category, got[1].Category)
	}
}

func TestCategoryTotalsReconcile(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, kolkata)
	expenses := []core.Expense{
		expense("food", "0.10", at),
		expense("food", "0.20", at),
		expense("food", "0.30", at),
	}
	got := CategoryTotals(expenses)

	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e.Amount)
	}
	if !got[0].Total.Equal(sum) {
		t.Fatalf("total %s does not reconcile with record sum %s", got[0].Total, sum)
	}
}

func TestCategoryTotalsEmpty(t *testing.T) {
	if got := CategoryTotals(nil); len(got) != 0 {
		t.Fatalf("got %d summaries for no expenses", len(got))
	}
}

func TestMonthlyForYear(t *testing.T) {
	expenses := []core.Expense{
		expense("food", "200", time.Date(2024, 3, 5, 13, 0, 0, 0, kolkata)),
		expense("travel", "500", time.Date(2024, 3, 20, 8, 30, 0, 0, kolkata)),
		expense("food", "150", time.Date(2024, 7, 1, 19, 0, 0, 0, kolkata)),
		expense("food", "999", time.Date(2023, 12, 31, 23, 59, 0, 0, kolkata)), // previous year
	}

	got := MonthlyForYear(expenses, 2024, kolkata)
	if len(got) != 2 {
		t.Fatalf("got %d months, want 2 (March, July)", len(got))
	}

	march := got[0]
	if march.Month != 3 || march.Year != 2024 {
		t.Fatalf("first entry = %d/%d, want 3/2024", march.Month, march.Year)
	}
	if march.ExpenseCount != 2 {
		t.Fatalf("March count = %d, want 2", march.ExpenseCount)
	}
	if march.UniqueCategories != 2 {
		t.Fatalf("March unique categories = %d, want 2", march.UniqueCategories)
	}
	if !march.TotalAmount.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("March total = %s, want 700", march.TotalAmount)
	}

	july := got[1]
	if july.Month != 7 || july.ExpenseCount != 1 || july.UniqueCategories != 1 {
		t.Fatalf("July = %+v", july)
	}
}

func TestMonthlyForYearCivilBoundaries(t *testing.T) {
	// 2024-01-01 00:15 IST is still 2023-12-31 in UTC; the civil calendar
	// must place it in 2024, not 2023.
	newYear := expense("food", "100", time.Date(2024, 1, 1, 0, 15, 0, 0, kolkata))
	if newYear.CreatedAt.UTC().Year() != 2023 {
		t.Fatal("fixture must straddle the UTC year boundary")
	}

	if got := MonthlyForYear([]core.Expense{newYear}, 2024, kolkata); len(got) != 1 || got[0].Month != 1 {
		t.Fatalf("2024 summary = %+v, want a single January entry", got)
	}
	if got := MonthlyForYear([]core.Expense{newYear}, 2023, kolkata); len(got) != 0 {
		t.Fatalf("2023 summary = %+v, want empty", got)
	}
}

func TestMonthlyForYearOmitsEmptyMonths(t *testing.T) {
	expenses := []core.Expense{
		expense("food", "10", time.Date(2024, 3, 2, 10, 0, 0, 0, kolkata)),
		expense("fun", "20", time.Date(2024, 3, 9, 10, 0, 0, 0, kolkata)),
	}
	got := MonthlyForYear(expenses, 2024, kolkata)
	if len(got) != 1 {
		t.Fatalf("got %d months, want 1 (April omitted, not zero-filled)", len(got))
	}
	if got[0].Month != 3 || got[0].ExpenseCount != 2 || got[0].UniqueCategories != 2 {
		t.Fatalf("March = %+v", got[0])
	}
}
