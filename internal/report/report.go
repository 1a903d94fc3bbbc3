// Package report computes read-only aggregate summaries over a user's
// already-fetched expense records. Every function is a pure computation;
// nothing here touches storage.
package report

import (
	"sort"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// CategoryTotals groups expenses by category and sums their amounts,
// ordered descending by summed amount. Categories with equal totals keep
// their first-seen (insertion) order.
func CategoryTotals(expenses []core.Expense) []core.CategorySummary {
	index := make(map[string]int)
	var summaries []core.CategorySummary

	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(summaries)
			index[e.Category] = i
			summaries = append(summaries, core.CategorySummary{
				Category: e.Category,
				Total:    decimal.Zero,
			})
		}
		summaries[i].Total = summaries[i].Total.Add(e.Amount)
		summaries[i].Count++
	}

	sort.SliceStable(summaries, func(a, b int) bool {
		return summaries[a].Total.GreaterThan(summaries[b].Total)
	})
	return summaries
}

// MonthlyForYear summarizes expenses whose CreatedAt falls within the civil
// year [Jan 1 00:00 loc, Jan 1 00:00 loc of year+1), grouped by calendar
// month in ascending order. Months without records are omitted, not
// zero-filled. UniqueCategories counts distinct category names per month.
func MonthlyForYear(expenses []core.Expense, year int, loc *time.Location) []core.MonthlySummary {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)

	type bucket struct {
		total      decimal.Decimal
		count      int
		categories map[string]struct{}
	}
	buckets := make(map[int]*bucket)

	for _, e := range expenses {
		at := e.CreatedAt
		if at.Before(start) || !at.Before(end) {
			continue
		}
		month := int(at.In(loc).Month())
		b, ok := buckets[month]
		if !ok {
			b = &bucket{total: decimal.Zero, categories: make(map[string]struct{})}
			buckets[month] = b
		}
		b.total = b.total.Add(e.Amount)
		b.count++
		b.categories[e.Category] = struct{}{}
	}

	var summaries []core.MonthlySummary
	for month := 1; month <= 12; month++ {
		b, ok := buckets[month]
		if !ok {
			continue
		}
		summaries = append(summaries, core.MonthlySummary{
			Month:            month,
			Year:             year,
			TotalAmount:      b.total,
			ExpenseCount:     b.count,
			UniqueCategories: len(b.categories),
		})
	}
	return summaries
}
