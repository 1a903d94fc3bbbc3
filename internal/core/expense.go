package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MiscellaneousCategory is the sentinel category assigned when no keyword
// of any catalog category matches the prompt.
const MiscellaneousCategory = "miscellaneous"

var (
	ErrNoAmount           = errors.New("no amount found in prompt")
	ErrCatalogUnavailable = errors.New("category catalog unavailable")
	ErrNotFound           = errors.New("record not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyUser          = errors.New("empty user id")
)

type (
	// Category pairs a unique name with the keyword set used for matching.
	// Names are lowercase snake_case by convention; keyword sets may overlap
	// across categories.
	Category struct {
		Name     string
		Keywords []string
	}

	// ExtractionResult is the transient value produced by the extraction
	// pipeline. A zero Amount signals that extraction failed.
	ExtractionResult struct {
		Amount      decimal.Decimal
		Category    string
		Description string
	}

	// Expense is a normalized, stored spending record. CreatedAt is always
	// in the configured civil timezone, never UTC.
	Expense struct {
		ID             int64
		UserID         string
		Amount         decimal.Decimal
		Category       string
		Description    string
		OriginalPrompt string
		CreatedAt      time.Time
	}

	// User is an account able to submit expenses.
	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
		IsActive     bool
	}

	// CategorySummary aggregates a user's expenses for one category.
	CategorySummary struct {
		Category string          `json:"category"`
		Total    decimal.Decimal `json:"total"`
		Count    int             `json:"count"`
	}

	// MonthlySummary aggregates a user's expenses for one calendar month.
	MonthlySummary struct {
		Month            int             `json:"month"`
		Year             int             `json:"year"`
		TotalAmount      decimal.Decimal `json:"total_amount"`
		ExpenseCount     int             `json:"expense_count"`
		UniqueCategories int             `json:"unique_categories"`
	}

	// ExpenseFilter narrows an expense listing. Zero values mean "no filter".
	// Month is only honored together with Year; StartDate/EndDate are civil
	// day boundaries in the configured timezone.
	ExpenseFilter struct {
		Category  string
		Year      int
		Month     int
		StartDate time.Time
		EndDate   time.Time
		Limit     int
	}
)

// OK reports whether the pipeline extracted a usable amount.
func (r ExtractionResult) OK() bool {
	return r.Amount.IsPositive()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if len(c.Keywords) == 0 {
		return errors.New("category has no keywords")
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrEmptyUser
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
