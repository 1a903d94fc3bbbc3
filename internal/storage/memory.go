package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
)

// MemoryRepository is an in-memory Repository used by tests. It mirrors the
// SQLite implementation's filter and ordering semantics, including civil
// windows in a configurable timezone.
type MemoryRepository struct {
	mu         sync.Mutex
	loc        *time.Location
	categories []core.Category
	expenses   []core.Expense
	users      []core.User
	nextID     int64
	nextUserID int64
}

func NewMemoryRepository(categories []core.Category, loc *time.Location) *MemoryRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryRepository{
		loc:        loc,
		categories: append([]core.Category(nil), categories...),
		nextID:     1,
		nextUserID: 1,
	}
}

func (m *MemoryRepository) Close() error { return nil }

func (m *MemoryRepository) LoadAllCategories(_ context.Context) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Category(nil), m.categories...), nil
}

func (m *MemoryRepository) InsertExpense(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID
	m.nextID++
	m.expenses = append(m.expenses, e)
	return e.ID, nil
}

func (m *MemoryRepository) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

func (m *MemoryRepository) ListExpenses(_ context.Context, userID string, filter core.ExpenseFilter) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var window func(time.Time) bool
	switch {
	case filter.Year != 0 && filter.Month != 0:
		start := time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, m.loc)
		end := start.AddDate(0, 1, 0)
		window = func(t time.Time) bool { return !t.Before(start) && t.Before(end) }
	case !filter.StartDate.IsZero() || !filter.EndDate.IsZero():
		start := time.Time{}
		if s := filter.StartDate; !s.IsZero() {
			start = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, m.loc)
		}
		end := time.Time{}
		if e := filter.EndDate; !e.IsZero() {
			end = time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, m.loc).AddDate(0, 0, 1)
		}
		window = func(t time.Time) bool {
			if !start.IsZero() && t.Before(start) {
				return false
			}
			if !end.IsZero() && !t.Before(end) {
				return false
			}
			return true
		}
	default:
		window = func(time.Time) bool { return true }
	}

	var out []core.Expense
	for _, e := range m.expenses {
		if e.UserID != userID {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if !window(e.CreatedAt) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryRepository) ListExpensesForYear(_ context.Context, userID string, year int) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, m.loc)
	end := start.AddDate(1, 0, 0)

	var out []core.Expense
	for _, e := range m.expenses {
		if e.UserID != userID {
			continue
		}
		if e.CreatedAt.Before(start) || !e.CreatedAt.Before(end) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) DeleteExpense(_ context.Context, id int64, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.expenses {
		if e.ID == id && e.UserID == userID {
			m.expenses = append(m.expenses[:i], m.expenses[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *MemoryRepository) CreateUser(_ context.Context, u core.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextUserID
	m.nextUserID++
	m.users = append(m.users, u)
	return u.ID, nil
}

func (m *MemoryRepository) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (m *MemoryRepository) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}
