package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists expenses, users and the category catalog in a
// single SQLite database. Amounts are stored as decimal strings and
// timestamps as unix seconds; loc is the civil timezone used to translate
// month and day filters into epoch ranges.
type SQLiteRepository struct {
	db  *sql.DB
	loc *time.Location
}

func NewSQLiteRepository(dbPath string, loc *time.Location) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}

	return &SQLiteRepository{db: db, loc: loc}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadAllCategories returns every category with its keywords. Ordering by
// category id keeps the catalog in insertion order, which the classifier
// relies on for deterministic tie-breaking.
func (r *SQLiteRepository) LoadAllCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, k.keyword
		FROM categories c
		JOIN category_keywords k ON k.category_id = c.id
		ORDER BY c.id, k.rowid`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var (
		categories []core.Category
		lastID     int64 = -1
	)
	for rows.Next() {
		var (
			id      int64
			name    string
			keyword string
		)
		if err := rows.Scan(&id, &name, &keyword); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		if id != lastID {
			categories = append(categories, core.Category{Name: name})
			lastID = id
		}
		last := &categories[len(categories)-1]
		last.Keywords = append(last.Keywords, keyword)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	return categories, nil
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, amount, category, description, original_prompt, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Amount.String(), e.Category, e.Description, e.OriginalPrompt, e.CreatedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"user_id", e.UserID,
		"category", e.Category,
		"amount", e.Amount.String())

	return id, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, category, description, original_prompt, created_at
		FROM expenses WHERE id = ?`, id)

	e, err := r.scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, core.ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// ListExpenses returns a user's expenses, newest first. A Year+Month filter
// takes precedence over explicit date bounds; both are civil windows in the
// repository's timezone.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, filter core.ExpenseFilter) ([]core.Expense, error) {
	query := `
		SELECT id, user_id, amount, category, description, original_prompt, created_at
		FROM expenses WHERE user_id = ?`
	args := []any{userID}

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}

	if filter.Year != 0 && filter.Month != 0 {
		start := time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, r.loc)
		end := start.AddDate(0, 1, 0)
		query += " AND created_at >= ? AND created_at < ?"
		args = append(args, start.Unix(), end.Unix())
	} else {
		if !filter.StartDate.IsZero() {
			s := filter.StartDate
			start := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, r.loc)
			query += " AND created_at >= ?"
			args = append(args, start.Unix())
		}
		if !filter.EndDate.IsZero() {
			e := filter.EndDate
			end := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, r.loc).AddDate(0, 0, 1)
			query += " AND created_at < ?"
			args = append(args, end.Unix())
		}
	}

	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return r.queryExpenses(ctx, query, args...)
}

func (r *SQLiteRepository) ListExpensesForYear(ctx context.Context, userID string, year int) ([]core.Expense, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, r.loc)
	end := start.AddDate(1, 0, 0)

	return r.queryExpenses(ctx, `
		SELECT id, user_id, amount, category, description, original_prompt, created_at
		FROM expenses
		WHERE user_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at ASC, id ASC`,
		userID, start.Unix(), end.Unix())
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, created_at, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.CreatedAt.Unix(), u.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "username", u.Username)
	return id, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	return r.getUser(ctx, `
		SELECT id, username, email, password_hash, created_at, is_active
		FROM users WHERE username = ?`, username)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.getUser(ctx, `
		SELECT id, username, email, password_hash, created_at, is_active
		FROM users WHERE email = ?`, email)
}

func (r *SQLiteRepository) getUser(ctx context.Context, query string, arg any) (core.User, error) {
	var (
		u       core.User
		created int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &created, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(created, 0).In(r.loc)
	return u, nil
}

// GetPendingSyncExpenses returns expenses not yet exported to the spreadsheet.
func (r *SQLiteRepository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	return r.queryExpenses(ctx, `
		SELECT id, user_id, amount, category, description, original_prompt, created_at
		FROM expenses
		WHERE sync_status = 'pending'
		ORDER BY id ASC
		LIMIT ?`, limit)
}

// MarkSynced records a successful spreadsheet export.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET sync_status = 'synced', sync_version = sync_version + 1
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}

	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError flags an expense whose export failed so it can be retried.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}

	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e         core.Expense
		amount    string
		createdAt int64
	)
	if err := row.Scan(&e.ID, &e.UserID, &amount, &e.Category, &e.Description, &e.OriginalPrompt, &createdAt); err != nil {
		return core.Expense{}, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	e.Amount = parsed
	e.CreatedAt = time.Unix(createdAt, 0).In(r.loc)
	return e, nil
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := r.scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}

	return expenses, nil
}
