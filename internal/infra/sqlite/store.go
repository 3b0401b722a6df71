// Package sqlite is the embedded SQL entity store backed by modernc.org/sqlite.
// The schema is managed by golang-migrate from the embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	_ "modernc.org/sqlite"
)

// Store implements port.Store on a single SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database directory if needed, runs migrations and returns
// a ready store.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// timestamp scans RFC 3339 TEXT columns.
type timestamp struct{ t *time.Time }

func (ts timestamp) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case time.Time:
		*ts.t = v
		return nil
	default:
		return fmt.Errorf("timestamp: cannot scan %T", src)
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*ts.t = parsed
	return nil
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// affected maps a zero-row write to ErrNotFound.
func affected(res sql.Result, resource string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.NotFound(resource, id)
	}
	return nil
}

// ============================================================
// Users
// ============================================================

const userColumns = `id, username, email, password_hash, first_name, last_name, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, timestamp{&u.CreatedAt}); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, s.stamp())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, &domain.ErrConflict{Message: "email already registered"}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.GetUser(ctx, id)
}

// ============================================================
// Categories
// ============================================================

func (s *Store) ListCategories(ctx context.Context, userID int64) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, type FROM categories WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, userID, categoryID int64) (*domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type FROM categories WHERE id = ? AND user_id = ?`, categoryID, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("category", categoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type) VALUES (?, ?, ?)`, c.UserID, c.Name, c.Type)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	created := *c
	created.ID = id
	return &created, nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, categoryID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, categoryID, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return affected(res, "category", categoryID)
}

// ============================================================
// Transactions
// ============================================================

const transactionColumns = `id, user_id, type, amount, description, category_id, date, recurring, recurring_period, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.CategoryID,
		&t.Date, &t.Recurring, &t.RecurringPeriod, timestamp{&t.CreatedAt})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	return s.ListTransactionsByDateRange(ctx, userID, domain.TransactionRange{})
}

func (s *Store) ListTransactionsByDateRange(ctx context.Context, userID int64, r domain.TransactionRange) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}
	if !r.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, r.From.String())
	}
	if !r.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, r.To.String())
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, userID, txID int64) (*domain.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, txID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("transaction", txID)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, type, amount, description, category_id, date, recurring, recurring_period, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Type, t.Amount.String(), t.Description, t.CategoryID, t.Date.String(), t.Recurring, t.RecurringPeriod, s.stamp())
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return s.GetTransaction(ctx, t.UserID, id)
}

func (s *Store) UpdateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		 SET type = ?, amount = ?, description = ?, category_id = ?, date = ?, recurring = ?, recurring_period = ?
		 WHERE id = ? AND user_id = ?`,
		t.Type, t.Amount.String(), t.Description, t.CategoryID, t.Date.String(), t.Recurring, t.RecurringPeriod, t.ID, t.UserID)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	if err := affected(res, "transaction", t.ID); err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, t.UserID, t.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, txID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, txID, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affected(res, "transaction", txID)
}

// ============================================================
// Budgets
// ============================================================

const budgetColumns = `id, user_id, category_id, amount, period, start_date, end_date, created_at`

func scanBudget(row interface{ Scan(...any) error }) (*domain.Budget, error) {
	var b domain.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &b.Period, &b.StartDate, &b.EndDate, timestamp{&b.CreatedAt})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID int64) ([]domain.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) GetBudget(ctx context.Context, userID, budgetID int64) (*domain.Budget, error) {
	b, err := scanBudget(s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, budgetID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("budget", budgetID)
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *Store) CreateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount, period, start_date, end_date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Amount.String(), b.Period, nullableDate(b.StartDate), nullableDate(b.EndDate), s.stamp())
	if err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}
	return s.GetBudget(ctx, b.UserID, id)
}

func (s *Store) UpdateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, amount = ?, period = ?, start_date = ?, end_date = ? WHERE id = ? AND user_id = ?`,
		b.CategoryID, b.Amount.String(), b.Period, nullableDate(b.StartDate), nullableDate(b.EndDate), b.ID, b.UserID)
	if err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	if err := affected(res, "budget", b.ID); err != nil {
		return nil, err
	}
	return s.GetBudget(ctx, b.UserID, b.ID)
}

func (s *Store) DeleteBudget(ctx context.Context, userID, budgetID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, budgetID, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return affected(res, "budget", budgetID)
}

// ============================================================
// Savings goals
// ============================================================

const goalColumns = `id, user_id, title, description, target_amount, current_amount, target_date, created_at`

func scanGoal(row interface{ Scan(...any) error }) (*domain.SavingsGoal, error) {
	var g domain.SavingsGoal
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, timestamp{&g.CreatedAt})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) ListSavingsGoals(ctx context.Context, userID int64) ([]domain.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? ORDER BY target_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SavingsGoal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (s *Store) GetSavingsGoal(ctx context.Context, userID, goalID int64) (*domain.SavingsGoal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`, goalID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("savings goal", goalID)
	}
	if err != nil {
		return nil, fmt.Errorf("get savings goal: %w", err)
	}
	return g, nil
}

func (s *Store) CreateSavingsGoal(ctx context.Context, g *domain.SavingsGoal) (*domain.SavingsGoal, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO savings_goals (user_id, title, description, target_amount, current_amount, target_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Title, g.Description, g.TargetAmount.String(), g.CurrentAmount.String(), g.TargetDate.String(), s.stamp())
	if err != nil {
		return nil, fmt.Errorf("create savings goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create savings goal: %w", err)
	}
	return s.GetSavingsGoal(ctx, g.UserID, id)
}

func (s *Store) UpdateSavingsGoal(ctx context.Context, g *domain.SavingsGoal) (*domain.SavingsGoal, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE savings_goals
		 SET title = ?, description = ?, target_amount = ?, current_amount = ?, target_date = ?
		 WHERE id = ? AND user_id = ?`,
		g.Title, g.Description, g.TargetAmount.String(), g.CurrentAmount.String(), g.TargetDate.String(), g.ID, g.UserID)
	if err != nil {
		return nil, fmt.Errorf("update savings goal: %w", err)
	}
	if err := affected(res, "savings goal", g.ID); err != nil {
		return nil, err
	}
	return s.GetSavingsGoal(ctx, g.UserID, g.ID)
}

func (s *Store) DeleteSavingsGoal(ctx context.Context, userID, goalID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ? AND user_id = ?`, goalID, userID)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	return affected(res, "savings goal", goalID)
}

func nullableDate(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}
