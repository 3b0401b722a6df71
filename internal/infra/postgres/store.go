// Package postgres is the networked entity store on PostgreSQL, using a pgx
// connection pool. Every call goes through a resilience guard: reads are
// retried with backoff, writes run once, and both trip the shared breaker.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/resilience"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var pgTracer = otel.Tracer("finance-tracker/postgres")

const uniqueViolation = "23505"

// Store implements port.Store on a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	guard  *resilience.Guard
	logger *zap.Logger
}

// Open connects, migrates and returns a ready store.
func Open(ctx context.Context, databaseURL string, cfg resilience.Config, logger *zap.Logger) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConcurrency > 0 {
		poolCfg.MaxConns = int32(min(cfg.MaxConcurrency, 64))
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{
		pool:   pool,
		guard:  resilience.NewGuard("postgres", cfg),
		logger: logger,
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CircuitOpen reports whether the breaker is currently rejecting calls.
func (s *Store) CircuitOpen() bool {
	return s.guard.State() == gobreaker.StateOpen
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Truncate empties every table and resets the id sequences.
func (s *Store) Truncate(ctx context.Context) error {
	return s.write(ctx, "Truncate", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`TRUNCATE savings_goals, budgets, transactions, categories, users RESTART IDENTITY CASCADE`)
		return err
	})
}

// read runs an idempotent query with retries.
func (s *Store) read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.call(ctx, op, s.guard.Do, fn)
}

// write runs a mutation once.
func (s *Store) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.call(ctx, op, s.guard.DoOnce, fn)
}

func (s *Store) call(ctx context.Context, op string, run func(context.Context, func(context.Context) error) error, fn func(ctx context.Context) error) error {
	ctx, span := pgTracer.Start(ctx, "postgres."+op)
	defer span.End()
	span.SetAttributes(attribute.String("db.system", "postgresql"))

	err := run(ctx, func(ctx context.Context) error {
		return classify(fn(ctx))
	})
	if err != nil {
		var nf *domain.ErrNotFound
		if !errors.As(err, &nf) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Warn("postgres call failed", zap.String("op", op), zap.Error(err))
		}
	}
	return err
}

// classify marks errors that retrying cannot fix as permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var nf *domain.ErrNotFound
	var conflict *domain.ErrConflict
	if errors.As(err, &nf) || errors.As(err, &conflict) {
		return resilience.Permanent(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			return resilience.Permanent(&domain.ErrConflict{Message: "email already registered"})
		}
		// Constraint and syntax errors (class 22/23/42) will fail again.
		if c := pgErr.Code[:2]; c == "22" || c == "23" || c == "42" {
			return resilience.Permanent(err)
		}
	}
	return err
}

func notFoundIfNoRows(err error, resource string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(resource, id)
	}
	return err
}

func notFoundIfNone(tag pgconn.CommandTag, resource string, id int64) error {
	if tag.RowsAffected() == 0 {
		return domain.NotFound(resource, id)
	}
	return nil
}

func nullableDate(d *domain.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

// ============================================================
// Users
// ============================================================

const userColumns = `id, username, email, password_hash, first_name, last_name, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	var u *domain.User
	err := s.read(ctx, "GetUser", func(ctx context.Context) error {
		var err error
		u, err = scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
		return notFoundIfNoRows(err, "user", userID)
	})
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u *domain.User
	err := s.read(ctx, "GetUserByEmail", func(ctx context.Context) error {
		var err error
		u, err = scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
		if errors.Is(err, pgx.ErrNoRows) {
			u = nil
			return nil
		}
		return err
	})
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, in *domain.User) (*domain.User, error) {
	var u *domain.User
	err := s.write(ctx, "CreateUser", func(ctx context.Context) error {
		var err error
		u, err = scanUser(s.pool.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash, first_name, last_name)
			 VALUES ($1, $2, $3, $4, $5) RETURNING `+userColumns,
			in.Username, in.Email, in.PasswordHash, in.FirstName, in.LastName))
		return err
	})
	return u, err
}

// ============================================================
// Categories
// ============================================================

func (s *Store) ListCategories(ctx context.Context, userID int64) ([]domain.Category, error) {
	var out []domain.Category
	err := s.read(ctx, "ListCategories", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx,
			`SELECT id, user_id, name, type FROM categories WHERE user_id = $1 ORDER BY name, id`, userID)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Category, error) {
			var c domain.Category
			err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type)
			return c, err
		})
		return err
	})
	return out, err
}

func (s *Store) GetCategory(ctx context.Context, userID, categoryID int64) (*domain.Category, error) {
	var c domain.Category
	err := s.read(ctx, "GetCategory", func(ctx context.Context) error {
		err := s.pool.QueryRow(ctx,
			`SELECT id, user_id, name, type FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID).
			Scan(&c.ID, &c.UserID, &c.Name, &c.Type)
		return notFoundIfNoRows(err, "category", categoryID)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, in *domain.Category) (*domain.Category, error) {
	c := *in
	err := s.write(ctx, "CreateCategory", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO categories (user_id, name, type) VALUES ($1, $2, $3) RETURNING id`,
			c.UserID, c.Name, c.Type).Scan(&c.ID)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, categoryID int64) error {
	return s.write(ctx, "DeleteCategory", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
		if err != nil {
			return err
		}
		return notFoundIfNone(tag, "category", categoryID)
	})
}

// ============================================================
// Transactions
// ============================================================

const transactionColumns = `id, user_id, type, amount::text, description, category_id, date::text, recurring, recurring_period, created_at`

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.CategoryID,
		&t.Date, &t.Recurring, &t.RecurringPeriod, &t.CreatedAt)
	return t, err
}

func (s *Store) ListTransactions(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	return s.ListTransactionsByDateRange(ctx, userID, domain.TransactionRange{})
}

func (s *Store) ListTransactionsByDateRange(ctx context.Context, userID int64, r domain.TransactionRange) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := s.read(ctx, "ListTransactions", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx,
			`SELECT `+transactionColumns+` FROM transactions
			 WHERE user_id = $1
			   AND ($2::text IS NULL OR date >= $2::text::date)
			   AND ($3::text IS NULL OR date <= $3::text::date)
			 ORDER BY date DESC, id DESC`,
			userID, nullableDate(&r.From), nullableDate(&r.To))
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
			return scanTransaction(row)
		})
		return err
	})
	return out, err
}

func (s *Store) GetTransaction(ctx context.Context, userID, txID int64) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.read(ctx, "GetTransaction", func(ctx context.Context) error {
		var err error
		t, err = scanTransaction(s.pool.QueryRow(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, txID, userID))
		return notFoundIfNoRows(err, "transaction", txID)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, in *domain.Transaction) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.write(ctx, "CreateTransaction", func(ctx context.Context) error {
		var err error
		t, err = scanTransaction(s.pool.QueryRow(ctx,
			`INSERT INTO transactions (user_id, type, amount, description, category_id, date, recurring, recurring_period)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+transactionColumns,
			in.UserID, in.Type, in.Amount.String(), in.Description, in.CategoryID, in.Date.String(), in.Recurring, in.RecurringPeriod))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, in *domain.Transaction) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.write(ctx, "UpdateTransaction", func(ctx context.Context) error {
		var err error
		t, err = scanTransaction(s.pool.QueryRow(ctx,
			`UPDATE transactions
			 SET type = $1, amount = $2, description = $3, category_id = $4, date = $5, recurring = $6, recurring_period = $7
			 WHERE id = $8 AND user_id = $9
			 RETURNING `+transactionColumns,
			in.Type, in.Amount.String(), in.Description, in.CategoryID, in.Date.String(), in.Recurring, in.RecurringPeriod, in.ID, in.UserID))
		return notFoundIfNoRows(err, "transaction", in.ID)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, txID int64) error {
	return s.write(ctx, "DeleteTransaction", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, txID, userID)
		if err != nil {
			return err
		}
		return notFoundIfNone(tag, "transaction", txID)
	})
}

// ============================================================
// Budgets
// ============================================================

const budgetColumns = `id, user_id, category_id, amount::text, period, start_date::text, end_date::text, created_at`

func scanBudget(row pgx.Row) (domain.Budget, error) {
	var b domain.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &b.Period, &b.StartDate, &b.EndDate, &b.CreatedAt)
	return b, err
}

func (s *Store) ListBudgets(ctx context.Context, userID int64) ([]domain.Budget, error) {
	var out []domain.Budget
	err := s.read(ctx, "ListBudgets", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY id`, userID)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Budget, error) {
			return scanBudget(row)
		})
		return err
	})
	return out, err
}

func (s *Store) GetBudget(ctx context.Context, userID, budgetID int64) (*domain.Budget, error) {
	var b domain.Budget
	err := s.read(ctx, "GetBudget", func(ctx context.Context) error {
		var err error
		b, err = scanBudget(s.pool.QueryRow(ctx,
			`SELECT `+budgetColumns+` FROM budgets WHERE id = $1 AND user_id = $2`, budgetID, userID))
		return notFoundIfNoRows(err, "budget", budgetID)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBudget(ctx context.Context, in *domain.Budget) (*domain.Budget, error) {
	var b domain.Budget
	err := s.write(ctx, "CreateBudget", func(ctx context.Context) error {
		var err error
		b, err = scanBudget(s.pool.QueryRow(ctx,
			`INSERT INTO budgets (user_id, category_id, amount, period, start_date, end_date)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+budgetColumns,
			in.UserID, in.CategoryID, in.Amount.String(), in.Period, nullableDate(in.StartDate), nullableDate(in.EndDate)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) UpdateBudget(ctx context.Context, in *domain.Budget) (*domain.Budget, error) {
	var b domain.Budget
	err := s.write(ctx, "UpdateBudget", func(ctx context.Context) error {
		var err error
		b, err = scanBudget(s.pool.QueryRow(ctx,
			`UPDATE budgets SET category_id = $1, amount = $2, period = $3, start_date = $4, end_date = $5
			 WHERE id = $6 AND user_id = $7
			 RETURNING `+budgetColumns,
			in.CategoryID, in.Amount.String(), in.Period, nullableDate(in.StartDate), nullableDate(in.EndDate), in.ID, in.UserID))
		return notFoundIfNoRows(err, "budget", in.ID)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, budgetID int64) error {
	return s.write(ctx, "DeleteBudget", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, budgetID, userID)
		if err != nil {
			return err
		}
		return notFoundIfNone(tag, "budget", budgetID)
	})
}

// ============================================================
// Savings goals
// ============================================================

const goalColumns = `id, user_id, title, description, target_amount::text, current_amount::text, target_date::text, created_at`

func scanGoal(row pgx.Row) (domain.SavingsGoal, error) {
	var g domain.SavingsGoal
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, &g.CreatedAt)
	return g, err
}

func (s *Store) ListSavingsGoals(ctx context.Context, userID int64) ([]domain.SavingsGoal, error) {
	var out []domain.SavingsGoal
	err := s.read(ctx, "ListSavingsGoals", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx,
			`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = $1 ORDER BY target_date, id`, userID)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SavingsGoal, error) {
			return scanGoal(row)
		})
		return err
	})
	return out, err
}

func (s *Store) GetSavingsGoal(ctx context.Context, userID, goalID int64) (*domain.SavingsGoal, error) {
	var g domain.SavingsGoal
	err := s.read(ctx, "GetSavingsGoal", func(ctx context.Context) error {
		var err error
		g, err = scanGoal(s.pool.QueryRow(ctx,
			`SELECT `+goalColumns+` FROM savings_goals WHERE id = $1 AND user_id = $2`, goalID, userID))
		return notFoundIfNoRows(err, "savings goal", goalID)
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) CreateSavingsGoal(ctx context.Context, in *domain.SavingsGoal) (*domain.SavingsGoal, error) {
	var g domain.SavingsGoal
	err := s.write(ctx, "CreateSavingsGoal", func(ctx context.Context) error {
		var err error
		g, err = scanGoal(s.pool.QueryRow(ctx,
			`INSERT INTO savings_goals (user_id, title, description, target_amount, current_amount, target_date)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+goalColumns,
			in.UserID, in.Title, in.Description, in.TargetAmount.String(), in.CurrentAmount.String(), in.TargetDate.String()))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) UpdateSavingsGoal(ctx context.Context, in *domain.SavingsGoal) (*domain.SavingsGoal, error) {
	var g domain.SavingsGoal
	err := s.write(ctx, "UpdateSavingsGoal", func(ctx context.Context) error {
		var err error
		g, err = scanGoal(s.pool.QueryRow(ctx,
			`UPDATE savings_goals
			 SET title = $1, description = $2, target_amount = $3, current_amount = $4, target_date = $5
			 WHERE id = $6 AND user_id = $7
			 RETURNING `+goalColumns,
			in.Title, in.Description, in.TargetAmount.String(), in.CurrentAmount.String(), in.TargetDate.String(), in.ID, in.UserID))
		return notFoundIfNoRows(err, "savings goal", in.ID)
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) DeleteSavingsGoal(ctx context.Context, userID, goalID int64) error {
	return s.write(ctx, "DeleteSavingsGoal", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, `DELETE FROM savings_goals WHERE id = $1 AND user_id = $2`, goalID, userID)
		if err != nil {
			return err
		}
		return notFoundIfNone(tag, "savings goal", goalID)
	})
}
