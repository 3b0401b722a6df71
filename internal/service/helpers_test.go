package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/memstore"
	"github.com/boddenberg/finance-tracker-go/internal/port"
	"github.com/boddenberg/finance-tracker-go/internal/service"

	"github.com/shopspring/decimal"
)

// --- Mocks ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.BudgetAlertEvent
	err    error
}

func (p *recordingPublisher) PublishBudgetAlert(_ context.Context, evt domain.BudgetAlertEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []domain.BudgetAlertEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.BudgetAlertEvent(nil), p.events...)
}

// failingStore fails every transaction listing.
type failingStore struct {
	port.Store
	err error
}

func (f *failingStore) ListTransactions(context.Context, int64) ([]domain.Transaction, error) {
	return nil, f.err
}

func (f *failingStore) ListTransactionsByDateRange(context.Context, int64, domain.TransactionRange) ([]domain.Transaction, error) {
	return nil, f.err
}

var errStoreDown = errors.New("store down")

// --- Fixtures ---

// fixedNow is a Wednesday in mid-March.
var fixedNow = time.Date(2024, time.March, 13, 15, 0, 0, 0, time.UTC)

func testSettings() service.Settings {
	return service.Settings{
		Backend:      "memory",
		BudgetWindow: domain.WindowPeriod,
		Location:     time.UTC,
		Now:          func() time.Time { return fixedNow },
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newUser(t *testing.T, s port.Store, email string) *domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), &domain.User{Username: email, Email: email, PasswordHash: "x"})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func newCategory(t *testing.T, s port.Store, userID int64, name string, typ domain.TransactionType) *domain.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), &domain.Category{UserID: userID, Name: name, Type: typ})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func newStore() *memstore.Store { return memstore.New() }

func assertErrAs[T error](t *testing.T, err error) T {
	t.Helper()
	var target T
	if !errors.As(err, &target) {
		t.Fatalf("expected %T, got %v", target, err)
	}
	return target
}
