package memstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/memstore"
	"github.com/boddenberg/finance-tracker-go/internal/infra/storetest"
	"github.com/boddenberg/finance-tracker-go/internal/port"

	"github.com/shopspring/decimal"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) port.Store { return memstore.New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	catID := int64(7)

	tx, err := s.CreateTransaction(ctx, &domain.Transaction{
		UserID: 1, Type: domain.Expense, Amount: decimal.NewFromInt(5),
		Description: "coffee", CategoryID: &catID, Date: domain.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatal(err)
	}

	*tx.CategoryID = 99
	catID = 42

	got, err := s.GetTransaction(ctx, 1, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if *got.CategoryID != 7 {
		t.Errorf("store shares memory with callers: category %d", *got.CategoryID)
	}
}

func TestStore_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.CreateTransaction(ctx, &domain.Transaction{
				UserID: 1, Type: domain.Income, Amount: decimal.NewFromInt(1),
				Description: "tip", Date: domain.DateOf(time.Now()),
			})
		}()
	}
	wg.Wait()

	list, err := s.ListTransactions(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[int64]bool, len(list))
	for _, tx := range list {
		if seen[tx.ID] {
			t.Fatalf("duplicate id %d", tx.ID)
		}
		seen[tx.ID] = true
	}
	if len(list) != 50 {
		t.Errorf("expected 50 transactions, got %d", len(list))
	}
}
