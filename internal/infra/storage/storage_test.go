package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/boddenberg/finance-tracker-go/internal/config"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/memstore"
	"github.com/boddenberg/finance-tracker-go/internal/infra/sqlite"
	"github.com/boddenberg/finance-tracker-go/internal/infra/storage"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestOpen_Memory(t *testing.T) {
	s, err := storage.Open(context.Background(), &config.Config{StoreBackend: config.BackendMemory}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*memstore.Store); !ok {
		t.Errorf("expected *memstore.Store, got %T", s)
	}
}

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "f.db")}
	s, err := storage.Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*sqlite.Store); !ok {
		t.Errorf("expected *sqlite.Store, got %T", s)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := storage.Open(context.Background(), &config.Config{StoreBackend: "mongo"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	u, err := storage.SeedDemo(ctx, s, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(storage.DemoPassword)) != nil {
		t.Error("demo password does not verify")
	}

	cats, err := s.ListCategories(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(cats))
	}
	income := 0
	for _, c := range cats {
		if c.Type == domain.Income {
			income++
		}
	}
	if income != 2 {
		t.Errorf("expected 2 income categories, got %d", income)
	}
}

func TestSeedDemo_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	first, err := storage.SeedDemo(ctx, s, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	second, err := storage.SeedDemo(ctx, s, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same user, got %d and %d", first.ID, second.ID)
	}
	cats, _ := s.ListCategories(ctx, first.ID)
	if len(cats) != 6 {
		t.Errorf("expected categories not duplicated, got %d", len(cats))
	}
}
