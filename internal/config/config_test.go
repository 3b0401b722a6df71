package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "BUDGET_WINDOW", "JWT_ACCESS_TTL", "SEED_DEMO", "RECENT_TRANSACTIONS_LIMIT"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.StoreBackend)
	}
	if cfg.BudgetWindow != domain.WindowPeriod {
		t.Errorf("expected period window, got %s", cfg.BudgetWindow)
	}
	if cfg.JWTAccessTTL != 24*time.Hour {
		t.Errorf("expected 24h ttl, got %s", cfg.JWTAccessTTL)
	}
	if !cfg.SeedDemo {
		t.Error("expected demo seed enabled by default")
	}
	if cfg.RecentTransactions != 5 {
		t.Errorf("expected 5 recent transactions, got %d", cfg.RecentTransactions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("SQLITE_DB_PATH", "/tmp/x.db")
	t.Setenv("BUDGET_WINDOW", "all_time")
	t.Setenv("SEED_DEMO", "false")
	t.Setenv("JWT_ACCESS_TTL", "2h")
	t.Setenv("INITIAL_BACKOFF", "not-a-duration")

	cfg := Load()

	if cfg.Port != 9090 || cfg.StoreBackend != BackendSQLite || cfg.SQLitePath != "/tmp/x.db" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.BudgetWindow != domain.WindowAllTime || cfg.SeedDemo || cfg.JWTAccessTTL != 2*time.Hour {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.InitialBackoff != 100*time.Millisecond {
		t.Errorf("invalid duration should fall back, got %s", cfg.InitialBackoff)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           8080,
			StoreBackend:   BackendMemory,
			BudgetWindow:   domain.WindowPeriod,
			Timezone:       "UTC",
			JWTSecret:      strings.Repeat("s", 32),
			JWTAccessTTL:   time.Hour,
			MaxConcurrency: 10,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Port = 0 }, "PORT"},
		{"bad backend", func(c *Config) { c.StoreBackend = "mongo" }, "STORE_BACKEND"},
		{"postgres without url", func(c *Config) { c.StoreBackend = BackendPostgres }, "DATABASE_URL"},
		{"bad window", func(c *Config) { c.BudgetWindow = "rolling" }, "BUDGET_WINDOW"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "TIMEZONE"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	c := &Config{Timezone: "America/Sao_Paulo"}
	if c.Location().String() != "America/Sao_Paulo" {
		t.Errorf("unexpected location %s", c.Location())
	}
	c.Timezone = "nowhere"
	if c.Location() != time.UTC {
		t.Error("expected UTC fallback")
	}
}

func TestLoadDotEnv_EnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# local overrides\nFINANCE_TEST_A=from-file\nFINANCE_TEST_B=\"quoted value\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINANCE_TEST_A", "from-env")
	t.Setenv("FINANCE_TEST_B", "")
	os.Unsetenv("FINANCE_TEST_B")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := os.Getenv("FINANCE_TEST_A"); got != "from-env" {
		t.Errorf("env should win, got %q", got)
	}
	if got := os.Getenv("FINANCE_TEST_B"); got != "quoted value" {
		t.Errorf("expected value from file, got %q", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for a missing file")
	}
}
