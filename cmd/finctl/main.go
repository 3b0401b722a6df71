// Command finctl prints finance views for one user straight from the store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/config"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/infra/storage"
	"github.com/boddenberg/finance-tracker-go/internal/infra/table"
	"github.com/boddenberg/finance-tracker-go/internal/service"

	"go.uber.org/zap"
)

var (
	email    = flag.String("email", storage.DemoEmail, "Email of the user whose data is shown")
	view     = flag.String("view", "report", "View: dashboard, report, budgets, savings, trend, csv, chart")
	period   = flag.String("period", "thisMonth", "Report period: thisMonth, lastMonth, thisYear, all")
	category = flag.Int64("category", 0, "Restrict reports to a category id (0 = all)")
	trendRng = flag.String("range", "6months", "Trend range: 6months, 12months, year")
	output   = flag.String("output", "", "Output file for csv and chart views (default stdout)")
)

func main() {
	flag.Parse()

	_ = config.LoadDotEnv(".env")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("finctl failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if cfg.SeedDemo {
		if _, err := storage.SeedDemo(ctx, store, logger); err != nil {
			return fmt.Errorf("seed demo: %w", err)
		}
	}

	user, err := store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("no user with email %q", *email)
	}

	svc := service.NewAnalyticsService(store, service.Settings{
		Backend:      cfg.StoreBackend,
		BudgetWindow: cfg.BudgetWindow,
		Location:     cfg.Location(),
		RecentLimit:  cfg.RecentTransactions,
	}, observability.NewMetrics(), logger)

	filter := domain.ReportFilter{Period: domain.ReportPeriod(*period)}
	if *category > 0 {
		filter.CategoryID = category
	}

	switch *view {
	case "dashboard":
		d, err := svc.Dashboard(ctx, user.ID)
		if err != nil {
			return err
		}
		table.Dashboard(os.Stdout, d)
	case "report":
		r, err := svc.Report(ctx, user.ID, filter)
		if err != nil {
			return err
		}
		table.Report(os.Stdout, r)
	case "budgets":
		b, err := svc.BudgetsProgress(ctx, user.ID)
		if err != nil {
			return err
		}
		table.Budgets(os.Stdout, b)
	case "savings":
		g, err := svc.SavingsProgress(ctx, user.ID)
		if err != nil {
			return err
		}
		table.Savings(os.Stdout, g)
	case "trend":
		tr, err := svc.MonthlyTrend(ctx, user.ID, domain.TrendRange(*trendRng))
		if err != nil {
			return err
		}
		table.Trend(os.Stdout, tr)
	case "csv":
		out, closeOut, err := openOutput(*output)
		if err != nil {
			return err
		}
		defer closeOut()
		n, err := svc.ExportCSV(ctx, user.ID, filter, out)
		if err != nil {
			return err
		}
		logger.Info("csv exported", zap.Int("rows", n), zap.String("output", *output))
	case "chart":
		if *output == "" {
			return fmt.Errorf("chart view needs -output")
		}
		img, err := svc.MonthlyChart(ctx, user.ID, domain.TrendRange(*trendRng))
		if err != nil {
			return err
		}
		if err := os.WriteFile(*output, img, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Printf("chart saved to %s\n", *output)
	default:
		return fmt.Errorf("unknown view %q", *view)
	}
	return nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { f.Close() }, nil
}
