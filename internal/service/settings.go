package service

import (
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/analytics"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

// Settings carries the aggregation policy shared by the finance services.
type Settings struct {
	// Backend labels store error metrics.
	Backend      string
	BudgetWindow domain.BudgetWindow
	Location     *time.Location
	RecentLimit  int
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (s Settings) now() time.Time {
	clock := s.Now
	if clock == nil {
		clock = time.Now
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return clock().In(loc)
}

func (s Settings) window() domain.BudgetWindow {
	if s.BudgetWindow.Valid() {
		return s.BudgetWindow
	}
	return domain.WindowPeriod
}

func (s Settings) recentLimit() int {
	if s.RecentLimit > 0 {
		return s.RecentLimit
	}
	return analytics.DefaultRecentLimit
}
