package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

// SavingsProgress computes the progress of one savings goal.
func SavingsProgress(g domain.SavingsGoal, now time.Time) domain.SavingsProgress {
	days := DaysUntil(g.TargetDate, now)
	return domain.SavingsProgress{
		ID:            g.ID,
		Title:         g.Title,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Remaining:     nonNegative(g.TargetAmount.Sub(g.CurrentAmount)),
		Percentage:    capped(percentOf(g.CurrentAmount, g.TargetAmount)).InexactFloat64(),
		Achieved:      g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount),
		TargetDate:    g.TargetDate,
		DaysLeft:      days,
		TimeRemaining: TimeRemaining(days),
	}
}

// SavingsGoalsProgress maps SavingsProgress over goals.
func SavingsGoalsProgress(goals []domain.SavingsGoal, now time.Time) []domain.SavingsProgress {
	out := make([]domain.SavingsProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, SavingsProgress(g, now))
	}
	return out
}

const secondsPerDay = 24 * 60 * 60

// DaysUntil counts calendar days from today, in now's location, to target.
// Both ends are UTC midnights, so DST shifts and far dates stay exact; for a
// now past midnight this equals the time left rounded up to whole days.
func DaysUntil(target domain.Date, now time.Time) int {
	today := domain.DateOf(now)
	return int((target.Unix() - today.Unix()) / secondsPerDay)
}

// TimeRemaining renders a day count as coarse text.
func TimeRemaining(days int) string {
	switch {
	case days < 0:
		return "Overdue"
	case days == 0:
		return "Due today"
	case days < 30:
		return plural(days, "day") + " left"
	case days < 365:
		return plural(int(math.Round(float64(days)/30)), "month") + " left"
	default:
		return plural(int(math.Round(float64(days)/365)), "year") + " left"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
