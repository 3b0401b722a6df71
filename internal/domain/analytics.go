package domain

import "github.com/shopspring/decimal"

// ============================================================
// Dashboard
// ============================================================

// DashboardStats is the fixed-shape statistics record of the dashboard cards.
type DashboardStats struct {
	TotalBalance    decimal.Decimal `json:"totalBalance"`
	MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
	SavingsProgress float64         `json:"savingsProgress"`
	IncomeChange    float64         `json:"incomeChange"`
	ExpenseChange   float64         `json:"expenseChange"`
}

// Dashboard bundles every widget of the dashboard page.
type Dashboard struct {
	Stats              DashboardStats      `json:"stats"`
	Budgets            []BudgetProgress    `json:"budgets"`
	RecentTransactions []RecentTransaction `json:"recentTransactions"`
	SavingsGoals       []SavingsProgress   `json:"savingsGoals"`
}

// RecentTransaction is a transaction with its resolved category name.
type RecentTransaction struct {
	Transaction
	CategoryName string `json:"categoryName"`
}

// ============================================================
// Budgets
// ============================================================

// BudgetStatus is the good/warning/danger tier of a budget.
type BudgetStatus string

const (
	BudgetGood    BudgetStatus = "good"
	BudgetWarning BudgetStatus = "warning"
	BudgetDanger  BudgetStatus = "danger"
)

// BudgetWindow selects which transactions count toward a budget.
type BudgetWindow string

const (
	// WindowPeriod counts spend inside the budget's own period (or its explicit dates).
	WindowPeriod BudgetWindow = "period"
	// WindowAllTime counts the category's whole history.
	WindowAllTime BudgetWindow = "all_time"
)

// Valid reports whether w is a known policy.
func (w BudgetWindow) Valid() bool {
	return w == WindowPeriod || w == WindowAllTime
}

// BudgetProgress is the computed state of one budget.
type BudgetProgress struct {
	ID                int64           `json:"id"`
	CategoryID        int64           `json:"categoryId"`
	CategoryName      string          `json:"categoryName"`
	Period            Frequency       `json:"period"`
	Amount            decimal.Decimal `json:"amount"`
	Spent             decimal.Decimal `json:"spent"`
	Remaining         decimal.Decimal `json:"remaining"`
	Percentage        float64         `json:"percentage"`
	DisplayPercentage float64         `json:"displayPercentage"`
	Status            BudgetStatus    `json:"status"`
	WindowStart       *Date           `json:"windowStart,omitempty"`
	WindowEnd         *Date           `json:"windowEnd,omitempty"`
}

// ============================================================
// Savings goals
// ============================================================

// SavingsProgress is the computed state of one savings goal.
type SavingsProgress struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Remaining     decimal.Decimal `json:"remaining"`
	Percentage    float64         `json:"percentage"`
	Achieved      bool            `json:"achieved"`
	TargetDate    Date            `json:"targetDate"`
	DaysLeft      int             `json:"daysLeft"`
	TimeRemaining string          `json:"timeRemaining"`
}

// ============================================================
// Reports
// ============================================================

// ReportPeriod is a coarse calendar window used to scope reports.
type ReportPeriod string

const (
	PeriodThisMonth ReportPeriod = "thisMonth"
	PeriodLastMonth ReportPeriod = "lastMonth"
	PeriodThisYear  ReportPeriod = "thisYear"
	PeriodAll       ReportPeriod = "all"
)

// Valid reports whether p is a known period.
func (p ReportPeriod) Valid() bool {
	switch p {
	case PeriodThisMonth, PeriodLastMonth, PeriodThisYear, PeriodAll:
		return true
	}
	return false
}

// ReportFilter selects the transactions a report covers.
// A nil CategoryID means all categories.
type ReportFilter struct {
	Period     ReportPeriod `json:"period"`
	CategoryID *int64       `json:"categoryId,omitempty"`
}

// ReportSummary holds the totals of a filtered transaction set.
type ReportSummary struct {
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	NetIncome        decimal.Decimal `json:"netIncome"`
	TransactionCount int             `json:"transactionCount"`
}

// CategoryBreakdown is one row of a per-category spend/earn breakdown.
// CategoryID 0 is the per-type "Uncategorized" bucket.
type CategoryBreakdown struct {
	CategoryID int64           `json:"categoryId"`
	Name       string          `json:"name"`
	Type       TransactionType `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// Report is the full output of a report computation. Transactions is the
// filtered set the summary and breakdown were built from.
type Report struct {
	Filter       ReportFilter        `json:"filter"`
	Summary      ReportSummary       `json:"summary"`
	Breakdown    []CategoryBreakdown `json:"breakdown"`
	Transactions []Transaction       `json:"-"`
}

// TypeStats backs the expense and income pages.
type TypeStats struct {
	Type               TransactionType     `json:"type"`
	MonthlyTotal       decimal.Decimal     `json:"monthlyTotal"`
	PreviousMonthTotal decimal.Decimal     `json:"previousMonthTotal"`
	Change             float64             `json:"change"`
	Total              decimal.Decimal     `json:"total"`
	Count              int                 `json:"count"`
	Average            decimal.Decimal     `json:"average"`
	Breakdown          []CategoryBreakdown `json:"breakdown,omitempty"`
}

// ============================================================
// Charts
// ============================================================

// TrendRange selects how many months a monthly trend covers.
type TrendRange string

const (
	TrendSixMonths    TrendRange = "6months"
	TrendTwelveMonths TrendRange = "12months"
	TrendYear         TrendRange = "year"
)

// Valid reports whether r is a known range.
func (r TrendRange) Valid() bool {
	return r == TrendSixMonths || r == TrendTwelveMonths || r == TrendYear
}

// MonthlyTrend is the chart series of income and expenses per calendar month.
type MonthlyTrend struct {
	Labels   []string          `json:"labels"`
	Months   []string          `json:"months"` // YYYY-MM, aligned with Labels
	Income   []decimal.Decimal `json:"income"`
	Expenses []decimal.Decimal `json:"expenses"`
}
