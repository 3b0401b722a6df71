// Package table renders analytics views as plain-text tables for the CLI.
package table

import (
	"fmt"
	"io"
	"strconv"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func percent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	return t
}

// Report writes the summary and the category breakdown of r.
func Report(w io.Writer, r *domain.Report) {
	fmt.Fprintf(w, "Report: %s\n", r.Filter.Period)

	summary := newTable(w, "Income", "Expenses", "Net", "Transactions")
	summary.Append([]string{
		money(r.Summary.TotalIncome),
		money(r.Summary.TotalExpenses),
		money(r.Summary.NetIncome),
		strconv.Itoa(r.Summary.TransactionCount),
	})
	summary.Render()

	breakdown := newTable(w, "Category", "Type", "Amount", "Count", "Share")
	breakdown.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, row := range r.Breakdown {
		breakdown.Append([]string{
			row.Name, string(row.Type), money(row.Amount), strconv.Itoa(row.Count), percent(row.Percentage),
		})
	}
	breakdown.Render()
}

// Dashboard writes the headline statistics and the recent transactions.
func Dashboard(w io.Writer, d *domain.Dashboard) {
	stats := newTable(w, "Balance", "Month income", "Month expenses", "Income change", "Expense change", "Savings")
	stats.Append([]string{
		money(d.Stats.TotalBalance),
		money(d.Stats.MonthlyIncome),
		money(d.Stats.MonthlyExpenses),
		percent(d.Stats.IncomeChange),
		percent(d.Stats.ExpenseChange),
		percent(d.Stats.SavingsProgress),
	})
	stats.Render()

	recent := newTable(w, "Date", "Description", "Category", "Type", "Amount")
	for _, t := range d.RecentTransactions {
		recent.Append([]string{t.Date.String(), t.Description, t.CategoryName, string(t.Type), money(t.Amount)})
	}
	recent.Render()
}

// Budgets writes one row per budget progress entry.
func Budgets(w io.Writer, budgets []domain.BudgetProgress) {
	t := newTable(w, "Category", "Period", "Budget", "Spent", "Remaining", "Used", "Status")
	for _, b := range budgets {
		t.Append([]string{
			b.CategoryName, string(b.Period), money(b.Amount), money(b.Spent), money(b.Remaining),
			percent(b.Percentage), string(b.Status),
		})
	}
	t.Render()
}

// Savings writes one row per savings goal.
func Savings(w io.Writer, goals []domain.SavingsProgress) {
	t := newTable(w, "Goal", "Target", "Saved", "Remaining", "Progress", "Due", "Time left")
	for _, g := range goals {
		t.Append([]string{
			g.Title, money(g.TargetAmount), money(g.CurrentAmount), money(g.Remaining),
			percent(g.Percentage), g.TargetDate.String(), g.TimeRemaining,
		})
	}
	t.Render()
}

// Trend writes the monthly income and expense series with a footer of totals.
func Trend(w io.Writer, trend *domain.MonthlyTrend) {
	t := newTable(w, "Month", "Income", "Expenses", "Net")
	income, expenses := decimal.Zero, decimal.Zero
	for i, m := range trend.Months {
		income = income.Add(trend.Income[i])
		expenses = expenses.Add(trend.Expenses[i])
		t.Append([]string{m, money(trend.Income[i]), money(trend.Expenses[i]), money(trend.Income[i].Sub(trend.Expenses[i]))})
	}
	t.SetFooter([]string{"Total", money(income), money(expenses), money(income.Sub(expenses))})
	t.Render()
}
