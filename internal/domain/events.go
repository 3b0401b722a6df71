package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetAlertEvent is published when a transaction change leaves a budget in
// the warning or danger tier.
type BudgetAlertEvent struct {
	UserID       int64           `json:"userId"`
	BudgetID     int64           `json:"budgetId"`
	CategoryID   int64           `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Status       BudgetStatus    `json:"status"`
	Percentage   float64         `json:"percentage"`
	Spent        decimal.Decimal `json:"spent"`
	Amount       decimal.Decimal `json:"amount"`
	OccurredAt   time.Time       `json:"occurredAt"`
}

// RoutingKey is the broker routing key for the event.
func (e BudgetAlertEvent) RoutingKey() string {
	return "budget.alert." + string(e.Status)
}
