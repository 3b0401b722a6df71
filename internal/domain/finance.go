package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Enumerations
// ============================================================

// TransactionType classifies transactions and categories.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Frequency is the recurrence of a transaction or the period of a budget.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	return f == Weekly || f == Monthly || f == Yearly
}

// ============================================================
// Entities
// ============================================================

// User owns every other entity.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    *string   `json:"firstName"`
	LastName     *string   `json:"lastName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Category is a user-defined income or expense label.
type Category struct {
	ID     int64           `json:"id"`
	UserID int64           `json:"userId"`
	Name   string          `json:"name"`
	Type   TransactionType `json:"type"`
}

// Transaction is a single income or expense entry. Amount is always positive;
// the sign comes from Type.
type Transaction struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	CategoryID      *int64          `json:"categoryId"`
	Date            Date            `json:"date"`
	Recurring       bool            `json:"recurring"`
	RecurringPeriod *Frequency      `json:"recurringPeriod,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Budget is a spending ceiling for one expense category over a period.
// StartDate/EndDate optionally pin the window the budget applies to.
type Budget struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	CategoryID int64           `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Period     Frequency       `json:"period"`
	StartDate  *Date           `json:"startDate,omitempty"`
	EndDate    *Date           `json:"endDate,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// SavingsGoal is a target amount to accumulate by a target date.
type SavingsGoal struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	Title         string          `json:"title"`
	Description   *string         `json:"description"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    Date            `json:"targetDate"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ============================================================
// Validation
// ============================================================

// validAmount reports whether a is positive with at most two decimal places.
func validAmount(a decimal.Decimal) bool {
	return a.IsPositive() && a.Equal(a.Round(2))
}

func (c *Category) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return &ErrValidation{Field: "name", Message: "required"}
	}
	if !c.Type.Valid() {
		return &ErrValidation{Field: "type", Message: "must be income or expense"}
	}
	return nil
}

func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return &ErrValidation{Field: "type", Message: "must be income or expense"}
	}
	if !validAmount(t.Amount) {
		return &ErrValidation{Field: "amount", Message: "must be positive with at most two decimals"}
	}
	t.Description = strings.TrimSpace(t.Description)
	if t.Description == "" {
		return &ErrValidation{Field: "description", Message: "required"}
	}
	if t.Date.IsZero() {
		return &ErrValidation{Field: "date", Message: "required"}
	}
	if t.RecurringPeriod != nil && !t.RecurringPeriod.Valid() {
		return &ErrValidation{Field: "recurringPeriod", Message: "must be weekly, monthly or yearly"}
	}
	if t.Recurring && t.RecurringPeriod == nil {
		p := Monthly
		t.RecurringPeriod = &p
	}
	if !t.Recurring {
		t.RecurringPeriod = nil
	}
	return nil
}

func (b *Budget) Validate() error {
	if b.CategoryID <= 0 {
		return &ErrValidation{Field: "categoryId", Message: "required"}
	}
	if !validAmount(b.Amount) {
		return &ErrValidation{Field: "amount", Message: "must be positive with at most two decimals"}
	}
	if b.Period == "" {
		b.Period = Monthly
	}
	if !b.Period.Valid() {
		return &ErrValidation{Field: "period", Message: "must be weekly, monthly or yearly"}
	}
	if b.StartDate != nil && b.EndDate != nil && b.EndDate.Before(*b.StartDate) {
		return &ErrValidation{Field: "endDate", Message: "must not be before startDate"}
	}
	return nil
}

func (g *SavingsGoal) Validate() error {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return &ErrValidation{Field: "title", Message: "required"}
	}
	if !validAmount(g.TargetAmount) {
		return &ErrValidation{Field: "targetAmount", Message: "must be positive with at most two decimals"}
	}
	if g.CurrentAmount.IsNegative() || !g.CurrentAmount.Equal(g.CurrentAmount.Round(2)) {
		return &ErrValidation{Field: "currentAmount", Message: "must not be negative or have more than two decimals"}
	}
	if g.TargetDate.IsZero() {
		return &ErrValidation{Field: "targetDate", Message: "required"}
	}
	return nil
}

// ============================================================
// Partial updates (PUT bodies)
// ============================================================

// Nullable is a patch field for a nullable column. Set records that the key
// was present in the body; a present null leaves Value nil and clears the field.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// NullableOf returns a present, non-null field.
func NullableOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a present null field.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) applyTo(dst **T) {
	if n.Set {
		*dst = n.Value
	}
}

// TransactionPatch carries the mutable fields of a transaction; nil means unchanged.
type TransactionPatch struct {
	Type            *TransactionType    `json:"type"`
	Amount          *decimal.Decimal    `json:"amount"`
	Description     *string             `json:"description"`
	CategoryID      Nullable[int64]     `json:"categoryId"`
	Date            *Date               `json:"date"`
	Recurring       *bool               `json:"recurring"`
	RecurringPeriod Nullable[Frequency] `json:"recurringPeriod"`
}

// Apply copies the set fields onto t.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	p.CategoryID.applyTo(&t.CategoryID)
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Recurring != nil {
		t.Recurring = *p.Recurring
	}
	p.RecurringPeriod.applyTo(&t.RecurringPeriod)
}

// BudgetPatch carries the mutable fields of a budget. A null start or end
// date drops that bound.
type BudgetPatch struct {
	CategoryID *int64           `json:"categoryId"`
	Amount     *decimal.Decimal `json:"amount"`
	Period     *Frequency       `json:"period"`
	StartDate  Nullable[Date]   `json:"startDate"`
	EndDate    Nullable[Date]   `json:"endDate"`
}

func (p BudgetPatch) Apply(b *Budget) {
	if p.CategoryID != nil {
		b.CategoryID = *p.CategoryID
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	p.StartDate.applyTo(&b.StartDate)
	p.EndDate.applyTo(&b.EndDate)
}

// SavingsGoalPatch carries the mutable fields of a savings goal.
type SavingsGoalPatch struct {
	Title         *string          `json:"title"`
	Description   Nullable[string] `json:"description"`
	TargetAmount  *decimal.Decimal `json:"targetAmount"`
	CurrentAmount *decimal.Decimal `json:"currentAmount"`
	TargetDate    *Date            `json:"targetDate"`
}

func (p SavingsGoalPatch) Apply(g *SavingsGoal) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	p.Description.applyTo(&g.Description)
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
}

// TransactionRange bounds a transaction listing (inclusive). Zero dates are open bounds.
type TransactionRange struct {
	From Date
	To   Date
}

// Contains reports whether d falls inside the range.
func (r TransactionRange) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}
