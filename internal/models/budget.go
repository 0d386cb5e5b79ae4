package models

import (
	"strings"
	"time"
)

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodDaily   BudgetPeriod = "daily"
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget represents a spending cap for a category over a date window.
// An empty Category means a general budget that matches all categories.
// For a given (user, category, period) no two budgets may have overlapping
// [StartDate, EndDate] windows.
type Budget struct {
	Base
	UserID    uint         `gorm:"not null;index" json:"user_id"`
	Category  string       `gorm:"index" json:"category"`
	Amount    int64        `gorm:"type:bigint;not null" json:"amount"`
	Period    BudgetPeriod `gorm:"not null" json:"period"`
	StartDate time.Time    `gorm:"not null" json:"start_date"`
	EndDate   time.Time    `gorm:"not null;index" json:"end_date"`
}

// IsGeneral reports whether the budget matches all categories.
func (b *Budget) IsGeneral() bool {
	return strings.TrimSpace(b.Category) == ""
}

// DisplayCategory returns the category label, "General" for general budgets.
func (b *Budget) DisplayCategory() string {
	if b.IsGeneral() {
		return "General"
	}
	return b.Category
}

// ActiveAt reports whether the budget window covers the given instant.
func (b *Budget) ActiveAt(t time.Time) bool {
	return !t.Before(b.StartDate) && !t.After(b.EndDate)
}
