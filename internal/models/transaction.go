package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
	// TransactionTypeSavings marks synthetic transactions written by the
	// allocation engine as audit records. They are never user-editable.
	TransactionTypeSavings TransactionType = "savings"
)

// RecurrencePattern represents how often a recurring transaction repeats
type RecurrencePattern string

const (
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
)

// AutoSavingsCategory is the category assigned to synthetic savings transactions.
const AutoSavingsCategory = "Auto-Savings"

// Transaction represents a financial transaction in the system.
// Amounts are stored in cents. ConvertedAmount is the amount in the base
// currency; when conversion is unavailable it equals Amount with an
// exchange rate of 1.0.
type Transaction struct {
	Base
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Amount          int64           `gorm:"type:bigint;not null" json:"amount"`
	Currency        string          `gorm:"size:3;not null;default:USD" json:"currency"`
	ConvertedAmount int64           `gorm:"type:bigint;not null" json:"converted_amount"`
	ExchangeRate    float64         `gorm:"not null;default:1" json:"exchange_rate"`
	Type            TransactionType `gorm:"not null;index" json:"type"`
	Category        string          `gorm:"not null;index" json:"category"`
	Description     string          `json:"description"`
	Date            time.Time       `gorm:"not null;index" json:"date"`
	Tags            []string        `gorm:"serializer:json" json:"tags,omitempty"`

	// Recurring series fields. The series identity is the transaction ID;
	// Date is the series anchor.
	Recurring         bool              `gorm:"default:false;index" json:"recurring"`
	RecurrencePattern RecurrencePattern `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *time.Time        `json:"recurrence_end_date,omitempty"`
}

// IsSyntheticSavings reports whether this transaction is an allocation
// engine audit record.
func (t *Transaction) IsSyntheticSavings() bool {
	return t.Type == TransactionTypeSavings && t.Category == AutoSavingsCategory
}
