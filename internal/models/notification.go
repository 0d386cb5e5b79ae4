package models

import "time"

// NotificationType classifies what a notification is about
type NotificationType string

const (
	// Recurring transaction lifecycle.
	NotificationReminder NotificationType = "reminder"
	NotificationDueToday NotificationType = "due_today"
	NotificationMissed   NotificationType = "missed"

	// Budget thresholds.
	NotificationBudgetWarning    NotificationType = "budget_warning"
	NotificationBudgetExceeded   NotificationType = "budget_exceeded"
	NotificationBudgetAdjustment NotificationType = "budget_adjustment"

	// Goal progress.
	NotificationGoalMilestone NotificationType = "goal_milestone"
)

// Notification is a user-facing alert created exclusively by the
// reconciliation engine. DedupKey encodes the detected state transition
// (owner, type, referenced entity, discriminator, and for date-based types
// the calendar day); the unique index on it is the store-level guard that
// makes a concurrent duplicate insert fail instead of silently duplicating.
//
// Rows are append-only: the only mutations are MarkRead and deletion by the
// retention sweep. No soft delete.
type Notification struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	UserID        uint             `gorm:"not null;index" json:"user_id"`
	Type          NotificationType `gorm:"not null" json:"type"`
	Message       string           `gorm:"not null" json:"message"`
	DedupKey      string           `gorm:"size:255;not null;uniqueIndex" json:"-"`
	TransactionID *uint            `json:"transaction_id,omitempty"`
	BudgetID      *uint            `gorm:"index" json:"budget_id,omitempty"`
	GoalID        *uint            `json:"goal_id,omitempty"`
	IsRead        bool             `gorm:"default:false" json:"is_read"`
	CreatedAt     time.Time        `json:"created_at"`
}
