package services

import (
	"context"
	"time"

	"finflow/internal/models"
	"finflow/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// CreateTransactionInput holds the fields for creating a transaction.
type CreateTransactionInput struct {
	Amount            int64
	Currency          string
	Type              models.TransactionType
	Category          string
	Description       string
	Date              time.Time
	Tags              []string
	Recurring         bool
	RecurrencePattern models.RecurrencePattern
	RecurrenceEndDate *time.Time
}

// UpdateTransactionInput holds optional fields for updating a transaction.
// Nil pointers leave the corresponding field unchanged.
type UpdateTransactionInput struct {
	Amount            *int64
	Currency          *string
	Category          *string
	Description       *string
	Date              *time.Time
	Tags              []string
	Recurring         *bool
	RecurrencePattern *models.RecurrencePattern
	RecurrenceEndDate *time.Time
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	Category  string
	MinAmount *int64
	MaxAmount *int64
	Recurring *bool
}

// TransactionObserver is notified after a transaction has been committed.
// The reconciliation engine registers itself here so transaction creation
// can trigger ad-hoc evaluation without the service importing the engine.
type TransactionObserver interface {
	TransactionCreated(transaction *models.Transaction)
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID uint, input CreateTransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID uint, input UpdateTransactionInput) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
}

// BudgetUsage contains allocated vs spent data for a single budget window.
type BudgetUsage struct {
	BudgetID  uint   `json:"budget_id"`
	Category  string `json:"category"`
	Allocated int64  `json:"allocated"`
	Spent     int64  `json:"spent"`
	Remaining int64  `json:"remaining"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID uint, category string, amount int64, period models.BudgetPeriod, startDate time.Time, endDate *time.Time) (*models.Budget, error)
	GetUserBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	UpdateBudget(userID, budgetID uint, category *string, amount *int64, period *models.BudgetPeriod, endDate *time.Time) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint) error
	GetBudgetUsage(userID uint) ([]BudgetUsage, error)
	SpentInWindow(userID uint, category string, from, to time.Time) (int64, error)
}

// CreateGoalInput holds the fields for creating a savings goal.
type CreateGoalInput struct {
	Name                 string
	TargetAmount         int64
	Deadline             time.Time
	Notes                string
	AutoAllocation       bool
	AllocationPercentage float64
	AllocationAmount     int64
}

// UpdateGoalInput holds optional fields for updating a goal.
type UpdateGoalInput struct {
	Name                 *string
	TargetAmount         *int64
	CurrentAmount        *int64
	Deadline             *time.Time
	Notes                *string
	AutoAllocation       *bool
	AllocationPercentage *float64
	AllocationAmount     *int64
}

// GoalServicer defines the contract for goal-related business logic.
type GoalServicer interface {
	CreateGoal(userID uint, input CreateGoalInput) (*models.Goal, error)
	GetUserGoals(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error)
	GetGoalByID(userID, goalID uint) (*models.Goal, error)
	UpdateGoal(userID, goalID uint, input UpdateGoalInput) (*models.Goal, error)
	DeleteGoal(userID, goalID uint) error
}

// NotificationCandidate describes a notification proposed by an evaluator.
// DedupKey identifies the detected state transition; proposing the same
// candidate twice is a no-op.
type NotificationCandidate struct {
	UserID        uint
	Type          models.NotificationType
	DedupKey      string
	Message       string
	TransactionID *uint
	BudgetID      *uint
	GoalID        *uint
}

// NotificationServicer is the single gate all evaluators pass through
// before a notification is persisted. It also owns retention pruning and
// the user-facing read accessors.
type NotificationServicer interface {
	Propose(candidate NotificationCandidate) (bool, error)
	ProposeWithin(candidate NotificationCandidate, window time.Duration, now time.Time) (bool, error)
	ListNotifications(userID uint, includeRead bool, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	MarkRead(userID, notificationID uint) error
	Prune(now time.Time) (int64, error)
}
