package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finflow/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction creates a transaction of the given type and amount (in cents).
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID uint, txType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:          userID,
		Amount:          amount,
		Currency:        "USD",
		ConvertedAmount: amount,
		ExchangeRate:    1.0,
		Type:            txType,
		Category:        fmt.Sprintf("Test Category %d", nextID()),
		Date:            time.Now(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRecurringTransaction creates a recurring transaction anchored at
// the given date.
func CreateTestRecurringTransaction(t *testing.T, db *gorm.DB, userID uint, pattern models.RecurrencePattern, anchor time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:            userID,
		Amount:            5000,
		Currency:          "USD",
		ConvertedAmount:   5000,
		ExchangeRate:      1.0,
		Type:              models.TransactionTypeExpense,
		Category:          fmt.Sprintf("Recurring %d", nextID()),
		Date:              anchor,
		Recurring:         true,
		RecurrencePattern: pattern,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test recurring transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a budget over the given window. An empty category
// creates a general budget.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID uint, category string, amount int64, start, end time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:    userID,
		Category:  category,
		Amount:    amount,
		Period:    models.BudgetPeriodMonthly,
		StartDate: start,
		EndDate:   end,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestGoal creates a savings goal with the given target (in cents).
func CreateTestGoal(t *testing.T, db *gorm.DB, userID uint, target int64) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID:       userID,
		Name:         fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount: target,
		Deadline:     time.Now().AddDate(1, 0, 0),
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestAllocationGoal creates a goal with auto-allocation enabled.
// Set percentage to 0 to allocate by fixed amount instead.
func CreateTestAllocationGoal(t *testing.T, db *gorm.DB, userID uint, target int64, percentage float64, amount int64) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID:               userID,
		Name:                 fmt.Sprintf("Allocation Goal %d", nextID()),
		TargetAmount:         target,
		Deadline:             time.Now().AddDate(1, 0, 0),
		AutoAllocation:       true,
		AllocationPercentage: percentage,
		AllocationAmount:     amount,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}
