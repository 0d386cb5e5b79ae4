// Package reconcile implements the reconciliation and notification engine:
// it detects due and missed occurrences of recurring transactions, budget
// threshold crossings, and goal milestones, allocates income across savings
// goals, and guarantees each detected state transition produces at most one
// notification across both the periodic sweep and the ad-hoc
// transaction-creation hook.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"finflow/internal/models"
	"finflow/internal/services"
)

// adjustmentWindow is the shared dedup window for budget adjustment
// recommendations: at most one per budget per 30 days.
const adjustmentWindow = 30 * 24 * time.Hour

// RunResult summarizes a reconciliation sweep.
type RunResult struct {
	SeriesEvaluated      int
	BudgetsEvaluated     int
	GoalsAllocated       int
	NotificationsCreated int
	NotificationsPruned  int64
	Errors               int
	Duration             time.Duration
}

// Engine evaluates recurring transactions, budgets, and goals against the
// current state of the store, routing every notification candidate through
// the deduplicator. It is safe to invoke concurrently from the scheduler
// and the transaction-creation hook.
type Engine struct {
	db            *gorm.DB
	notifications services.NotificationServicer
	budgets       services.BudgetServicer
	baseCurrency  string
	log           *zap.SugaredLogger
	goalLocks     keyedMutex
}

// NewEngine creates a reconciliation engine.
func NewEngine(
	db *gorm.DB,
	notifications services.NotificationServicer,
	budgets services.BudgetServicer,
	baseCurrency string,
	log *zap.SugaredLogger,
) *Engine {
	return &Engine{
		db:            db,
		notifications: notifications,
		budgets:       budgets,
		baseCurrency:  baseCurrency,
		log:           log,
	}
}

// Run executes a full reconciliation sweep: every recurring series, every
// active budget, then the retention prune. A failure on one record is
// logged and counted but never aborts the rest of the sweep; idempotence
// means the next run picks up whatever this one missed.
func (e *Engine) Run(ctx context.Context, now time.Time) *RunResult {
	start := time.Now()
	result := &RunResult{}

	var recurring []models.Transaction
	if err := e.db.WithContext(ctx).Where("recurring = ?", true).Find(&recurring).Error; err != nil {
		e.log.Errorw("failed to list recurring transactions", "error", err.Error())
		result.Errors++
	}
	for i := range recurring {
		created, err := e.evaluateSeries(&recurring[i], now)
		result.SeriesEvaluated++
		result.NotificationsCreated += created
		if err != nil {
			e.log.Errorw("recurring series evaluation failed",
				"transaction_id", recurring[i].ID, "error", err.Error())
			result.Errors++
		}
	}

	var budgets []models.Budget
	if err := e.db.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Find(&budgets).Error; err != nil {
		e.log.Errorw("failed to list active budgets", "error", err.Error())
		result.Errors++
	}
	for i := range budgets {
		created, err := e.evaluateBudget(&budgets[i], now)
		result.BudgetsEvaluated++
		result.NotificationsCreated += created
		if err != nil {
			e.log.Errorw("budget evaluation failed",
				"budget_id", budgets[i].ID, "error", err.Error())
			result.Errors++
		}
	}

	pruned, err := e.notifications.Prune(now)
	if err != nil {
		// A failed prune must not block the rest of the run; it already ran.
		e.log.Errorw("notification prune failed", "error", err.Error())
		result.Errors++
	}
	result.NotificationsPruned = pruned

	result.Duration = time.Since(start)
	return result
}

// OnTransactionCreated is the ad-hoc trigger fired after a transaction
// write. It is scoped to the transaction's owner: expenses re-evaluate the
// matching and general budgets, income is allocated across goals, and a
// recurring transaction evaluates its own series.
func (e *Engine) OnTransactionCreated(ctx context.Context, transactionID uint) error {
	var transaction models.Transaction
	if err := e.db.WithContext(ctx).First(&transaction, transactionID).Error; err != nil {
		return fmt.Errorf("loading transaction %d: %w", transactionID, err)
	}
	now := time.Now()

	switch transaction.Type {
	case models.TransactionTypeExpense:
		if err := e.evaluateBudgetsForExpense(ctx, &transaction, now); err != nil {
			return err
		}
	case models.TransactionTypeIncome:
		if _, err := e.allocateIncome(ctx, &transaction, now); err != nil {
			return err
		}
	}

	if transaction.Recurring {
		if _, err := e.evaluateSeries(&transaction, now); err != nil {
			return err
		}
	}
	return nil
}

// evaluateBudgetsForExpense re-evaluates the budgets an expense can affect:
// those of the owner whose window covers the expense date and whose
// category matches case-insensitively or is general.
func (e *Engine) evaluateBudgetsForExpense(ctx context.Context, transaction *models.Transaction, now time.Time) error {
	var budgets []models.Budget
	if err := e.db.WithContext(ctx).
		Where("user_id = ? AND start_date <= ? AND end_date >= ?",
			transaction.UserID, transaction.Date, transaction.Date).
		Where("category = '' OR LOWER(category) = LOWER(?)", transaction.Category).
		Find(&budgets).Error; err != nil {
		return fmt.Errorf("listing budgets for expense: %w", err)
	}

	for i := range budgets {
		if _, err := e.evaluateBudget(&budgets[i], now); err != nil {
			return err
		}
	}
	return nil
}

// evaluateSeries proposes notifications for a recurring series' current
// classification. The dedup key carries the occurrence date, so each
// reminder/due/missed transition fires exactly once.
func (e *Engine) evaluateSeries(transaction *models.Transaction, now time.Time) (int, error) {
	occurrences := EvaluateRecurrence(transaction.Date, transaction.RecurrencePattern, transaction.RecurrenceEndDate, now)

	created := 0
	for _, occ := range occurrences {
		candidate := services.NotificationCandidate{
			UserID:        transaction.UserID,
			DedupKey:      fmt.Sprintf("recurring:%d:%s:%s", transaction.ID, occ.Kind, occ.Date.Format("2006-01-02")),
			TransactionID: &transaction.ID,
		}
		switch occ.Kind {
		case OccurrenceDueToday:
			candidate.Type = models.NotificationDueToday
			candidate.Message = fmt.Sprintf("Your recurring transaction (%s) is due today.", transaction.Category)
		case OccurrenceReminder:
			candidate.Type = models.NotificationReminder
			candidate.Message = fmt.Sprintf("Your recurring transaction (%s) is due tomorrow.", transaction.Category)
		case OccurrenceMissed:
			candidate.Type = models.NotificationMissed
			candidate.Message = fmt.Sprintf("You missed a recurring transaction (%s) due on %s.",
				transaction.Category, occ.Date.Format("2006-01-02"))
		}

		ok, err := e.notifications.Propose(candidate)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// evaluateBudget computes windowed spend for a budget and proposes
// threshold band and adjustment notifications.
func (e *Engine) evaluateBudget(budget *models.Budget, now time.Time) (int, error) {
	if budget.Amount <= 0 {
		// Invalid budgets are rejected at creation; skip defensively-loaded rows.
		return 0, nil
	}

	spent, err := e.budgets.SpentInWindow(budget.UserID, budget.Category, budget.StartDate, budget.EndDate)
	if err != nil {
		return 0, err
	}
	percentSpent := float64(spent) / float64(budget.Amount) * 100

	created := 0
	for _, band := range crossedBands(percentSpent) {
		candidate := services.NotificationCandidate{
			UserID:   budget.UserID,
			Type:     band.Type,
			DedupKey: fmt.Sprintf("budget:%d:band:%d", budget.ID, band.Percent),
			BudgetID: &budget.ID,
		}
		if band.Type == models.NotificationBudgetExceeded {
			candidate.Message = fmt.Sprintf("You have exceeded your %s budget.", budget.DisplayCategory())
		} else {
			candidate.Message = fmt.Sprintf("You have used over %d%% of your %s budget.", band.Percent, budget.DisplayCategory())
		}

		ok, err := e.notifications.Propose(candidate)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	kind, ok := recommendAdjustment(percentSpent, daysUntil(now, budget.EndDate))
	if !ok {
		return created, nil
	}

	candidate := services.NotificationCandidate{
		UserID:   budget.UserID,
		Type:     models.NotificationBudgetAdjustment,
		DedupKey: fmt.Sprintf("budget:%d:adjust", budget.ID),
		BudgetID: &budget.ID,
	}
	if kind == adjustIncrease {
		candidate.Message = fmt.Sprintf("You are spending well beyond your %s budget; consider increasing it.", budget.DisplayCategory())
	} else {
		candidate.Message = fmt.Sprintf("You are well under your %s budget with the period almost over; consider decreasing it.", budget.DisplayCategory())
	}

	inserted, err := e.notifications.ProposeWithin(candidate, adjustmentWindow, now)
	if err != nil {
		return created, err
	}
	if inserted {
		created++
	}
	return created, nil
}

// allocateIncome distributes an income transaction across the owner's
// auto-allocation goals in creation order. Percentage shares are computed
// against the original income total with decimal arithmetic; fixed-amount
// goals take their amount when the remainder covers it. Each goal's
// increment and its synthetic audit transaction commit in one database
// transaction, and a per-goal lock serializes concurrent allocations.
func (e *Engine) allocateIncome(ctx context.Context, income *models.Transaction, now time.Time) (int, error) {
	var goals []models.Goal
	if err := e.db.WithContext(ctx).
		Where("user_id = ? AND auto_allocation = ?", income.UserID, true).
		Order("created_at ASC, id ASC").
		Find(&goals).Error; err != nil {
		return 0, fmt.Errorf("listing auto-allocation goals: %w", err)
	}
	if len(goals) == 0 {
		return 0, nil
	}

	total := decimal.NewFromInt(income.ConvertedAmount)
	remaining := income.ConvertedAmount

	created := 0
	for i := range goals {
		goal := &goals[i]

		var share int64
		switch {
		case goal.AllocationPercentage > 0:
			share = total.
				Mul(decimal.NewFromFloat(goal.AllocationPercentage)).
				Div(decimal.NewFromInt(100)).
				Round(0).IntPart()
		case goal.AllocationAmount > 0 && remaining >= goal.AllocationAmount:
			share = goal.AllocationAmount
		}
		if share > remaining {
			share = remaining
		}
		if share <= 0 {
			continue
		}

		prevPercent, newPercent, err := e.creditGoal(ctx, goal, share, now)
		if err != nil {
			e.log.Errorw("goal allocation failed", "goal_id", goal.ID, "error", err.Error())
			continue
		}
		created += e.proposeMilestones(goal, prevPercent, newPercent)

		remaining -= share
		if remaining <= 0 {
			break
		}
	}
	return created, nil
}

// creditGoal applies one allocation share to a goal: the currentAmount
// increment and the synthetic savings transaction commit atomically, so a
// crash cannot leave a credited goal without its audit record. Returns the
// goal's progress before and after.
func (e *Engine) creditGoal(ctx context.Context, goal *models.Goal, share int64, now time.Time) (prevPercent, newPercent float64, err error) {
	unlock := e.goalLocks.lock(goal.ID)
	defer unlock()

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fresh models.Goal
		if err := tx.First(&fresh, goal.ID).Error; err != nil {
			return err
		}
		prevPercent = fresh.ProgressPercentage()

		if err := tx.Model(&fresh).
			Update("current_amount", gorm.Expr("current_amount + ?", share)).Error; err != nil {
			return err
		}

		audit := &models.Transaction{
			UserID:          goal.UserID,
			Amount:          share,
			Currency:        e.baseCurrency,
			ConvertedAmount: share,
			ExchangeRate:    1.0,
			Type:            models.TransactionTypeSavings,
			Category:        models.AutoSavingsCategory,
			Description:     fmt.Sprintf("Automatically saved for goal: %s", goal.Name),
			Date:            now,
		}
		if err := tx.Create(audit).Error; err != nil {
			return err
		}

		fresh.CurrentAmount += share
		newPercent = fresh.ProgressPercentage()
		goal.CurrentAmount = fresh.CurrentAmount
		return nil
	})
	return prevPercent, newPercent, err
}

// proposeMilestones routes newly crossed goal milestones through the deduplicator.
func (e *Engine) proposeMilestones(goal *models.Goal, prevPercent, newPercent float64) int {
	created := 0
	for _, crossing := range crossedMilestones(prevPercent, newPercent) {
		candidate := services.NotificationCandidate{
			UserID: goal.UserID,
			Type:   models.NotificationGoalMilestone,
			GoalID: &goal.ID,
		}
		if crossing.Exceeded {
			candidate.DedupKey = fmt.Sprintf("goal:%d:exceeded", goal.ID)
			candidate.Message = fmt.Sprintf("You have exceeded your goal %q.", goal.Name)
		} else {
			candidate.DedupKey = fmt.Sprintf("goal:%d:milestone:%d", goal.ID, crossing.Milestone)
			candidate.Message = fmt.Sprintf("You have reached %d%% of your goal %q.", crossing.Milestone, goal.Name)
		}

		ok, err := e.notifications.Propose(candidate)
		if err != nil {
			e.log.Errorw("milestone notification failed", "goal_id", goal.ID, "error", err.Error())
			continue
		}
		if ok {
			created++
		}
	}
	return created
}
