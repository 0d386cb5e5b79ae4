package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "finflow/internal/errors"
	"finflow/internal/models"
	"finflow/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// periodEndDate derives the end of a budget window from its start and period.
func periodEndDate(startDate time.Time, period models.BudgetPeriod) time.Time {
	switch period {
	case models.BudgetPeriodDaily:
		return startDate.AddDate(0, 0, 1)
	case models.BudgetPeriodWeekly:
		return startDate.AddDate(0, 0, 7)
	case models.BudgetPeriodMonthly:
		return startDate.AddDate(0, 1, 0)
	case models.BudgetPeriodYearly:
		return startDate.AddDate(1, 0, 0)
	}
	return startDate
}

// CreateBudget creates a new budget. When endDate is nil it is derived from
// the start date and period. For a given (user, category, period), windows
// must not overlap.
func (s *budgetService) CreateBudget(
	userID uint,
	category string,
	amount int64,
	period models.BudgetPeriod,
	startDate time.Time,
	endDate *time.Time,
) (*models.Budget, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	if startDate.IsZero() {
		startDate = time.Now()
	}

	var finalEndDate time.Time
	if endDate != nil {
		finalEndDate = *endDate
	} else {
		finalEndDate = periodEndDate(startDate, period)
	}

	if startDate.After(finalEndDate) {
		return nil, apperrors.ErrInvalidDateWindow
	}

	category = strings.TrimSpace(category)

	overlaps, err := s.overlappingBudgetExists(userID, 0, category, period, startDate, finalEndDate)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, apperrors.ErrBudgetOverlap
	}

	budget := &models.Budget{
		UserID:    userID,
		Category:  category,
		Amount:    amount,
		Period:    period,
		StartDate: startDate,
		EndDate:   finalEndDate,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// overlappingBudgetExists checks whether another budget for the same
// (user, category, period) overlaps the given window. excludeID skips the
// budget being updated.
func (s *budgetService) overlappingBudgetExists(
	userID, excludeID uint,
	category string,
	period models.BudgetPeriod,
	startDate, endDate time.Time,
) (bool, error) {
	var count int64
	q := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND period = ?", userID, period).
		Where("LOWER(category) = LOWER(?)", category).
		Where("start_date <= ? AND end_date >= ?", endDate, startDate)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// GetUserBudgets returns a paginated list of the user's budgets ordered by start date.
func (s *budgetService) GetUserBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page)).
		Order("start_date ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields, re-checking the overlap
// invariant when the window or category changes.
func (s *budgetService) UpdateBudget(
	userID, budgetID uint,
	category *string,
	amount *int64,
	period *models.BudgetPeriod,
	endDate *time.Time,
) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	newCategory := budget.Category
	if category != nil {
		newCategory = strings.TrimSpace(*category)
	}
	newPeriod := budget.Period
	if period != nil {
		newPeriod = *period
	}
	newEndDate := budget.EndDate
	if endDate != nil {
		newEndDate = *endDate
	}

	if budget.StartDate.After(newEndDate) {
		return nil, apperrors.ErrInvalidDateWindow
	}

	overlaps, err := s.overlappingBudgetExists(userID, budget.ID, newCategory, newPeriod, budget.StartDate, newEndDate)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, apperrors.ErrBudgetOverlap
	}

	updates := make(map[string]interface{})
	if category != nil {
		updates["category"] = newCategory
	}
	if amount != nil {
		if *amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *amount
	}
	if period != nil {
		updates["period"] = newPeriod
	}
	if endDate != nil {
		updates["end_date"] = newEndDate
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SpentInWindow sums expense spending in the base currency for the user
// within [from, to]. A non-empty category filters case-insensitively; an
// empty category matches all spending (general budgets).
func (s *budgetService) SpentInWindow(userID uint, category string, from, to time.Time) (int64, error) {
	var spent int64
	q := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(converted_amount), 0)").
		Where("user_id = ? AND type = ? AND date BETWEEN ? AND ?",
			userID, models.TransactionTypeExpense, from, to)
	if strings.TrimSpace(category) != "" {
		q = q.Where("LOWER(category) = LOWER(?)", category)
	}
	if err := q.Scan(&spent).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return spent, nil
}

// GetBudgetUsage calculates allocated vs spent for each of the user's budgets.
func (s *budgetService) GetBudgetUsage(userID uint) ([]BudgetUsage, error) {
	var budgets []models.Budget
	if err := s.db.Where("user_id = ?", userID).Order("start_date ASC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	usage := make([]BudgetUsage, 0, len(budgets))
	for _, budget := range budgets {
		spent, err := s.SpentInWindow(userID, budget.Category, budget.StartDate, budget.EndDate)
		if err != nil {
			return nil, err
		}
		usage = append(usage, BudgetUsage{
			BudgetID:  budget.ID,
			Category:  budget.DisplayCategory(),
			Allocated: budget.Amount,
			Spent:     spent,
			Remaining: budget.Amount - spent,
		})
	}
	return usage, nil
}
