package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "finflow/internal/errors"
	"finflow/internal/models"
	"finflow/internal/pagination"
)

// goalService handles savings-goal business logic.
type goalService struct {
	db *gorm.DB
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB) GoalServicer {
	return &goalService{db: db}
}

// CreateGoal creates a new savings goal for the user.
func (s *goalService) CreateGoal(userID uint, input CreateGoalInput) (*models.Goal, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if input.TargetAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
	}
	if input.Deadline.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "deadline is required")
	}
	if input.AllocationPercentage < 0 || input.AllocationPercentage > 100 {
		return nil, apperrors.ErrInvalidAllocation
	}
	if input.AllocationAmount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocation amount cannot be negative")
	}

	goal := &models.Goal{
		UserID:               userID,
		Name:                 input.Name,
		TargetAmount:         input.TargetAmount,
		Deadline:             input.Deadline,
		Notes:                input.Notes,
		AutoAllocation:       input.AutoAllocation,
		AllocationPercentage: input.AllocationPercentage,
		AllocationAmount:     input.AllocationAmount,
	}

	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return goal, nil
}

// GetUserGoals returns a paginated list of the user's goals ordered by deadline.
func (s *goalService) GetUserGoals(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error) {
	page.Defaults()

	base := s.db.Model(&models.Goal{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.Goal
	if err := base.Scopes(pagination.Paginate(page)).
		Order("deadline ASC").
		Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(goals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetGoalByID returns a goal by ID if it belongs to the user.
func (s *goalService) GetGoalByID(userID, goalID uint) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// UpdateGoal updates an existing goal's fields.
func (s *goalService) UpdateGoal(userID, goalID uint, input UpdateGoalInput) (*models.Goal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.TargetAmount != nil {
		if *input.TargetAmount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
		}
		updates["target_amount"] = *input.TargetAmount
	}
	if input.CurrentAmount != nil {
		if *input.CurrentAmount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "current amount cannot be negative")
		}
		updates["current_amount"] = *input.CurrentAmount
	}
	if input.Deadline != nil {
		updates["deadline"] = *input.Deadline
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.AutoAllocation != nil {
		updates["auto_allocation"] = *input.AutoAllocation
	}
	if input.AllocationPercentage != nil {
		if *input.AllocationPercentage < 0 || *input.AllocationPercentage > 100 {
			return nil, apperrors.ErrInvalidAllocation
		}
		updates["allocation_percentage"] = *input.AllocationPercentage
	}
	if input.AllocationAmount != nil {
		if *input.AllocationAmount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocation amount cannot be negative")
		}
		updates["allocation_amount"] = *input.AllocationAmount
	}

	if len(updates) > 0 {
		if err := s.db.Model(goal).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return goal, nil
}

// DeleteGoal soft-deletes a goal.
func (s *goalService) DeleteGoal(userID, goalID uint) error {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(goal).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
