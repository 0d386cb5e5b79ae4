package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "finflow/internal/errors"
	"finflow/internal/pagination"
	"finflow/internal/services"
)

// GoalHandler handles savings-goal-related requests.
type GoalHandler struct {
	goalService services.GoalServicer
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService services.GoalServicer) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// CreateGoalRequest represents the request payload for creating a savings goal
type CreateGoalRequest struct {
	Name                 string  `json:"name" binding:"required,max=100"`
	TargetAmount         int64   `json:"target_amount" binding:"required,gt=0"`
	Deadline             string  `json:"deadline" binding:"required"`
	Notes                string  `json:"notes" binding:"max=500"`
	AutoAllocation       bool    `json:"auto_allocation"`
	AllocationPercentage float64 `json:"allocation_percentage" binding:"omitempty,gt=0,lte=100"`
	AllocationAmount     int64   `json:"allocation_amount" binding:"omitempty,gt=0"`
}

// GoalResponse represents a savings goal in the response
type GoalResponse struct {
	ID                   uint    `json:"id"`
	UserID               uint    `json:"user_id"`
	Name                 string  `json:"name"`
	TargetAmount         int64   `json:"target_amount"`
	CurrentAmount        int64   `json:"current_amount"`
	Deadline             string  `json:"deadline"`
	Notes                string  `json:"notes"`
	AutoAllocation       bool    `json:"auto_allocation"`
	AllocationPercentage float64 `json:"allocation_percentage"`
	AllocationAmount     int64   `json:"allocation_amount"`
	ProgressPercentage   float64 `json:"progress_percentage"`
}

// CreateGoal handles the creation of a new savings goal
// @Summary     Create a savings goal
// @Description Create a savings goal, optionally with auto-allocation from incoming income (percentage or fixed amount, not both)
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGoalRequest true "Goal details"
// @Success     201 {object} GoalResponse "Goal created"
// @Failure     400 {object} ErrorResponse "Invalid input or allocation settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	deadline, err := parseFlexibleTime(req.Deadline)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid deadline format, use RFC3339 or YYYY-MM-DD"))
		return
	}

	goal, err := h.goalService.CreateGoal(userID, services.CreateGoalInput{
		Name:                 req.Name,
		TargetAmount:         req.TargetAmount,
		Deadline:             deadline,
		Notes:                req.Notes,
		AutoAllocation:       req.AutoAllocation,
		AllocationPercentage: req.AllocationPercentage,
		AllocationAmount:     req.AllocationAmount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// GetUserGoals handles the retrieval of the user's savings goals
// @Summary     Get user goals
// @Description Get a paginated list of savings goals for the authenticated user
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Goal] "Paginated goals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals [get]
func (h *GoalHandler) GetUserGoals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.goalService.GetUserGoals(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetGoalByID handles the retrieval of a specific goal
// @Summary     Get goal by ID
// @Description Get a specific savings goal by ID
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Goal ID"
// @Success     200 {object} GoalResponse "Goal details"
// @Failure     400 {object} ErrorResponse "Invalid goal ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals/{id} [get]
func (h *GoalHandler) GetGoalByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.goalService.GetGoalByID(userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// UpdateGoalRequest represents the request payload for updating a goal.
type UpdateGoalRequest struct {
	Name                 *string  `json:"name" binding:"omitempty,max=100"`
	TargetAmount         *int64   `json:"target_amount" binding:"omitempty,gt=0"`
	CurrentAmount        *int64   `json:"current_amount" binding:"omitempty,gte=0"`
	Deadline             *string  `json:"deadline"`
	Notes                *string  `json:"notes" binding:"omitempty,max=500"`
	AutoAllocation       *bool    `json:"auto_allocation"`
	AllocationPercentage *float64 `json:"allocation_percentage" binding:"omitempty,gte=0,lte=100"`
	AllocationAmount     *int64   `json:"allocation_amount" binding:"omitempty,gte=0"`
}

// UpdateGoal handles updating an existing goal
// @Summary     Update goal
// @Description Update an existing savings goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int               true "Goal ID"
// @Param       request body UpdateGoalRequest true "Fields to update"
// @Success     200 {object} GoalResponse "Updated goal"
// @Failure     400 {object} ErrorResponse "Invalid input or allocation settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals/{id} [put]
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.UpdateGoalInput{
		Name:                 req.Name,
		TargetAmount:         req.TargetAmount,
		CurrentAmount:        req.CurrentAmount,
		Notes:                req.Notes,
		AutoAllocation:       req.AutoAllocation,
		AllocationPercentage: req.AllocationPercentage,
		AllocationAmount:     req.AllocationAmount,
	}

	if req.Deadline != nil && *req.Deadline != "" {
		parsed, parseErr := parseFlexibleTime(*req.Deadline)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid deadline format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		input.Deadline = &parsed
	}

	goal, err := h.goalService.UpdateGoal(userID, goalID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// DeleteGoal handles the deletion of a goal
// @Summary     Delete goal
// @Description Delete a savings goal by ID
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Goal ID"
// @Success     200 {object} MessageResponse "Goal deleted"
// @Failure     400 {object} ErrorResponse "Invalid goal ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.goalService.DeleteGoal(userID, goalID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted successfully"})
}
