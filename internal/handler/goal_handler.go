package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/ledgerline/ledgerline-backend/internal/middleware"
	"github.com/ledgerline/ledgerline-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// GoalHandler handles savings-goal planning HTTP requests
type GoalHandler struct {
	goalService *service.GoalService
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// PlanGoalRequest represents the goal planning request body.
// MonthlyContribution is optional; when omitted the trailing average net
// savings is used instead.
type PlanGoalRequest struct {
	GoalAmount          string  `json:"goalAmount"`
	CurrentAmount       string  `json:"currentAmount"`
	MonthlyContribution *string `json:"monthlyContribution,omitempty"`
	AnnualInterestRate  string  `json:"annualInterestRate"`
}

// PlanGoal handles POST /api/v1/goals/plan
func (h *GoalHandler) PlanGoal(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req PlanGoalRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	goalAmount, err := decimal.NewFromString(req.GoalAmount)
	if err != nil {
		return NewValidationError(c, "Invalid goalAmount", []ValidationError{
			{Field: "goalAmount", Message: "Must be a valid decimal number"},
		})
	}

	currentAmount := decimal.Zero
	if req.CurrentAmount != "" {
		currentAmount, err = decimal.NewFromString(req.CurrentAmount)
		if err != nil {
			return NewValidationError(c, "Invalid currentAmount", []ValidationError{
				{Field: "currentAmount", Message: "Must be a valid decimal number"},
			})
		}
	}

	interestRate := decimal.Zero
	if req.AnnualInterestRate != "" {
		interestRate, err = decimal.NewFromString(req.AnnualInterestRate)
		if err != nil {
			return NewValidationError(c, "Invalid annualInterestRate", []ValidationError{
				{Field: "annualInterestRate", Message: "Must be a valid decimal number"},
			})
		}
	}

	input := service.GoalInput{
		GoalAmount:         goalAmount,
		CurrentAmount:      currentAmount,
		AnnualInterestRate: interestRate,
	}

	if req.MonthlyContribution != nil {
		contribution, err := decimal.NewFromString(*req.MonthlyContribution)
		if err != nil {
			return NewValidationError(c, "Invalid monthlyContribution", []ValidationError{
				{Field: "monthlyContribution", Message: "Must be a valid decimal number"},
			})
		}
		input.MonthlyContribution = &contribution
	}

	plan, err := h.goalService.PlanGoal(userID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidGoalAmount):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "goalAmount", Message: "Goal amount must be positive"},
			})
		case errors.Is(err, domain.ErrInvalidAmount):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "currentAmount", Message: "Amounts must not be negative"},
			})
		case errors.Is(err, domain.ErrInvalidInterestRate):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "annualInterestRate", Message: "Interest rate must be between 0 and 50"},
			})
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to plan goal")
		return NewInternalError(c, "Failed to plan goal")
	}

	return c.JSON(http.StatusOK, plan)
}
