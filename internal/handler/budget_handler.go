package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/ledgerline/ledgerline-backend/internal/middleware"
	"github.com/ledgerline/ledgerline-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BudgetHandler handles budget-related HTTP requests
type BudgetHandler struct {
	budgetService     *service.BudgetService
	projectionService *service.ProjectionService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService, projectionService *service.ProjectionService) *BudgetHandler {
	return &BudgetHandler{
		budgetService:     budgetService,
		projectionService: projectionService,
	}
}

// AlertThresholdRequest represents one alert threshold in request bodies
type AlertThresholdRequest struct {
	Enabled bool   `json:"enabled"`
	Percent string `json:"percent"`
}

// AlertThresholdsRequest represents both alert thresholds in request bodies
type AlertThresholdsRequest struct {
	Warning  AlertThresholdRequest `json:"warning"`
	Critical AlertThresholdRequest `json:"critical"`
}

// RolloverPolicyRequest represents the rollover policy in request bodies
type RolloverPolicyRequest struct {
	Enabled         bool    `json:"enabled"`
	CarryOverUnused bool    `json:"carryOverUnused"`
	MaxAmount       *string `json:"maxAmount,omitempty"`
}

// AutoRenewPolicyRequest represents the auto-renew policy in request bodies
type AutoRenewPolicyRequest struct {
	Enabled           bool   `json:"enabled"`
	AdjustAmount      bool   `json:"adjustAmount"`
	AdjustmentPercent string `json:"adjustmentPercent"`
}

// CreateBudgetRequest represents the create budget request body
type CreateBudgetRequest struct {
	Name       string                  `json:"name"`
	Amount     string                  `json:"amount"`
	Period     string                  `json:"period"`
	Type       string                  `json:"type"`
	Categories []string                `json:"categories"`
	StartDate  string                  `json:"startDate"`
	EndDate    string                  `json:"endDate"`
	Alerts     *AlertThresholdsRequest `json:"alertThresholds,omitempty"`
	Rollover   *RolloverPolicyRequest  `json:"rollover,omitempty"`
	AutoRenew  *AutoRenewPolicyRequest `json:"autoRenew,omitempty"`
}

// UpdateBudgetRequest represents the update budget request body; omitted
// fields are left unchanged
type UpdateBudgetRequest struct {
	Name       *string                 `json:"name,omitempty"`
	Amount     *string                 `json:"amount,omitempty"`
	Categories []string                `json:"categories,omitempty"`
	StartDate  *string                 `json:"startDate,omitempty"`
	EndDate    *string                 `json:"endDate,omitempty"`
	Status     *string                 `json:"status,omitempty"`
	Alerts     *AlertThresholdsRequest `json:"alertThresholds,omitempty"`
	Rollover   *RolloverPolicyRequest  `json:"rollover,omitempty"`
	AutoRenew  *AutoRenewPolicyRequest `json:"autoRenew,omitempty"`
}

// BudgetResponse represents a budget in API responses
type BudgetResponse struct {
	ID                 int32                  `json:"id"`
	Name               string                 `json:"name"`
	Amount             string                 `json:"amount"`
	Period             string                 `json:"period"`
	Type               string                 `json:"type"`
	Categories         []string               `json:"categories"`
	StartDate          string                 `json:"startDate"`
	EndDate            string                 `json:"endDate"`
	Status             string                 `json:"status"`
	Spent              string                 `json:"spent"`
	TransactionCount   int32                  `json:"transactionCount"`
	LastTransaction    *string                `json:"lastTransactionDate,omitempty"`
	RolloverAmount     string                 `json:"rolloverAmount"`
	UtilizationPercent string                 `json:"utilizationPercent"`
	RemainingAmount    string                 `json:"remainingAmount"`
	AlertLevel         string                 `json:"alertLevel"`
	Alerts             domain.AlertThresholds `json:"alertThresholds"`
	Rollover           domain.RolloverPolicy  `json:"rollover"`
	AutoRenew          domain.AutoRenewPolicy `json:"autoRenew"`
	CreatedAt          string                 `json:"createdAt"`
	UpdatedAt          string                 `json:"updatedAt"`
}

// PeriodSnapshotResponse represents an archived budget period in API responses
type PeriodSnapshotResponse struct {
	ID               int32  `json:"id"`
	Label            string `json:"label"`
	BudgetAmount     string `json:"budgetAmount"`
	ActualSpent      string `json:"actualSpent"`
	Variance         string `json:"variance"`
	VariancePercent  string `json:"variancePercent"`
	TransactionCount int32  `json:"transactionCount"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
}

// CreateBudget handles POST /api/v1/budgets
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return NewValidationError(c, "Invalid startDate", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return NewValidationError(c, "Invalid endDate", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	input := service.CreateBudgetInput{
		Name:       req.Name,
		Amount:     amount,
		Period:     domain.BudgetPeriod(req.Period),
		Type:       domain.BudgetType(req.Type),
		Categories: req.Categories,
		StartDate:  startDate,
		EndDate:    endDate,
	}

	if req.Alerts != nil {
		alerts, verr := parseAlertThresholds(c, req.Alerts)
		if verr != nil {
			return verr
		}
		input.Alerts = *alerts
	}
	if req.Rollover != nil {
		rollover, verr := parseRolloverPolicy(c, req.Rollover)
		if verr != nil {
			return verr
		}
		input.Rollover = *rollover
	}
	if req.AutoRenew != nil {
		autoRenew, verr := parseAutoRenewPolicy(c, req.AutoRenew)
		if verr != nil {
			return verr
		}
		input.AutoRenew = *autoRenew
	}

	budget, err := h.budgetService.CreateBudget(userID, input)
	if err != nil {
		if errors.Is(err, domain.ErrOverlappingBudget) {
			return NewConflictError(c, "An active budget already covers one of these categories in this date range")
		}
		if verr := budgetValidationResponse(c, err); verr != nil {
			return verr
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create budget")
		return NewInternalError(c, "Failed to create budget")
	}

	log.Info().Str("user_id", userID.String()).Int32("budget_id", budget.ID).Str("name", budget.Name).Msg("Budget created")
	return c.JSON(http.StatusCreated, toBudgetResponse(budget))
}

// GetBudgets handles GET /api/v1/budgets
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	budgets, err := h.budgetService.ListBudgets(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list budgets")
		return NewInternalError(c, "Failed to list budgets")
	}

	response := make([]BudgetResponse, len(budgets))
	for i, budget := range budgets {
		response[i] = toBudgetResponse(budget)
	}
	return c.JSON(http.StatusOK, response)
}

// GetBudget handles GET /api/v1/budgets/:id
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	budget, err := h.budgetService.GetBudget(userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("budget_id", id).Msg("Failed to get budget")
		return NewInternalError(c, "Failed to get budget")
	}

	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// UpdateBudget handles PUT /api/v1/budgets/:id
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	var req UpdateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateBudgetInput{
		Name:       req.Name,
		Categories: req.Categories,
	}

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		input.Amount = &amount
	}

	if req.StartDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return NewValidationError(c, "Invalid startDate", []ValidationError{
				{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.StartDate = &parsed
	}
	if req.EndDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return NewValidationError(c, "Invalid endDate", []ValidationError{
				{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.EndDate = &parsed
	}

	if req.Status != nil {
		status := domain.BudgetStatus(*req.Status)
		input.Status = &status
	}

	if req.Alerts != nil {
		alerts, verr := parseAlertThresholds(c, req.Alerts)
		if verr != nil {
			return verr
		}
		input.Alerts = alerts
	}
	if req.Rollover != nil {
		rollover, verr := parseRolloverPolicy(c, req.Rollover)
		if verr != nil {
			return verr
		}
		input.Rollover = rollover
	}
	if req.AutoRenew != nil {
		autoRenew, verr := parseAutoRenewPolicy(c, req.AutoRenew)
		if verr != nil {
			return verr
		}
		input.AutoRenew = autoRenew
	}

	budget, err := h.budgetService.UpdateBudget(userID, int32(id), input)
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		if errors.Is(err, domain.ErrOverlappingBudget) {
			return NewConflictError(c, "An active budget already covers one of these categories in this date range")
		}
		if verr := budgetValidationResponse(c, err); verr != nil {
			return verr
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("budget_id", id).Msg("Failed to update budget")
		return NewInternalError(c, "Failed to update budget")
	}

	log.Info().Str("user_id", userID.String()).Int32("budget_id", budget.ID).Msg("Budget updated")
	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// DeleteBudget handles DELETE /api/v1/budgets/:id
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	if err := h.budgetService.DeleteBudget(userID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("budget_id", id).Msg("Failed to delete budget")
		return NewInternalError(c, "Failed to delete budget")
	}

	log.Info().Str("user_id", userID.String()).Int("budget_id", id).Msg("Budget deleted")
	return c.NoContent(http.StatusNoContent)
}

// RenewBudget handles POST /api/v1/budgets/:id/renew
func (h *BudgetHandler) RenewBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	budget, err := h.budgetService.RenewForNextPeriod(userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		if errors.Is(err, domain.ErrAutoRenewalDisabled) {
			return NewUnprocessableError(c, "Auto-renewal is disabled for this budget")
		}
		if errors.Is(err, domain.ErrBudgetNotCompleted) {
			return NewUnprocessableError(c, "Budget period has not completed yet")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("budget_id", id).Msg("Failed to renew budget")
		return NewInternalError(c, "Failed to renew budget")
	}

	log.Info().Str("user_id", userID.String()).Int32("budget_id", budget.ID).Msg("Budget renewed")
	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// GetBudgetHistory handles GET /api/v1/budgets/:id/history
func (h *BudgetHandler) GetBudgetHistory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	history, err := h.budgetService.GetHistory(userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("budget_id", id).Msg("Failed to get budget history")
		return NewInternalError(c, "Failed to get budget history")
	}

	response := make([]PeriodSnapshotResponse, len(history))
	for i, snapshot := range history {
		response[i] = PeriodSnapshotResponse{
			ID:               snapshot.ID,
			Label:            snapshot.Label,
			BudgetAmount:     snapshot.BudgetAmount.StringFixed(2),
			ActualSpent:      snapshot.ActualSpent.StringFixed(2),
			Variance:         snapshot.Variance.StringFixed(2),
			VariancePercent:  snapshot.VariancePercent.StringFixed(2),
			TransactionCount: snapshot.TransactionCount,
			StartDate:        snapshot.StartDate.Format("2006-01-02"),
			EndDate:          snapshot.EndDate.Format("2006-01-02"),
		}
	}
	return c.JSON(http.StatusOK, response)
}

// GetBudgetProjection handles GET /api/v1/budgets/:id/projections
func (h *BudgetHandler) GetBudgetProjection(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	report, err := h.projectionService.ProjectBudget(userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("budget_id", id).Msg("Failed to project budget")
		return NewInternalError(c, "Failed to project budget")
	}

	return c.JSON(http.StatusOK, report)
}

// GetProjections handles GET /api/v1/budgets/projections
func (h *BudgetHandler) GetProjections(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	report, err := h.projectionService.ProjectAll(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to project budgets")
		return NewInternalError(c, "Failed to project budgets")
	}

	return c.JSON(http.StatusOK, report)
}

func parseAlertThresholds(c echo.Context, req *AlertThresholdsRequest) (*domain.AlertThresholds, error) {
	warningPct, err := decimal.NewFromString(req.Warning.Percent)
	if err != nil {
		return nil, NewValidationError(c, "Invalid warning threshold", []ValidationError{
			{Field: "alertThresholds.warning.percent", Message: "Must be a valid decimal number"},
		})
	}
	criticalPct, err := decimal.NewFromString(req.Critical.Percent)
	if err != nil {
		return nil, NewValidationError(c, "Invalid critical threshold", []ValidationError{
			{Field: "alertThresholds.critical.percent", Message: "Must be a valid decimal number"},
		})
	}
	return &domain.AlertThresholds{
		Warning:  domain.AlertThreshold{Enabled: req.Warning.Enabled, Percent: warningPct},
		Critical: domain.AlertThreshold{Enabled: req.Critical.Enabled, Percent: criticalPct},
	}, nil
}

func parseRolloverPolicy(c echo.Context, req *RolloverPolicyRequest) (*domain.RolloverPolicy, error) {
	policy := &domain.RolloverPolicy{
		Enabled:         req.Enabled,
		CarryOverUnused: req.CarryOverUnused,
	}
	if req.MaxAmount != nil {
		maxAmount, err := decimal.NewFromString(*req.MaxAmount)
		if err != nil {
			return nil, NewValidationError(c, "Invalid rollover cap", []ValidationError{
				{Field: "rollover.maxAmount", Message: "Must be a valid decimal number"},
			})
		}
		policy.MaxAmount = &maxAmount
	}
	return policy, nil
}

func parseAutoRenewPolicy(c echo.Context, req *AutoRenewPolicyRequest) (*domain.AutoRenewPolicy, error) {
	adjustmentPct := decimal.Zero
	if req.AdjustmentPercent != "" {
		parsed, err := decimal.NewFromString(req.AdjustmentPercent)
		if err != nil {
			return nil, NewValidationError(c, "Invalid adjustment percent", []ValidationError{
				{Field: "autoRenew.adjustmentPercent", Message: "Must be a valid decimal number"},
			})
		}
		adjustmentPct = parsed
	}
	return &domain.AutoRenewPolicy{
		Enabled:           req.Enabled,
		AdjustAmount:      req.AdjustAmount,
		AdjustmentPercent: adjustmentPct,
	}, nil
}

// budgetValidationResponse maps budget validation errors to problem
// responses, or returns nil when err is not a validation failure
func budgetValidationResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 255 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	case errors.Is(err, domain.ErrInvalidBudgetPeriod):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "period", Message: "Period must be one of: weekly, monthly, quarterly, yearly"},
		})
	case errors.Is(err, domain.ErrInvalidBudgetType):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: expense, income, savings"},
		})
	case errors.Is(err, domain.ErrCategoryRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categories", Message: "At least one category is required"},
		})
	case errors.Is(err, domain.ErrInvalidDateRange):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "endDate", Message: "End date must be after start date"},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "status", Message: "Status may only be set to active or paused"},
		})
	}
	return nil
}

// Helper function to convert domain.Budget to BudgetResponse
func toBudgetResponse(budget *domain.Budget) BudgetResponse {
	resp := BudgetResponse{
		ID:                 budget.ID,
		Name:               budget.Name,
		Amount:             budget.Amount.StringFixed(2),
		Period:             string(budget.Period),
		Type:               string(budget.Type),
		Categories:         budget.Categories,
		StartDate:          budget.StartDate.Format("2006-01-02"),
		EndDate:            budget.EndDate.Format("2006-01-02"),
		Status:             string(budget.Status),
		Spent:              budget.Current.Spent.StringFixed(2),
		TransactionCount:   budget.Current.TransactionCount,
		RolloverAmount:     budget.Current.RolloverAmount.StringFixed(2),
		UtilizationPercent: budget.UtilizationPercent().StringFixed(2),
		RemainingAmount:    budget.RemainingAmount().StringFixed(2),
		AlertLevel:         string(budget.NeedsAlert()),
		Alerts:             budget.Alerts,
		Rollover:           budget.Rollover,
		AutoRenew:          budget.AutoRenew,
		CreatedAt:          budget.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          budget.UpdatedAt.Format(time.RFC3339),
	}
	if budget.Current.LastTransactionDate != nil {
		last := budget.Current.LastTransactionDate.Format(time.RFC3339)
		resp.LastTransaction = &last
	}
	return resp
}
