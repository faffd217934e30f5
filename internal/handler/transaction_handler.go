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

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	Name     string  `json:"name"`
	Amount   string  `json:"amount"`
	Type     string  `json:"type"`
	Category string  `json:"category"`
	Date     *string `json:"date,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// UpdateTransactionRequest represents the update transaction request body;
// omitted fields are left unchanged
type UpdateTransactionRequest struct {
	Name     *string `json:"name,omitempty"`
	Amount   *string `json:"amount,omitempty"`
	Type     *string `json:"type,omitempty"`
	Category *string `json:"category,omitempty"`
	Date     *string `json:"date,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID              int32   `json:"id"`
	Name            string  `json:"name"`
	Amount          string  `json:"amount"`
	Type            string  `json:"type"`
	Category        string  `json:"category"`
	TransactionDate string  `json:"transactionDate"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	var transactionDate *time.Time
	if req.Date != nil && *req.Date != "" {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: "date", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		transactionDate = &parsed
	}

	input := service.CreateTransactionInput{
		Name:            req.Name,
		Amount:          amount,
		Type:            domain.TransactionType(req.Type),
		Category:        req.Category,
		TransactionDate: transactionDate,
		Notes:           req.Notes,
	}

	transaction, err := h.transactionService.CreateTransaction(userID, input)
	if err != nil {
		if verr := transactionValidationResponse(c, err); verr != nil {
			return verr
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create transaction")
		return NewInternalError(c, "Failed to create transaction")
	}

	log.Info().Str("user_id", userID.String()).Int32("transaction_id", transaction.ID).Str("name", transaction.Name).Msg("Transaction created")

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetTransactions handles GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	filters := &domain.TransactionFilters{}

	if category := c.QueryParam("category"); category != "" {
		filters.Category = &category
	}

	if startDateStr := c.QueryParam("startDate"); startDateStr != "" {
		parsed, err := time.Parse("2006-01-02", startDateStr)
		if err != nil {
			return NewValidationError(c, "Invalid startDate format (use YYYY-MM-DD)", nil)
		}
		filters.StartDate = &parsed
	}

	if endDateStr := c.QueryParam("endDate"); endDateStr != "" {
		parsed, err := time.Parse("2006-01-02", endDateStr)
		if err != nil {
			return NewValidationError(c, "Invalid endDate format (use YYYY-MM-DD)", nil)
		}
		filters.EndDate = &parsed
	}

	if typeStr := c.QueryParam("type"); typeStr != "" {
		transactionType := domain.TransactionType(typeStr)
		if transactionType != domain.TransactionTypeIncome && transactionType != domain.TransactionTypeExpense {
			return NewValidationError(c, "Invalid type (must be 'income' or 'expense')", nil)
		}
		filters.Type = &transactionType
	}

	transactions, err := h.transactionService.GetTransactions(userID, filters)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get transactions")
		return NewInternalError(c, "Failed to get transactions")
	}

	response := make([]TransactionResponse, len(transactions))
	for i, transaction := range transactions {
		response[i] = toTransactionResponse(transaction)
	}

	return c.JSON(http.StatusOK, response)
}

// UpdateTransaction handles PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateTransactionInput{
		Name:  req.Name,
		Notes: req.Notes,
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

	if req.Type != nil {
		transactionType := domain.TransactionType(*req.Type)
		input.Type = &transactionType
	}

	if req.Category != nil {
		input.Category = req.Category
	}

	if req.Date != nil && *req.Date != "" {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: "date", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.TransactionDate = &parsed
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, int32(id), input)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		if verr := transactionValidationResponse(c, err); verr != nil {
			return verr
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("transaction_id", id).Msg("Failed to update transaction")
		return NewInternalError(c, "Failed to update transaction")
	}

	log.Info().Str("user_id", userID.String()).Int32("transaction_id", transaction.ID).Msg("Transaction updated")
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(userID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int("transaction_id", id).Msg("Failed to delete transaction")
		return NewInternalError(c, "Failed to delete transaction")
	}

	log.Info().Str("user_id", userID.String()).Int("transaction_id", id).Msg("Transaction deleted")
	return c.NoContent(http.StatusNoContent)
}

// transactionValidationResponse maps transaction validation errors to problem
// responses, or returns nil when err is not a validation failure
func transactionValidationResponse(c echo.Context, err error) error {
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
	case errors.Is(err, domain.ErrInvalidTransactionType):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: income, expense"},
		})
	case errors.Is(err, domain.ErrCategoryRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "category", Message: "Category is required"},
		})
	}
	return nil
}

// Helper function to convert domain.Transaction to TransactionResponse
func toTransactionResponse(transaction *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              transaction.ID,
		Name:            transaction.Name,
		Amount:          transaction.Amount.StringFixed(2),
		Type:            string(transaction.Type),
		Category:        transaction.Category,
		TransactionDate: transaction.TransactionDate.Format("2006-01-02"),
		Notes:           transaction.Notes,
		CreatedAt:       transaction.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       transaction.UpdatedAt.Format(time.RFC3339),
	}
}
