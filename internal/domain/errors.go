package domain

import "errors"

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInternalError       = errors.New("internal error")
	ErrUserNotFound        = errors.New("user not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrNameRequired           = errors.New("name is required")
	ErrNameTooLong            = errors.New("name exceeds maximum length")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("transaction type must be income or expense")
	ErrInvalidBudgetPeriod    = errors.New("invalid budget period")
	ErrInvalidBudgetType      = errors.New("invalid budget type")
	ErrCategoryRequired       = errors.New("at least one category is required")

	// ErrInvalidDateRange is returned when a budget's end date is not after its start date
	ErrInvalidDateRange = errors.New("end date must be after start date")

	// ErrOverlappingBudget is returned when an active or paused budget already
	// covers one of the requested categories in an overlapping date range
	ErrOverlappingBudget = errors.New("an overlapping budget already exists for this category")

	// ErrInsufficientData is returned when there are fewer than
	// MinForecastTransactions historical transactions to forecast from
	ErrInsufficientData = errors.New("insufficient transaction history for forecasting")

	ErrInvalidForecastMethod  = errors.New("invalid forecast method")
	ErrInvalidForecastHorizon = errors.New("forecast horizon must be between 1 and 24 months")

	// Renewal preconditions, reported as no-op failures
	ErrAutoRenewalDisabled = errors.New("auto-renewal is not enabled for this budget")
	ErrBudgetNotCompleted  = errors.New("budget period has not completed")

	ErrInvalidGoalAmount   = errors.New("goal amount must be positive")
	ErrInvalidInterestRate = errors.New("interest rate must be between 0 and 50 percent")
)

// Validation constants
const (
	MaxBudgetNameLength      = 255
	MaxTransactionNameLength = 255
)
