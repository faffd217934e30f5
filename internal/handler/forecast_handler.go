package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/ledgerline/ledgerline-backend/internal/middleware"
	"github.com/ledgerline/ledgerline-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// ForecastHandler handles forecast HTTP requests
type ForecastHandler struct {
	forecastService *service.ForecastService
}

// NewForecastHandler creates a new ForecastHandler
func NewForecastHandler(forecastService *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{forecastService: forecastService}
}

// GetForecast handles GET /api/v1/forecast
func (h *ForecastHandler) GetForecast(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	months := 6
	if monthsStr := c.QueryParam("months"); monthsStr != "" {
		parsed, err := strconv.Atoi(monthsStr)
		if err != nil {
			return NewValidationError(c, "Invalid months parameter", []ValidationError{
				{Field: "months", Message: "Must be an integer"},
			})
		}
		months = parsed
	}

	method := domain.ForecastMethodSimple
	if methodStr := c.QueryParam("method"); methodStr != "" {
		method = domain.ForecastMethod(methodStr)
	}

	forecast, err := h.forecastService.Forecast(userID, months, method)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidForecastHorizon):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "months", Message: "Must be between 1 and 24"},
			})
		case errors.Is(err, domain.ErrInvalidForecastMethod):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "method", Message: "Must be one of: simple, weighted, seasonal"},
			})
		case errors.Is(err, domain.ErrInsufficientData):
			return NewUnprocessableError(c, "Not enough transaction history to forecast; at least 10 transactions are required")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to compute forecast")
		return NewInternalError(c, "Failed to compute forecast")
	}

	return c.JSON(http.StatusOK, forecast)
}
