package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/ledgerline/ledgerline-backend/internal/service"
	"github.com/ledgerline/ledgerline-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func setupForecastHandler() (*ForecastHandler, *testutil.MockTransactionRepository) {
	transactionRepo := testutil.NewMockTransactionRepository()
	forecastService := service.NewForecastService(transactionRepo, service.NewAggregationService())
	return NewForecastHandler(forecastService), transactionRepo
}

func seedForecastHistory(repo *testutil.MockTransactionRepository, userID uuid.UUID) {
	for i := 0; i < 12; i++ {
		repo.AddTransaction(&domain.Transaction{
			UserID:          userID,
			Name:            "tx",
			Amount:          decimal.NewFromInt(100),
			Type:            domain.TransactionTypeExpense,
			Category:        "misc",
			TransactionDate: time.Now().AddDate(0, 0, -i),
		})
	}
}

func TestGetForecast_Handler_Unauthenticated(t *testing.T) {
	handler, _ := setupForecastHandler()

	c, rec := newTestContext(http.MethodGet, "/api/v1/forecast", "")

	if err := handler.GetForecast(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetForecast_Handler_InsufficientData(t *testing.T) {
	handler, _ := setupForecastHandler()

	c, rec := newTestContext(http.MethodGet, "/api/v1/forecast", "")
	setupAuthContext(c, uuid.New())

	if err := handler.GetForecast(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rec.Code)
	}

	problem := decodeProblem(t, rec)
	if problem.Type != ErrorTypeUnprocessable {
		t.Errorf("Expected unprocessable problem type, got %s", problem.Type)
	}
}

func TestGetForecast_Handler_DefaultsToSixMonthsSimple(t *testing.T) {
	handler, transactionRepo := setupForecastHandler()
	userID := uuid.New()
	seedForecastHistory(transactionRepo, userID)

	c, rec := newTestContext(http.MethodGet, "/api/v1/forecast", "")
	setupAuthContext(c, userID)

	if err := handler.GetForecast(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var forecast domain.Forecast
	if err := json.Unmarshal(rec.Body.Bytes(), &forecast); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if forecast.Method != domain.ForecastMethodSimple {
		t.Errorf("Expected method 'simple', got %s", forecast.Method)
	}
	if len(forecast.Points) != 6 {
		t.Errorf("Expected 6 forecast points, got %d", len(forecast.Points))
	}
	if len(forecast.ConfidenceIntervals) != 6 {
		t.Errorf("Expected 6 confidence intervals, got %d", len(forecast.ConfidenceIntervals))
	}
}

func TestGetForecast_Handler_MonthsAndMethodParams(t *testing.T) {
	handler, transactionRepo := setupForecastHandler()
	userID := uuid.New()
	seedForecastHistory(transactionRepo, userID)

	c, rec := newTestContext(http.MethodGet, "/api/v1/forecast?months=3&method=weighted", "")
	setupAuthContext(c, userID)

	if err := handler.GetForecast(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var forecast domain.Forecast
	if err := json.Unmarshal(rec.Body.Bytes(), &forecast); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if forecast.Method != domain.ForecastMethodWeighted {
		t.Errorf("Expected method 'weighted', got %s", forecast.Method)
	}
	if len(forecast.Points) != 3 {
		t.Errorf("Expected 3 forecast points, got %d", len(forecast.Points))
	}
}

func TestGetForecast_Handler_InvalidMonths(t *testing.T) {
	handler, transactionRepo := setupForecastHandler()
	userID := uuid.New()
	seedForecastHistory(transactionRepo, userID)

	for _, target := range []string{
		"/api/v1/forecast?months=abc",
		"/api/v1/forecast?months=0",
		"/api/v1/forecast?months=25",
	} {
		c, rec := newTestContext(http.MethodGet, target, "")
		setupAuthContext(c, userID)

		if err := handler.GetForecast(c); err != nil {
			t.Fatalf("Expected no error for %s, got %v", target, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", target, rec.Code)
		}
	}
}

func TestGetForecast_Handler_InvalidMethod(t *testing.T) {
	handler, transactionRepo := setupForecastHandler()
	userID := uuid.New()
	seedForecastHistory(transactionRepo, userID)

	c, rec := newTestContext(http.MethodGet, "/api/v1/forecast?method=exponential", "")
	setupAuthContext(c, userID)

	if err := handler.GetForecast(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
