package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/ledgerline/ledgerline-backend/internal/service"
	"github.com/ledgerline/ledgerline-backend/internal/testutil"
)

func setupGoalHandler() *GoalHandler {
	transactionRepo := testutil.NewMockTransactionRepository()
	goalService := service.NewGoalService(transactionRepo, service.NewAggregationService())
	return NewGoalHandler(goalService)
}

func TestPlanGoal_Handler_Success(t *testing.T) {
	handler := setupGoalHandler()

	body := `{"goalAmount": "12000", "currentAmount": "0", "monthlyContribution": "1000", "annualInterestRate": "0"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/goals/plan", body)
	setupAuthContext(c, uuid.New())

	if err := handler.PlanGoal(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var plan domain.GoalPlan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(plan.Scenarios) != 3 {
		t.Fatalf("Expected 3 scenarios, got %d", len(plan.Scenarios))
	}
	if plan.Scenarios[0].Time.Months != 12 {
		t.Errorf("Expected baseline 12 months, got %d", plan.Scenarios[0].Time.Months)
	}
	if len(plan.Projections) == 0 {
		t.Error("Expected projection entries")
	}
}

func TestPlanGoal_Handler_OmittedOptionalFields(t *testing.T) {
	handler := setupGoalHandler()

	// Empty current amount and rate default to zero; contribution falls back
	// to historical net savings (none here)
	body := `{"goalAmount": "5000", "currentAmount": "", "annualInterestRate": ""}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/goals/plan", body)
	setupAuthContext(c, uuid.New())

	if err := handler.PlanGoal(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var plan domain.GoalPlan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if plan.Scenarios[0].Time.Reachable {
		t.Error("Expected goal unreachable with no contribution history")
	}
}

func TestPlanGoal_Handler_Unauthenticated(t *testing.T) {
	handler := setupGoalHandler()

	c, rec := newTestContext(http.MethodPost, "/api/v1/goals/plan", `{"goalAmount": "1000"}`)

	if err := handler.PlanGoal(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestPlanGoal_Handler_MalformedAmount(t *testing.T) {
	handler := setupGoalHandler()

	c, rec := newTestContext(http.MethodPost, "/api/v1/goals/plan", `{"goalAmount": "lots"}`)
	setupAuthContext(c, uuid.New())

	if err := handler.PlanGoal(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestPlanGoal_Handler_RateOutOfRange(t *testing.T) {
	handler := setupGoalHandler()

	body := `{"goalAmount": "1000", "monthlyContribution": "100", "annualInterestRate": "51"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/goals/plan", body)
	setupAuthContext(c, uuid.New())

	if err := handler.PlanGoal(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	problem := decodeProblem(t, rec)
	if problem.Type != ErrorTypeValidation {
		t.Errorf("Expected validation problem type, got %s", problem.Type)
	}
}
