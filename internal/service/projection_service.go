package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Projection classifications
const (
	ClassificationOverBudget  = "over_budget"
	ClassificationAtRisk      = "at_risk"
	ClassificationUnderBudget = "under_budget"
	ClassificationOnTrack     = "on_track"
)

// Health score levels
const (
	HealthExcellent = "excellent"
	HealthGood      = "good"
	HealthFair      = "fair"
	HealthPoor      = "poor"
)

// ProjectionService extrapolates in-flight budget burn rates to end-of-period
// outcomes and aggregates them into a portfolio health score
type ProjectionService struct {
	budgetRepo domain.BudgetRepository
}

// NewProjectionService creates a new ProjectionService
func NewProjectionService(budgetRepo domain.BudgetRepository) *ProjectionService {
	return &ProjectionService{budgetRepo: budgetRepo}
}

// BudgetProjection is the end-of-period outlook for a single budget
type BudgetProjection struct {
	BudgetID             int32               `json:"budgetId"`
	Name                 string              `json:"name"`
	Status               domain.BudgetStatus `json:"status"`
	DaysElapsed          int                 `json:"daysElapsed"`
	DaysRemaining        int                 `json:"daysRemaining"`
	Spent                decimal.Decimal     `json:"spent"`
	DailyBurnRate        decimal.Decimal     `json:"dailyBurnRate"`
	ProjectedEndSpending decimal.Decimal     `json:"projectedEndSpending"`
	ProjectedUtilization decimal.Decimal     `json:"projectedUtilization"`
	Classification       string              `json:"classification"`
}

// PortfolioHealth is the aggregate score across a set of budget projections
type PortfolioHealth struct {
	Score int    `json:"score"`
	Level string `json:"level"`
}

// ProjectionReport is the full response for a projection request
type ProjectionReport struct {
	Projections []*BudgetProjection `json:"projections"`
	Health      *PortfolioHealth    `json:"health"`
}

// ProjectBudget returns the projection for a single budget
func (s *ProjectionService) ProjectBudget(userID uuid.UUID, budgetID int32) (*ProjectionReport, error) {
	budget, err := s.budgetRepo.GetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	budget.ReconcileStatus(time.Now())

	projections := []*BudgetProjection{projectBudget(budget, time.Now())}
	return &ProjectionReport{
		Projections: projections,
		Health:      scoreHealth(projections),
	}, nil
}

// ProjectAll returns projections for every in-flight (active or exceeded)
// budget plus the aggregate health score
func (s *ProjectionService) ProjectAll(userID uuid.UUID) (*ProjectionReport, error) {
	budgets, err := s.budgetRepo.GetAllByUser(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	projections := make([]*BudgetProjection, 0, len(budgets))
	for _, budget := range budgets {
		budget.ReconcileStatus(now)
		if budget.Status != domain.BudgetStatusActive && budget.Status != domain.BudgetStatusExceeded {
			continue
		}
		projections = append(projections, projectBudget(budget, now))
	}

	return &ProjectionReport{
		Projections: projections,
		Health:      scoreHealth(projections),
	}, nil
}

var (
	ninety  = decimal.NewFromInt(90)
	seventy = decimal.NewFromInt(70)
	hundred = decimal.NewFromInt(100)
)

func projectBudget(budget *domain.Budget, now time.Time) *BudgetProjection {
	daysElapsed := budget.DaysElapsed(now)
	daysRemaining := budget.DaysRemaining(now)

	burnRate := budget.DailySpendingRate(now)
	projectedEnd := budget.Current.Spent.Add(burnRate.Mul(decimal.NewFromInt(int64(daysRemaining))))

	projectedUtilization := decimal.Zero
	if !budget.Amount.IsZero() {
		projectedUtilization = projectedEnd.Div(budget.Amount).Mul(hundred)
	}

	return &BudgetProjection{
		BudgetID:             budget.ID,
		Name:                 budget.Name,
		Status:               budget.Status,
		DaysElapsed:          daysElapsed,
		DaysRemaining:        daysRemaining,
		Spent:                budget.Current.Spent.Round(2),
		DailyBurnRate:        burnRate.Round(2),
		ProjectedEndSpending: projectedEnd.Round(2),
		ProjectedUtilization: projectedUtilization.Round(2),
		Classification:       classify(projectedUtilization),
	}
}

func classify(projectedUtilization decimal.Decimal) string {
	switch {
	case projectedUtilization.GreaterThan(hundred):
		return ClassificationOverBudget
	case projectedUtilization.GreaterThan(ninety):
		return ClassificationAtRisk
	case projectedUtilization.LessThan(seventy):
		return ClassificationUnderBudget
	default:
		return ClassificationOnTrack
	}
}

// scoreHealth starts at 100, subtracts 30 per over-budget and 15 per at-risk
// projection, adds 5 per under-budget, and clamps to [0, 100]
func scoreHealth(projections []*BudgetProjection) *PortfolioHealth {
	score := 100
	for _, p := range projections {
		switch p.Classification {
		case ClassificationOverBudget:
			score -= 30
		case ClassificationAtRisk:
			score -= 15
		case ClassificationUnderBudget:
			score += 5
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	level := HealthPoor
	switch {
	case score >= 80:
		level = HealthExcellent
	case score >= 60:
		level = HealthGood
	case score >= 40:
		level = HealthFair
	}

	return &PortfolioHealth{Score: score, Level: level}
}
