package domain

import "github.com/shopspring/decimal"

// GoalTime is the solved time-to-goal for one contribution level. When
// Reachable is false the goal cannot be met at that contribution (zero or
// negative contribution, or a degenerate rate/contribution combination);
// callers must treat this as a terminal state, not an error.
type GoalTime struct {
	Reachable bool    `json:"reachable"`
	Months    int     `json:"months"`
	Years     float64 `json:"years"`
}

// GoalScenario is the solver result for one contribution variant
type GoalScenario struct {
	Name                string          `json:"name"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
	Time                GoalTime        `json:"time"`
	// MonthsDelta is months saved (negative) or added (positive) relative to
	// the baseline scenario; zero for the baseline itself
	MonthsDelta int `json:"monthsDelta"`
}

// GoalProjectionEntry is one retained row of the compound projection table
type GoalProjectionEntry struct {
	Month   int             `json:"month"`
	Balance decimal.Decimal `json:"balance"`
}

// GoalPlan is the full savings-goal response
type GoalPlan struct {
	GoalAmount          decimal.Decimal        `json:"goalAmount"`
	CurrentAmount       decimal.Decimal        `json:"currentAmount"`
	MonthlyContribution decimal.Decimal        `json:"monthlyContribution"`
	AnnualInterestRate  decimal.Decimal        `json:"annualInterestRate"`
	Scenarios           []*GoalScenario        `json:"scenarios"`
	Projections         []*GoalProjectionEntry `json:"projections"`
	Recommendations     []string               `json:"recommendations"`
}

// Savings goal solver limits
const (
	MaxProjectionMonths   = 120
	ProjectionDenseMonths = 12
	ProjectionSampleEvery = 3
)
