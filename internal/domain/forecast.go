package domain

import "github.com/shopspring/decimal"

// MonthlyBucket is one calendar month's aggregated totals, keyed "YYYY-MM".
// Buckets are derived per request and never persisted.
type MonthlyBucket struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

type ForecastMethod string

const (
	ForecastMethodSimple   ForecastMethod = "simple"
	ForecastMethodWeighted ForecastMethod = "weighted"
	ForecastMethodSeasonal ForecastMethod = "seasonal"
)

// Valid reports whether m is a known forecast method
func (m ForecastMethod) Valid() bool {
	return m == ForecastMethodSimple || m == ForecastMethodWeighted || m == ForecastMethodSeasonal
}

// SeasonalFactors holds the per-series calendar-month adjustment applied to a
// seasonal forecast point, reported for explainability
type SeasonalFactors struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

// ForecastPoint is a single projected future month
type ForecastPoint struct {
	Month           string           `json:"month"`
	Income          decimal.Decimal  `json:"income"`
	Expenses        decimal.Decimal  `json:"expenses"`
	Net             decimal.Decimal  `json:"net"`
	SeasonalFactors *SeasonalFactors `json:"seasonalFactors,omitempty"`
}

// ConfidenceBand brackets a single forecast value. The band is forecast
// ± 1.96σ under an assumed normal distribution; the lower bound is clamped at
// zero because negative income/expense forecasts are not meaningful.
type ConfidenceBand struct {
	Lower decimal.Decimal `json:"lower"`
	Upper decimal.Decimal `json:"upper"`
}

// ConfidenceInterval holds the bands for one forecast month
type ConfidenceInterval struct {
	Month    string         `json:"month"`
	Income   ConfidenceBand `json:"income"`
	Expenses ConfidenceBand `json:"expenses"`
}

type DataQuality string

const (
	DataQualityHigh   DataQuality = "high"
	DataQualityMedium DataQuality = "medium"
	DataQualityLow    DataQuality = "low"
)

// Forecast is the full engine output for one request
type Forecast struct {
	Method              ForecastMethod        `json:"method"`
	Points              []*ForecastPoint      `json:"forecast"`
	ConfidenceIntervals []*ConfidenceInterval `json:"confidenceIntervals"`
	DataQuality         DataQuality           `json:"dataQuality"`
}

// Forecast engine limits
const (
	MinForecastTransactions = 10
	MaxForecastMonths       = 24
	ForecastTrailingWindow  = 6
)
