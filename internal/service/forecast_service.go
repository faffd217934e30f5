package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/ledgerline/ledgerline-backend/internal/util"
	"github.com/shopspring/decimal"
)

// ForecastService projects future monthly income and expenses from historical
// transactions using one of three interchangeable strategies
type ForecastService struct {
	transactionRepo domain.TransactionRepository
	aggregator      *AggregationService
}

// NewForecastService creates a new ForecastService
func NewForecastService(transactionRepo domain.TransactionRepository, aggregator *AggregationService) *ForecastService {
	return &ForecastService{
		transactionRepo: transactionRepo,
		aggregator:      aggregator,
	}
}

// Forecast produces one projection per future calendar month, starting the
// month after now. Month labels are derived from the wall clock, not from the
// last historical bucket, so stale history still projects from the present.
// Fewer than domain.MinForecastTransactions historical transactions is a hard
// precondition failure (domain.ErrInsufficientData) checked before any
// strategy runs.
func (s *ForecastService) Forecast(userID uuid.UUID, months int, method domain.ForecastMethod) (*domain.Forecast, error) {
	if months < 1 || months > domain.MaxForecastMonths {
		return nil, domain.ErrInvalidForecastHorizon
	}
	if !method.Valid() {
		return nil, domain.ErrInvalidForecastMethod
	}

	transactions, err := s.transactionRepo.GetAllByUser(userID, nil)
	if err != nil {
		return nil, err
	}
	if len(transactions) < domain.MinForecastTransactions {
		return nil, domain.ErrInsufficientData
	}

	history := s.aggregator.BucketizeMonthly(transactions)
	now := time.Now()
	targets := futureMonthKeys(now, months)

	points := strategyFor(method).project(history, targets)
	intervals := confidenceIntervals(history, points)
	quality := assessDataQuality(history, now)

	return &domain.Forecast{
		Method:              method,
		Points:              points,
		ConfidenceIntervals: intervals,
		DataQuality:         quality,
	}, nil
}

// futureMonthKeys returns the "YYYY-MM" keys for the n months after now
func futureMonthKeys(now time.Time, n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = util.MonthKey(util.AddMonths(now, i+1))
	}
	return keys
}

// forecastStrategy projects historical buckets onto future month keys.
// Implementations accumulate at full precision; rounding to 2 decimal places
// happens only at the point of output.
type forecastStrategy interface {
	project(history []*domain.MonthlyBucket, months []string) []*domain.ForecastPoint
}

func strategyFor(method domain.ForecastMethod) forecastStrategy {
	switch method {
	case domain.ForecastMethodWeighted:
		return weightedStrategy{}
	case domain.ForecastMethodSeasonal:
		return seasonalStrategy{}
	default:
		return simpleStrategy{}
	}
}

// trailingWindow returns the most recent n buckets, or all of them if fewer
func trailingWindow(history []*domain.MonthlyBucket, n int) []*domain.MonthlyBucket {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func newPoint(month string, income, expenses decimal.Decimal) *domain.ForecastPoint {
	income = income.Round(2)
	expenses = expenses.Round(2)
	return &domain.ForecastPoint{
		Month:    month,
		Income:   income,
		Expenses: expenses,
		Net:      income.Sub(expenses),
	}
}

// simpleStrategy repeats the flat average of the trailing six buckets for
// every forecast month
type simpleStrategy struct{}

func (simpleStrategy) project(history []*domain.MonthlyBucket, months []string) []*domain.ForecastPoint {
	window := trailingWindow(history, domain.ForecastTrailingWindow)

	income, expenses := decimal.Zero, decimal.Zero
	for _, b := range window {
		income = income.Add(b.Income)
		expenses = expenses.Add(b.Expenses)
	}
	n := decimal.NewFromInt(int64(len(window)))
	avgIncome := income.Div(n)
	avgExpenses := expenses.Div(n)

	points := make([]*domain.ForecastPoint, len(months))
	for i, month := range months {
		points[i] = newPoint(month, avgIncome, avgExpenses)
	}
	return points
}

// weightedStrategy averages the trailing six buckets with linear recency
// weights: the oldest bucket in the window weighs 1, the next 2, and so on up
// to the newest. Any monotonically increasing recency weighting satisfies the
// contract; this linear scheme is the documented one and is stable across
// calls.
type weightedStrategy struct{}

func (weightedStrategy) project(history []*domain.MonthlyBucket, months []string) []*domain.ForecastPoint {
	window := trailingWindow(history, domain.ForecastTrailingWindow)

	income, expenses, weightSum := decimal.Zero, decimal.Zero, decimal.Zero
	for i, b := range window {
		w := decimal.NewFromInt(int64(i + 1))
		income = income.Add(b.Income.Mul(w))
		expenses = expenses.Add(b.Expenses.Mul(w))
		weightSum = weightSum.Add(w)
	}
	avgIncome := income.Div(weightSum)
	avgExpenses := expenses.Div(weightSum)

	points := make([]*domain.ForecastPoint, len(months))
	for i, month := range months {
		points[i] = newPoint(month, avgIncome, avgExpenses)
	}
	return points
}

// seasonalStrategy scales the overall historical average by a per-calendar-
// month seasonal factor computed over ALL available history, separately for
// income and expenses. Calendar months with no history default to a factor of
// 1.0. The factors used are reported on every point for explainability. This
// is an inherited heuristic with no statistical validation behind it.
type seasonalStrategy struct{}

func (seasonalStrategy) project(history []*domain.MonthlyBucket, months []string) []*domain.ForecastPoint {
	overallIncome, overallExpenses := overallAverages(history)
	incomeFactors := seasonalFactorsFor(history, overallIncome, func(b *domain.MonthlyBucket) decimal.Decimal { return b.Income })
	expenseFactors := seasonalFactorsFor(history, overallExpenses, func(b *domain.MonthlyBucket) decimal.Decimal { return b.Expenses })

	points := make([]*domain.ForecastPoint, len(months))
	for i, month := range months {
		calendarMonth := calendarMonthOf(month)

		incomeFactor := factorOrDefault(incomeFactors, calendarMonth)
		expenseFactor := factorOrDefault(expenseFactors, calendarMonth)

		point := newPoint(month,
			overallIncome.Mul(incomeFactor),
			overallExpenses.Mul(expenseFactor))
		point.SeasonalFactors = &domain.SeasonalFactors{
			Income:   incomeFactor.InexactFloat64(),
			Expenses: expenseFactor.InexactFloat64(),
		}
		points[i] = point
	}
	return points
}

func overallAverages(history []*domain.MonthlyBucket) (decimal.Decimal, decimal.Decimal) {
	income, expenses := decimal.Zero, decimal.Zero
	for _, b := range history {
		income = income.Add(b.Income)
		expenses = expenses.Add(b.Expenses)
	}
	n := decimal.NewFromInt(int64(len(history)))
	return income.Div(n), expenses.Div(n)
}

// seasonalFactorsFor computes calendar-month average / overall average for
// each calendar month present in history
func seasonalFactorsFor(history []*domain.MonthlyBucket, overall decimal.Decimal, value func(*domain.MonthlyBucket) decimal.Decimal) map[time.Month]decimal.Decimal {
	sums := make(map[time.Month]decimal.Decimal)
	counts := make(map[time.Month]int64)
	for _, b := range history {
		m := calendarMonthOf(b.Month)
		sums[m] = sums[m].Add(value(b))
		counts[m]++
	}

	factors := make(map[time.Month]decimal.Decimal, len(sums))
	for m, sum := range sums {
		if overall.IsZero() {
			factors[m] = decimal.NewFromInt(1)
			continue
		}
		monthAvg := sum.Div(decimal.NewFromInt(counts[m]))
		factors[m] = monthAvg.Div(overall)
	}
	return factors
}

func factorOrDefault(factors map[time.Month]decimal.Decimal, m time.Month) decimal.Decimal {
	if f, ok := factors[m]; ok {
		return f
	}
	return decimal.NewFromInt(1)
}

func calendarMonthOf(monthKey string) time.Month {
	_, m, err := util.ParseMonthKey(monthKey)
	if err != nil {
		return time.January
	}
	return m
}

// assessDataQuality labels how trustworthy the history is: high when at least
// 90% of the trailing six calendar months have transactions and the history
// spans six or more months; medium at 70% coverage and three or more months;
// low otherwise.
func assessDataQuality(history []*domain.MonthlyBucket, now time.Time) domain.DataQuality {
	present := make(map[string]bool, len(history))
	for _, b := range history {
		present[b.Month] = true
	}

	covered := 0
	for i := 0; i < domain.ForecastTrailingWindow; i++ {
		key := util.MonthKey(util.AddMonths(now, -i))
		if present[key] {
			covered++
		}
	}
	coverage := float64(covered) / float64(domain.ForecastTrailingWindow)

	switch {
	case coverage >= 0.9 && len(history) >= 6:
		return domain.DataQualityHigh
	case coverage >= 0.7 && len(history) >= 3:
		return domain.DataQualityMedium
	default:
		return domain.DataQualityLow
	}
}
