package service

import (
	"math"

	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// zScore95 is the two-sided normal z-score for a 95% interval. The band is a
// stated heuristic: no distributional test is performed on the history.
const zScore95 = 1.96

// confidenceIntervals brackets every forecast point with a 95%-under-normality
// band derived from the population standard deviation of ALL historical
// buckets, independently for income and expenses. Lower bounds are clamped at
// zero because negative income/expense forecasts are not meaningful.
func confidenceIntervals(history []*domain.MonthlyBucket, points []*domain.ForecastPoint) []*domain.ConfidenceInterval {
	incomeSigma := populationStdDev(history, func(b *domain.MonthlyBucket) float64 { return b.Income.InexactFloat64() })
	expenseSigma := populationStdDev(history, func(b *domain.MonthlyBucket) float64 { return b.Expenses.InexactFloat64() })

	intervals := make([]*domain.ConfidenceInterval, len(points))
	for i, p := range points {
		intervals[i] = &domain.ConfidenceInterval{
			Month:    p.Month,
			Income:   bandAround(p.Income, incomeSigma),
			Expenses: bandAround(p.Expenses, expenseSigma),
		}
	}
	return intervals
}

func bandAround(forecast decimal.Decimal, sigma float64) domain.ConfidenceBand {
	margin := decimal.NewFromFloat(zScore95 * sigma)

	lower := forecast.Sub(margin)
	if lower.IsNegative() {
		lower = decimal.Zero
	}

	return domain.ConfidenceBand{
		Lower: lower.Round(2),
		Upper: forecast.Add(margin).Round(2),
	}
}

func populationStdDev(history []*domain.MonthlyBucket, value func(*domain.MonthlyBucket) float64) float64 {
	if len(history) == 0 {
		return 0
	}

	sum := 0.0
	for _, b := range history {
		sum += value(b)
	}
	mean := sum / float64(len(history))

	variance := 0.0
	for _, b := range history {
		d := value(b) - mean
		variance += d * d
	}
	variance /= float64(len(history))

	return math.Sqrt(variance)
}
