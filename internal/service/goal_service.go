package service

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Contribution multipliers for the alternative scenarios
var (
	acceleratedFactor = decimal.NewFromFloat(1.25)
	reducedFactor     = decimal.NewFromFloat(0.75)
)

// GoalService solves "time to reach a savings goal" under monthly compound
// interest using closed-form annuity inversion
type GoalService struct {
	transactionRepo domain.TransactionRepository
	aggregator      *AggregationService
}

// NewGoalService creates a new GoalService
func NewGoalService(transactionRepo domain.TransactionRepository, aggregator *AggregationService) *GoalService {
	return &GoalService{
		transactionRepo: transactionRepo,
		aggregator:      aggregator,
	}
}

// GoalInput is a savings-goal planning request. MonthlyContribution is
// optional; when nil the trailing-3-month average net savings is used.
type GoalInput struct {
	GoalAmount          decimal.Decimal
	CurrentAmount       decimal.Decimal
	MonthlyContribution *decimal.Decimal
	AnnualInterestRate  decimal.Decimal
}

var maxInterestRate = decimal.NewFromInt(50)

// PlanGoal computes the baseline scenario plus accelerated (x1.25) and
// reduced (x0.75) contribution variants, a compound projection table, and
// plain-language recommendations
func (s *GoalService) PlanGoal(userID uuid.UUID, input GoalInput) (*domain.GoalPlan, error) {
	if input.GoalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidGoalAmount
	}
	if input.CurrentAmount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if input.AnnualInterestRate.IsNegative() || input.AnnualInterestRate.GreaterThan(maxInterestRate) {
		return nil, domain.ErrInvalidInterestRate
	}

	contribution := decimal.Zero
	if input.MonthlyContribution != nil {
		if input.MonthlyContribution.IsNegative() {
			return nil, domain.ErrInvalidAmount
		}
		contribution = *input.MonthlyContribution
	} else {
		historical, err := s.historicalNetSavings(userID)
		if err != nil {
			return nil, err
		}
		contribution = historical
	}

	baseline := TimeToGoal(input.GoalAmount, input.CurrentAmount, contribution, input.AnnualInterestRate)
	accelerated := TimeToGoal(input.GoalAmount, input.CurrentAmount, contribution.Mul(acceleratedFactor), input.AnnualInterestRate)
	reduced := TimeToGoal(input.GoalAmount, input.CurrentAmount, contribution.Mul(reducedFactor), input.AnnualInterestRate)

	scenarios := []*domain.GoalScenario{
		{Name: "current", MonthlyContribution: contribution.Round(2), Time: baseline},
		{Name: "accelerated", MonthlyContribution: contribution.Mul(acceleratedFactor).Round(2), Time: accelerated, MonthsDelta: monthsDelta(baseline, accelerated)},
		{Name: "reduced", MonthlyContribution: contribution.Mul(reducedFactor).Round(2), Time: reduced, MonthsDelta: monthsDelta(baseline, reduced)},
	}

	return &domain.GoalPlan{
		GoalAmount:          input.GoalAmount,
		CurrentAmount:       input.CurrentAmount,
		MonthlyContribution: contribution.Round(2),
		AnnualInterestRate:  input.AnnualInterestRate,
		Scenarios:           scenarios,
		Projections:         compoundProjection(input.CurrentAmount, contribution, input.GoalAmount, input.AnnualInterestRate),
		Recommendations:     recommendations(baseline, accelerated, contribution, input.AnnualInterestRate),
	}, nil
}

// TimeToGoal inverts the future-value-of-annuity formula to find the number
// of whole months needed to grow current to target at the given contribution
// and annual rate. Partial months count as a full contribution month. Zero or
// negative contributions, and degenerate rate/contribution combinations, are
// unreachable terminal states rather than errors.
func TimeToGoal(target, current, contribution, annualRatePercent decimal.Decimal) domain.GoalTime {
	if current.GreaterThanOrEqual(target) {
		return domain.GoalTime{Reachable: true, Months: 0, Years: 0}
	}
	if contribution.LessThanOrEqual(decimal.Zero) {
		return domain.GoalTime{Reachable: false}
	}

	remaining := target.Sub(current)
	monthlyRate := annualRatePercent.InexactFloat64() / 100 / 12

	var months int
	if monthlyRate == 0 {
		months = int(remaining.Div(contribution).Ceil().IntPart())
	} else {
		// n = ln(1 + remaining*r/contribution) / ln(1 + r)
		ratio := 1 + remaining.InexactFloat64()*monthlyRate/contribution.InexactFloat64()
		if ratio <= 0 {
			return domain.GoalTime{Reachable: false}
		}
		months = int(math.Ceil(math.Log(ratio) / math.Log(1+monthlyRate)))
	}

	return domain.GoalTime{
		Reachable: true,
		Months:    months,
		Years:     float64(months) / 12,
	}
}

func monthsDelta(baseline, variant domain.GoalTime) int {
	if !baseline.Reachable || !variant.Reachable {
		return 0
	}
	return variant.Months - baseline.Months
}

// compoundProjection iterates balance = balance*(1+r) + contribution month by
// month until the goal is reached or 120 months pass. Every month is retained
// for the first 12, then every 3rd, to bound output size while preserving
// early-month resolution. The terminal month is always retained.
func compoundProjection(current, contribution, goal, annualRatePercent decimal.Decimal) []*domain.GoalProjectionEntry {
	monthlyRate := annualRatePercent.InexactFloat64() / 100 / 12
	growth := decimal.NewFromFloat(1 + monthlyRate)

	entries := make([]*domain.GoalProjectionEntry, 0, domain.ProjectionDenseMonths)
	balance := current

	for month := 1; month <= domain.MaxProjectionMonths; month++ {
		balance = balance.Mul(growth).Add(contribution)

		reached := balance.GreaterThanOrEqual(goal)
		if month <= domain.ProjectionDenseMonths || month%domain.ProjectionSampleEvery == 0 || reached {
			entries = append(entries, &domain.GoalProjectionEntry{
				Month:   month,
				Balance: balance.Round(2),
			})
		}

		if reached {
			break
		}
	}

	return entries
}

// historicalNetSavings averages net (income - expenses) over the trailing
// three calendar months of history, floored at zero
func (s *GoalService) historicalNetSavings(userID uuid.UUID) (decimal.Decimal, error) {
	start := time.Now().AddDate(0, -3, 0)
	transactions, err := s.transactionRepo.GetAllByUser(userID, &domain.TransactionFilters{StartDate: &start})
	if err != nil {
		return decimal.Zero, err
	}

	buckets := s.aggregator.BucketizeMonthly(transactions)
	if len(buckets) == 0 {
		return decimal.Zero, nil
	}

	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.Net)
	}
	avg := total.Div(decimal.NewFromInt(int64(len(buckets))))
	if avg.IsNegative() {
		return decimal.Zero, nil
	}
	return avg, nil
}

func recommendations(baseline, accelerated domain.GoalTime, contribution, annualRatePercent decimal.Decimal) []string {
	var recs []string

	if !baseline.Reachable {
		if contribution.LessThanOrEqual(decimal.Zero) {
			recs = append(recs, "Set a positive monthly contribution to make this goal reachable.")
		} else {
			recs = append(recs, "The goal is not reachable at the current contribution; increase your monthly contribution.")
		}
		return recs
	}

	if baseline.Months == 0 {
		recs = append(recs, "You have already reached this goal.")
		return recs
	}

	if accelerated.Reachable && accelerated.Months < baseline.Months {
		recs = append(recs, fmt.Sprintf("Increasing your contribution by 25%% would reach the goal %d months sooner.", baseline.Months-accelerated.Months))
	}
	if annualRatePercent.IsZero() {
		recs = append(recs, "Moving savings to an interest-bearing account would shorten the timeline.")
	}
	if baseline.Months > 60 {
		recs = append(recs, "This goal is more than five years out; consider a higher contribution or a staged target.")
	}

	return recs
}
