package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetPeriod string

const (
	BudgetPeriodWeekly    BudgetPeriod = "weekly"
	BudgetPeriodMonthly   BudgetPeriod = "monthly"
	BudgetPeriodQuarterly BudgetPeriod = "quarterly"
	BudgetPeriodYearly    BudgetPeriod = "yearly"
)

// Days returns the fixed period length in days. Renewal date math uses these
// fixed lengths, not calendar months.
func (p BudgetPeriod) Days() int {
	switch p {
	case BudgetPeriodWeekly:
		return 7
	case BudgetPeriodMonthly:
		return 30
	case BudgetPeriodQuarterly:
		return 90
	case BudgetPeriodYearly:
		return 365
	}
	return 0
}

// Valid reports whether p is a known budget period
func (p BudgetPeriod) Valid() bool {
	return p.Days() > 0
}

type BudgetType string

const (
	BudgetTypeExpense BudgetType = "expense"
	BudgetTypeIncome  BudgetType = "income"
	BudgetTypeSavings BudgetType = "savings"
)

// Valid reports whether t is a known budget type
func (t BudgetType) Valid() bool {
	return t == BudgetTypeExpense || t == BudgetTypeIncome || t == BudgetTypeSavings
}

type BudgetStatus string

const (
	BudgetStatusActive    BudgetStatus = "active"
	BudgetStatusPaused    BudgetStatus = "paused"
	BudgetStatusCompleted BudgetStatus = "completed"
	BudgetStatusExceeded  BudgetStatus = "exceeded"
)

type AlertLevel string

const (
	AlertLevelNone     AlertLevel = "none"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelCritical AlertLevel = "critical"
)

// AlertThreshold is a single utilization threshold, independently toggleable
type AlertThreshold struct {
	Enabled bool            `json:"enabled"`
	Percent decimal.Decimal `json:"percent"`
}

type AlertThresholds struct {
	Warning  AlertThreshold `json:"warning"`
	Critical AlertThreshold `json:"critical"`
}

// RolloverPolicy controls how unused budget carries into a renewed period
type RolloverPolicy struct {
	Enabled         bool             `json:"enabled"`
	CarryOverUnused bool             `json:"carryOverUnused"`
	MaxAmount       *decimal.Decimal `json:"maxAmount,omitempty"`
}

// AutoRenewPolicy controls automatic period renewal
type AutoRenewPolicy struct {
	Enabled           bool            `json:"enabled"`
	AdjustAmount      bool            `json:"adjustAmount"`
	AdjustmentPercent decimal.Decimal `json:"adjustmentPercent"`
}

// CurrentPeriod holds the mutable counters for the budget's in-flight period.
// Spent and TransactionCount are only ever changed through the repository's
// atomic ApplyTransaction operation.
type CurrentPeriod struct {
	Spent               decimal.Decimal `json:"spent"`
	TransactionCount    int32           `json:"transactionCount"`
	LastTransactionDate *time.Time      `json:"lastTransactionDate,omitempty"`
	RolloverAmount      decimal.Decimal `json:"rolloverAmount"`
}

// Budget is a user-owned spending limit over a fixed-length period
type Budget struct {
	ID         int32           `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Period     BudgetPeriod    `json:"period"`
	Type       BudgetType      `json:"type"`
	Categories []string        `json:"categories"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
	Current    CurrentPeriod   `json:"currentPeriod"`
	Status     BudgetStatus    `json:"status"`
	Alerts     AlertThresholds `json:"alertThresholds"`
	Rollover   RolloverPolicy  `json:"rollover"`
	AutoRenew  AutoRenewPolicy `json:"autoRenew"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// PeriodSnapshot is an archived, closed budget period
type PeriodSnapshot struct {
	ID               int32           `json:"id"`
	BudgetID         int32           `json:"budgetId"`
	Label            string          `json:"label"`
	BudgetAmount     decimal.Decimal `json:"budgetAmount"`
	ActualSpent      decimal.Decimal `json:"actualSpent"`
	Variance         decimal.Decimal `json:"variance"`
	VariancePercent  decimal.Decimal `json:"variancePercent"`
	TransactionCount int32           `json:"transactionCount"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate"`
	CreatedAt        time.Time       `json:"createdAt"`
}

var oneHundred = decimal.NewFromInt(100)

// UtilizationPercent returns spent as a percentage of the budgeted amount
func (b *Budget) UtilizationPercent() decimal.Decimal {
	if b.Amount.IsZero() {
		return decimal.Zero
	}
	return b.Current.Spent.Div(b.Amount).Mul(oneHundred)
}

// RemainingAmount returns the unspent amount including rollover, floored at zero
func (b *Budget) RemainingAmount() decimal.Decimal {
	remaining := b.Amount.Sub(b.Current.Spent).Add(b.Current.RolloverAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// TotalPeriodDays returns the length of the budget period in days, at least 1
func (b *Budget) TotalPeriodDays() int {
	days := int(b.EndDate.Sub(b.StartDate).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// DaysElapsed returns whole days since the period start, at least 1 so that
// day-one burn rates do not divide by zero
func (b *Budget) DaysElapsed(now time.Time) int {
	days := int(now.Sub(b.StartDate).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// DaysRemaining returns whole days until the period end, floored at zero
func (b *Budget) DaysRemaining(now time.Time) int {
	days := int(b.EndDate.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// DailySpendingRate returns average spend per elapsed day
func (b *Budget) DailySpendingRate(now time.Time) decimal.Decimal {
	return b.Current.Spent.Div(decimal.NewFromInt(int64(b.DaysElapsed(now))))
}

// ProjectedEndAmount extrapolates the daily spending rate across the whole period
func (b *Budget) ProjectedEndAmount(now time.Time) decimal.Decimal {
	return b.DailySpendingRate(now).Mul(decimal.NewFromInt(int64(b.TotalPeriodDays())))
}

// ReconcileStatus re-derives the budget status from utilization and the
// current time. Status is persisted as a cache but never trusted on load.
// A user-requested pause is sticky and is not overridden by utilization.
// Returns true if the status changed.
func (b *Budget) ReconcileStatus(now time.Time) bool {
	prev := b.Status

	switch {
	case b.Status == BudgetStatusPaused:
		// sticky until the user resumes
	case b.UtilizationPercent().GreaterThanOrEqual(oneHundred):
		b.Status = BudgetStatusExceeded
	case now.After(b.EndDate):
		b.Status = BudgetStatusCompleted
	case b.Status == BudgetStatusExceeded:
		// utilization dropped back below 100%, e.g. after an edit
		b.Status = BudgetStatusActive
	case b.Status == BudgetStatusCompleted:
		// dates moved forward (renewal or edit)
		b.Status = BudgetStatusActive
	}

	return b.Status != prev
}

// NeedsAlert returns the highest-severity enabled threshold crossed by the
// current utilization. Critical takes priority over warning.
func (b *Budget) NeedsAlert() AlertLevel {
	utilization := b.UtilizationPercent()

	if b.Alerts.Critical.Enabled && utilization.GreaterThanOrEqual(b.Alerts.Critical.Percent) {
		return AlertLevelCritical
	}
	if b.Alerts.Warning.Enabled && utilization.GreaterThanOrEqual(b.Alerts.Warning.Percent) {
		return AlertLevelWarning
	}
	return AlertLevelNone
}

// MatchesTransaction reports whether a transaction falls inside this budget's
// category filter and date range. A transaction belongs to at most one budget
// at a time; the service resolves conflicts by first match.
func (b *Budget) MatchesTransaction(category string, date time.Time) bool {
	if date.Before(b.StartDate) || date.After(b.EndDate) {
		return false
	}
	for _, c := range b.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// BudgetRepository persists budgets. ApplyTransaction MUST be implemented as
// an atomic increment against the stored counters (never read-modify-write of
// the whole record) so that concurrent transactions cannot lose updates.
type BudgetRepository interface {
	Create(budget *Budget) (*Budget, error)
	GetByID(userID uuid.UUID, id int32) (*Budget, error)
	GetAllByUser(userID uuid.UUID) ([]*Budget, error)
	Update(budget *Budget) (*Budget, error)
	Delete(userID uuid.UUID, id int32) error

	// ApplyTransaction atomically adds amountDelta to spent and countDelta to
	// transactionCount, optionally stamping lastTransactionDate, and returns
	// the budget as stored after the increment.
	ApplyTransaction(userID uuid.UUID, id int32, amountDelta decimal.Decimal, countDelta int32, at *time.Time) (*Budget, error)

	// UpdateStatus persists only the cached status field
	UpdateStatus(userID uuid.UUID, id int32, status BudgetStatus) error

	AppendHistory(userID uuid.UUID, budgetID int32, snapshot *PeriodSnapshot) error
	GetHistory(userID uuid.UUID, budgetID int32) ([]*PeriodSnapshot, error)

	// FindOverlapping returns an active or paused budget for the same user
	// sharing at least one category with an overlapping date range, or nil
	FindOverlapping(userID uuid.UUID, categories []string, start, end time.Time, excludeID int32) (*Budget, error)
}
