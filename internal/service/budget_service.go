package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BudgetService owns the budget period lifecycle: creation and edits,
// transaction attribution through the repository's atomic counters, alert
// evaluation, and period renewal with rollover
type BudgetService struct {
	budgetRepo domain.BudgetRepository
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(budgetRepo domain.BudgetRepository) *BudgetService {
	return &BudgetService{budgetRepo: budgetRepo}
}

// CreateBudgetInput holds the input for creating a budget
type CreateBudgetInput struct {
	Name       string
	Amount     decimal.Decimal
	Period     domain.BudgetPeriod
	Type       domain.BudgetType
	Categories []string
	StartDate  time.Time
	EndDate    time.Time
	Alerts     domain.AlertThresholds
	Rollover   domain.RolloverPolicy
	AutoRenew  domain.AutoRenewPolicy
}

// CreateBudget validates and creates a budget. An active or paused budget
// already covering one of the categories in an overlapping date range is
// rejected so the same transactions cannot be counted into two budgets.
func (s *BudgetService) CreateBudget(userID uuid.UUID, input CreateBudgetInput) (*domain.Budget, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxBudgetNameLength {
		return nil, domain.ErrNameTooLong
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if !input.Period.Valid() {
		return nil, domain.ErrInvalidBudgetPeriod
	}
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidBudgetType
	}

	categories := normalizeCategories(input.Categories)
	if len(categories) == 0 {
		return nil, domain.ErrCategoryRequired
	}

	if !input.EndDate.After(input.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}

	overlap, err := s.budgetRepo.FindOverlapping(userID, categories, input.StartDate, input.EndDate, 0)
	if err != nil {
		return nil, err
	}
	if overlap != nil {
		return nil, domain.ErrOverlappingBudget
	}

	budget := &domain.Budget{
		UserID:     userID,
		Name:       name,
		Amount:     input.Amount,
		Period:     input.Period,
		Type:       input.Type,
		Categories: categories,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Status:     domain.BudgetStatusActive,
		Current: domain.CurrentPeriod{
			Spent:          decimal.Zero,
			RolloverAmount: decimal.Zero,
		},
		Alerts:    input.Alerts,
		Rollover:  input.Rollover,
		AutoRenew: input.AutoRenew,
	}

	return s.budgetRepo.Create(budget)
}

// GetBudget loads a budget and re-derives its status against the current
// wall clock before returning it. The stored status is a cache and is never
// trusted without recomputation.
func (s *BudgetService) GetBudget(userID uuid.UUID, id int32) (*domain.Budget, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	s.reconcile(budget, time.Now())
	return budget, nil
}

// ListBudgets returns all budgets for a user with statuses re-derived
func (s *BudgetService) ListBudgets(userID uuid.UUID) ([]*domain.Budget, error) {
	budgets, err := s.budgetRepo.GetAllByUser(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, budget := range budgets {
		s.reconcile(budget, now)
	}
	return budgets, nil
}

// UpdateBudgetInput holds optional budget edits; nil fields are left unchanged
type UpdateBudgetInput struct {
	Name       *string
	Amount     *decimal.Decimal
	Categories []string
	StartDate  *time.Time
	EndDate    *time.Time
	// Status may only be set to active or paused; completed and exceeded are
	// derived states
	Status    *domain.BudgetStatus
	Alerts    *domain.AlertThresholds
	Rollover  *domain.RolloverPolicy
	AutoRenew *domain.AutoRenewPolicy
}

// UpdateBudget applies edits and re-derives status before saving
func (s *BudgetService) UpdateBudget(userID uuid.UUID, id int32, input UpdateBudgetInput) (*domain.Budget, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxBudgetNameLength {
			return nil, domain.ErrNameTooLong
		}
		budget.Name = name
	}
	if input.Amount != nil {
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidAmount
		}
		budget.Amount = *input.Amount
	}
	if input.Categories != nil {
		categories := normalizeCategories(input.Categories)
		if len(categories) == 0 {
			return nil, domain.ErrCategoryRequired
		}
		budget.Categories = categories
	}
	if input.StartDate != nil {
		budget.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		budget.EndDate = *input.EndDate
	}
	if !budget.EndDate.After(budget.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}
	if input.Status != nil {
		if *input.Status != domain.BudgetStatusActive && *input.Status != domain.BudgetStatusPaused {
			return nil, domain.ErrInvalidInput
		}
		budget.Status = *input.Status
	}
	if input.Alerts != nil {
		budget.Alerts = *input.Alerts
	}
	if input.Rollover != nil {
		budget.Rollover = *input.Rollover
	}
	if input.AutoRenew != nil {
		budget.AutoRenew = *input.AutoRenew
	}

	if input.Categories != nil || input.StartDate != nil || input.EndDate != nil {
		overlap, err := s.budgetRepo.FindOverlapping(userID, budget.Categories, budget.StartDate, budget.EndDate, budget.ID)
		if err != nil {
			return nil, err
		}
		if overlap != nil {
			return nil, domain.ErrOverlappingBudget
		}
	}

	budget.ReconcileStatus(time.Now())
	return s.budgetRepo.Update(budget)
}

// DeleteBudget removes the budget record. No cascading side effects:
// transactions remain untouched.
func (s *BudgetService) DeleteBudget(userID uuid.UUID, id int32) error {
	_, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return err
	}
	return s.budgetRepo.Delete(userID, id)
}

// GetHistory returns the archived period snapshots for a budget
func (s *BudgetService) GetHistory(userID uuid.UUID, id int32) ([]*domain.PeriodSnapshot, error) {
	if _, err := s.budgetRepo.GetByID(userID, id); err != nil {
		return nil, err
	}
	return s.budgetRepo.GetHistory(userID, id)
}

// TransactionAttribution identifies a transaction's contribution to a budget
type TransactionAttribution struct {
	Category string
	Date     time.Time
	Amount   decimal.Decimal
	Type     domain.TransactionType
}

// ApplyTransaction routes a transaction into the first budget whose category
// filter and date range match, incrementing the stored counters atomically.
// Returns the updated budget (nil when no budget matches) together with the
// alert level before and after the increment so callers can detect newly
// crossed thresholds.
func (s *BudgetService) ApplyTransaction(userID uuid.UUID, attr TransactionAttribution) (*domain.Budget, domain.AlertLevel, domain.AlertLevel, error) {
	budget, err := s.findMatchingBudget(userID, attr)
	if err != nil || budget == nil {
		return nil, domain.AlertLevelNone, domain.AlertLevelNone, err
	}

	now := time.Now()
	updated, err := s.budgetRepo.ApplyTransaction(userID, budget.ID, attr.Amount, 1, &now)
	if err != nil {
		return nil, domain.AlertLevelNone, domain.AlertLevelNone, err
	}

	// Reconstruct the pre-increment state from the stored counters so the
	// before/after comparison is exact even under concurrent writers
	prior := *updated
	prior.Current.Spent = updated.Current.Spent.Sub(attr.Amount)
	prevLevel := prior.NeedsAlert()

	s.reconcile(updated, now)

	return updated, prevLevel, updated.NeedsAlert(), nil
}

// RemoveTransaction reverses a transaction's contribution with an atomic
// decrement. Returns nil when no budget matches.
func (s *BudgetService) RemoveTransaction(userID uuid.UUID, attr TransactionAttribution) (*domain.Budget, error) {
	budget, err := s.findMatchingBudget(userID, attr)
	if err != nil || budget == nil {
		return nil, err
	}

	updated, err := s.budgetRepo.ApplyTransaction(userID, budget.ID, attr.Amount.Neg(), -1, nil)
	if err != nil {
		return nil, err
	}

	s.reconcile(updated, time.Now())
	return updated, nil
}

// ReassignTransaction re-attributes an edited transaction: its contribution
// is removed from the budget it previously matched and, when the new
// category/date/amount matches a budget, added there. A transaction belongs
// to at most one budget at a time.
func (s *BudgetService) ReassignTransaction(userID uuid.UUID, previous, updated TransactionAttribution) (*domain.Budget, domain.AlertLevel, domain.AlertLevel, error) {
	if _, err := s.RemoveTransaction(userID, previous); err != nil {
		return nil, domain.AlertLevelNone, domain.AlertLevelNone, err
	}
	return s.ApplyTransaction(userID, updated)
}

// RenewForNextPeriod archives the closing period into history and resets the
// budget for the next fixed-length period. It fails as a no-op when
// auto-renewal is disabled or the budget has not reached completed status.
func (s *BudgetService) RenewForNextPeriod(userID uuid.UUID, id int32) (*domain.Budget, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if !budget.AutoRenew.Enabled {
		return nil, domain.ErrAutoRenewalDisabled
	}

	now := time.Now()
	s.reconcile(budget, now)
	if budget.Status != domain.BudgetStatusCompleted {
		return nil, domain.ErrBudgetNotCompleted
	}

	variance := budget.Amount.Sub(budget.Current.Spent)
	snapshot := &domain.PeriodSnapshot{
		BudgetID:         budget.ID,
		Label:            fmt.Sprintf("%s to %s", budget.StartDate.Format("2006-01-02"), budget.EndDate.Format("2006-01-02")),
		BudgetAmount:     budget.Amount,
		ActualSpent:      budget.Current.Spent,
		Variance:         variance,
		VariancePercent:  variance.Div(budget.Amount).Mul(oneHundredDec),
		TransactionCount: budget.Current.TransactionCount,
		StartDate:        budget.StartDate,
		EndDate:          budget.EndDate,
	}
	if err := s.budgetRepo.AppendHistory(userID, budget.ID, snapshot); err != nil {
		return nil, err
	}

	rollover := s.carriedRollover(budget)

	// Fixed-length period advance: weekly=7d, monthly=30d, quarterly=90d,
	// yearly=365d. Not calendar-month-aware.
	days := budget.Period.Days()
	budget.StartDate = budget.StartDate.AddDate(0, 0, days)
	budget.EndDate = budget.EndDate.AddDate(0, 0, days)

	if budget.AutoRenew.AdjustAmount && !budget.AutoRenew.AdjustmentPercent.IsZero() {
		adjustment := budget.Amount.Mul(budget.AutoRenew.AdjustmentPercent).Div(oneHundredDec)
		budget.Amount = budget.Amount.Add(adjustment)
	}

	budget.Current = domain.CurrentPeriod{
		Spent:          decimal.Zero,
		RolloverAmount: rollover,
	}
	budget.Status = domain.BudgetStatusActive

	return s.budgetRepo.Update(budget)
}

var oneHundredDec = decimal.NewFromInt(100)

// carriedRollover computes the unused amount carried into the next period:
// zero when rollover is disabled or the closing period was exceeded, capped
// at the configured maximum when one is set
func (s *BudgetService) carriedRollover(budget *domain.Budget) decimal.Decimal {
	if !budget.Rollover.Enabled || !budget.Rollover.CarryOverUnused {
		return decimal.Zero
	}
	if budget.Current.Spent.GreaterThanOrEqual(budget.Amount) {
		return decimal.Zero
	}

	unused := budget.RemainingAmount()
	if budget.Rollover.MaxAmount != nil && unused.GreaterThan(*budget.Rollover.MaxAmount) {
		unused = *budget.Rollover.MaxAmount
	}
	return unused
}

// findMatchingBudget returns the first budget (lowest ID) whose type accepts
// the transaction type and whose category filter and date range match
func (s *BudgetService) findMatchingBudget(userID uuid.UUID, attr TransactionAttribution) (*domain.Budget, error) {
	budgets, err := s.budgetRepo.GetAllByUser(userID)
	if err != nil {
		return nil, err
	}
	for _, budget := range budgets {
		if budgetAcceptsType(budget.Type, attr.Type) && budget.MatchesTransaction(attr.Category, attr.Date) {
			return budget, nil
		}
	}
	return nil, nil
}

// budgetAcceptsType maps transaction types onto budget types: expense budgets
// track expense transactions, income and savings budgets track income
func budgetAcceptsType(budgetType domain.BudgetType, txType domain.TransactionType) bool {
	switch budgetType {
	case domain.BudgetTypeExpense:
		return txType == domain.TransactionTypeExpense
	case domain.BudgetTypeIncome, domain.BudgetTypeSavings:
		return txType == domain.TransactionTypeIncome
	}
	return false
}

// reconcile re-derives the status and persists it as a cache when it changed
func (s *BudgetService) reconcile(budget *domain.Budget, now time.Time) {
	if budget.ReconcileStatus(now) {
		if err := s.budgetRepo.UpdateStatus(budget.UserID, budget.ID, budget.Status); err != nil {
			log.Warn().Err(err).Int32("budget_id", budget.ID).Msg("Failed to persist derived budget status")
		}
	}
}

func normalizeCategories(categories []string) []string {
	result := make([]string, 0, len(categories))
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		result = append(result, c)
	}
	return result
}
