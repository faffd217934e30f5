package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// BudgetRepository implements domain.BudgetRepository using PostgreSQL.
// ApplyTransaction issues a single UPDATE with in-place increments so that
// concurrent transactions against the same budget can never lose an update.
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

const budgetColumns = `id, user_id, name, amount, period, budget_type, categories,
	start_date, end_date, spent, transaction_count, last_transaction_date,
	rollover_amount, status, warning_enabled, warning_percent, critical_enabled,
	critical_percent, rollover_enabled, carry_over_unused, max_rollover_amount,
	auto_renew_enabled, adjust_amount, adjustment_percent, created_at, updated_at`

type budgetScanner interface {
	Scan(dest ...any) error
}

func scanBudget(row budgetScanner) (*domain.Budget, error) {
	var (
		b                                               domain.Budget
		amount, spent, rollover                         pgtype.Numeric
		warningPct, criticalPct, maxRollover, adjustPct pgtype.Numeric
	)

	err := row.Scan(
		&b.ID, &b.UserID, &b.Name, &amount, &b.Period, &b.Type, &b.Categories,
		&b.StartDate, &b.EndDate, &spent, &b.Current.TransactionCount,
		&b.Current.LastTransactionDate, &rollover, &b.Status,
		&b.Alerts.Warning.Enabled, &warningPct, &b.Alerts.Critical.Enabled,
		&criticalPct, &b.Rollover.Enabled, &b.Rollover.CarryOverUnused,
		&maxRollover, &b.AutoRenew.Enabled, &b.AutoRenew.AdjustAmount,
		&adjustPct, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if b.Amount, err = numericToDecimal(amount); err != nil {
		return nil, err
	}
	if b.Current.Spent, err = numericToDecimal(spent); err != nil {
		return nil, err
	}
	if b.Current.RolloverAmount, err = numericToDecimal(rollover); err != nil {
		return nil, err
	}
	if b.Alerts.Warning.Percent, err = numericToDecimal(warningPct); err != nil {
		return nil, err
	}
	if b.Alerts.Critical.Percent, err = numericToDecimal(criticalPct); err != nil {
		return nil, err
	}
	if b.Rollover.MaxAmount, err = numericToDecimalPtr(maxRollover); err != nil {
		return nil, err
	}
	if b.AutoRenew.AdjustmentPercent, err = numericToDecimal(adjustPct); err != nil {
		return nil, err
	}

	return &b, nil
}

// Create inserts a new budget
func (r *BudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO budgets (
			user_id, name, amount, period, budget_type, categories,
			start_date, end_date, spent, transaction_count, rollover_amount,
			status, warning_enabled, warning_percent, critical_enabled,
			critical_percent, rollover_enabled, carry_over_unused,
			max_rollover_amount, auto_renew_enabled, adjust_amount,
			adjustment_percent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, 0, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19)
		RETURNING `+budgetColumns,
		budget.UserID, budget.Name, decimalToNumeric(budget.Amount),
		budget.Period, budget.Type, budget.Categories,
		budget.StartDate, budget.EndDate, budget.Status,
		budget.Alerts.Warning.Enabled, decimalToNumeric(budget.Alerts.Warning.Percent),
		budget.Alerts.Critical.Enabled, decimalToNumeric(budget.Alerts.Critical.Percent),
		budget.Rollover.Enabled, budget.Rollover.CarryOverUnused,
		decimalPtrToNumeric(budget.Rollover.MaxAmount),
		budget.AutoRenew.Enabled, budget.AutoRenew.AdjustAmount,
		decimalToNumeric(budget.AutoRenew.AdjustmentPercent),
	)

	return scanBudget(row)
}

// GetByID retrieves a budget by ID scoped to its owner
func (r *BudgetRepository) GetByID(userID uuid.UUID, id int32) (*domain.Budget, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND id = $2`,
		userID, id)

	budget, err := scanBudget(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBudgetNotFound
	}
	return budget, err
}

// GetAllByUser retrieves all budgets for a user ordered by ID
func (r *BudgetRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Budget, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := make([]*domain.Budget, 0)
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

// Update replaces the budget's definition and policy fields
func (r *BudgetRepository) Update(budget *domain.Budget) (*domain.Budget, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE budgets SET
			name = $3, amount = $4, period = $5, budget_type = $6,
			categories = $7, start_date = $8, end_date = $9, spent = $10,
			transaction_count = $11, last_transaction_date = $12,
			rollover_amount = $13, status = $14, warning_enabled = $15,
			warning_percent = $16, critical_enabled = $17,
			critical_percent = $18, rollover_enabled = $19,
			carry_over_unused = $20, max_rollover_amount = $21,
			auto_renew_enabled = $22, adjust_amount = $23,
			adjustment_percent = $24, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+budgetColumns,
		budget.UserID, budget.ID, budget.Name, decimalToNumeric(budget.Amount),
		budget.Period, budget.Type, budget.Categories, budget.StartDate,
		budget.EndDate, decimalToNumeric(budget.Current.Spent),
		budget.Current.TransactionCount, budget.Current.LastTransactionDate,
		decimalToNumeric(budget.Current.RolloverAmount), budget.Status,
		budget.Alerts.Warning.Enabled, decimalToNumeric(budget.Alerts.Warning.Percent),
		budget.Alerts.Critical.Enabled, decimalToNumeric(budget.Alerts.Critical.Percent),
		budget.Rollover.Enabled, budget.Rollover.CarryOverUnused,
		decimalPtrToNumeric(budget.Rollover.MaxAmount),
		budget.AutoRenew.Enabled, budget.AutoRenew.AdjustAmount,
		decimalToNumeric(budget.AutoRenew.AdjustmentPercent),
	)

	updated, err := scanBudget(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBudgetNotFound
	}
	return updated, err
}

// Delete removes a budget and its history
func (r *BudgetRepository) Delete(userID uuid.UUID, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM budgets WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}

// ApplyTransaction atomically increments the current-period counters in a
// single UPDATE, never a read-then-write of the whole record
func (r *BudgetRepository) ApplyTransaction(userID uuid.UUID, id int32, amountDelta decimal.Decimal, countDelta int32, at *time.Time) (*domain.Budget, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE budgets SET
			spent = spent + $3,
			transaction_count = transaction_count + $4,
			last_transaction_date = COALESCE($5, last_transaction_date),
			updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+budgetColumns,
		userID, id, decimalToNumeric(amountDelta), countDelta, at)

	budget, err := scanBudget(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBudgetNotFound
	}
	return budget, err
}

// UpdateStatus persists only the cached status field
func (r *BudgetRepository) UpdateStatus(userID uuid.UUID, id int32, status domain.BudgetStatus) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx,
		`UPDATE budgets SET status = $3, updated_at = now() WHERE user_id = $1 AND id = $2`,
		userID, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}

// AppendHistory archives a closed period snapshot
func (r *BudgetRepository) AppendHistory(userID uuid.UUID, budgetID int32, snapshot *domain.PeriodSnapshot) error {
	ctx := context.Background()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO budget_history (
			budget_id, user_id, label, budget_amount, actual_spent, variance,
			variance_percent, transaction_count, start_date, end_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		budgetID, userID, snapshot.Label,
		decimalToNumeric(snapshot.BudgetAmount),
		decimalToNumeric(snapshot.ActualSpent),
		decimalToNumeric(snapshot.Variance),
		decimalToNumeric(snapshot.VariancePercent),
		snapshot.TransactionCount, snapshot.StartDate, snapshot.EndDate)
	return err
}

// GetHistory returns archived snapshots, oldest first
func (r *BudgetRepository) GetHistory(userID uuid.UUID, budgetID int32) ([]*domain.PeriodSnapshot, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT id, budget_id, label, budget_amount, actual_spent, variance,
			variance_percent, transaction_count, start_date, end_date, created_at
		FROM budget_history
		WHERE user_id = $1 AND budget_id = $2
		ORDER BY start_date`,
		userID, budgetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]*domain.PeriodSnapshot, 0)
	for rows.Next() {
		var (
			s                               domain.PeriodSnapshot
			amount, spent, variance, varPct pgtype.Numeric
		)
		err := rows.Scan(&s.ID, &s.BudgetID, &s.Label, &amount, &spent,
			&variance, &varPct, &s.TransactionCount, &s.StartDate, &s.EndDate,
			&s.CreatedAt)
		if err != nil {
			return nil, err
		}
		if s.BudgetAmount, err = numericToDecimal(amount); err != nil {
			return nil, err
		}
		if s.ActualSpent, err = numericToDecimal(spent); err != nil {
			return nil, err
		}
		if s.Variance, err = numericToDecimal(variance); err != nil {
			return nil, err
		}
		if s.VariancePercent, err = numericToDecimal(varPct); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}

// FindOverlapping returns an active or paused budget for the user sharing at
// least one category with an overlapping date range, or nil when none exists
func (r *BudgetRepository) FindOverlapping(userID uuid.UUID, categories []string, start, end time.Time, excludeID int32) (*domain.Budget, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = $1 AND id <> $2
		  AND status IN ('active', 'paused')
		  AND start_date <= $4 AND end_date >= $3
		  AND categories && $5
		ORDER BY id
		LIMIT 1`,
		userID, excludeID, start, end, categories)

	budget, err := scanBudget(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return budget, err
}
