package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, user_id, name, amount, transaction_type,
	category, transaction_date, notes, created_at, updated_at`

func scanTransaction(row budgetScanner) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		amount pgtype.Numeric
	)

	err := row.Scan(&t.ID, &t.UserID, &t.Name, &amount, &t.Type, &t.Category,
		&t.TransactionDate, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if t.Amount, err = numericToDecimal(amount); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new transaction
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (
			user_id, name, amount, transaction_type, category,
			transaction_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+transactionColumns,
		transaction.UserID, transaction.Name,
		decimalToNumeric(transaction.Amount), transaction.Type,
		transaction.Category, transaction.TransactionDate, transaction.Notes)

	return scanTransaction(row)
}

// GetByID retrieves a transaction by ID scoped to its owner
func (r *TransactionRepository) GetByID(userID uuid.UUID, id int32) (*domain.Transaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 AND id = $2`,
		userID, id)

	transaction, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	return transaction, err
}

// GetAllByUser retrieves the user's transactions, optionally filtered,
// ordered by date then ID
func (r *TransactionRepository) GetAllByUser(userID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.Transaction, error) {
	ctx := context.Background()

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{userID}

	if filters != nil {
		if filters.Category != nil {
			args = append(args, *filters.Category)
			query += fmt.Sprintf(" AND category = $%d", len(args))
		}
		if filters.Type != nil {
			args = append(args, *filters.Type)
			query += fmt.Sprintf(" AND transaction_type = $%d", len(args))
		}
		if filters.StartDate != nil {
			args = append(args, *filters.StartDate)
			query += fmt.Sprintf(" AND transaction_date >= $%d", len(args))
		}
		if filters.EndDate != nil {
			args = append(args, *filters.EndDate)
			query += fmt.Sprintf(" AND transaction_date <= $%d", len(args))
		}
	}
	query += " ORDER BY transaction_date, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}

// Update replaces the transaction's mutable fields
func (r *TransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		UPDATE transactions SET
			name = $3, amount = $4, transaction_type = $5, category = $6,
			transaction_date = $7, notes = $8, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+transactionColumns,
		transaction.UserID, transaction.ID, transaction.Name,
		decimalToNumeric(transaction.Amount), transaction.Type,
		transaction.Category, transaction.TransactionDate, transaction.Notes)

	updated, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	return updated, err
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(userID uuid.UUID, id int32) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// CountByUser returns the total number of transactions for a user
func (r *TransactionRepository) CountByUser(userID uuid.UUID) (int64, error) {
	ctx := context.Background()

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}
