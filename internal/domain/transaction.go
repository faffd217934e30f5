package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction is a single dated ledger entry. Amount is always a positive
// magnitude; the sign is implied by Type.
type Transaction struct {
	ID              int32           `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	Type            TransactionType `json:"type"`
	Category        string          `json:"category"`
	TransactionDate time.Time       `json:"transactionDate"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type TransactionFilters struct {
	Category  *string
	StartDate *time.Time
	EndDate   *time.Time
	Type      *TransactionType
}

type TransactionRepository interface {
	Create(transaction *Transaction) (*Transaction, error)
	GetByID(userID uuid.UUID, id int32) (*Transaction, error)
	GetAllByUser(userID uuid.UUID, filters *TransactionFilters) ([]*Transaction, error)
	Update(transaction *Transaction) (*Transaction, error)
	Delete(userID uuid.UUID, id int32) error
	CountByUser(userID uuid.UUID) (int64, error)
}
