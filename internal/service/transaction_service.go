package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// AlertPublisher notifies connected clients when a budget crosses an alert
// threshold. Implemented by the websocket package; a no-op works for tests.
type AlertPublisher interface {
	PublishBudgetAlert(userID uuid.UUID, budget *domain.Budget, level domain.AlertLevel)
}

// NoOpAlertPublisher discards alerts
type NoOpAlertPublisher struct{}

// PublishBudgetAlert does nothing
func (NoOpAlertPublisher) PublishBudgetAlert(uuid.UUID, *domain.Budget, domain.AlertLevel) {}

// TransactionService handles transaction CRUD and routes every mutation's
// delta into the matching budget through the atomic counter contract
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	budgetService   *BudgetService
	publisher       AlertPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, budgetService *BudgetService, publisher AlertPublisher) *TransactionService {
	if publisher == nil {
		publisher = NoOpAlertPublisher{}
	}
	return &TransactionService{
		transactionRepo: transactionRepo,
		budgetService:   budgetService,
		publisher:       publisher,
	}
}

// CreateTransactionInput holds the input for creating a transaction
type CreateTransactionInput struct {
	Name            string
	Amount          decimal.Decimal
	Type            domain.TransactionType
	Category        string
	TransactionDate *time.Time
	Notes           *string
}

// CreateTransaction creates a transaction and applies it to the matching
// budget, publishing an alert event when a threshold is newly crossed
func (s *TransactionService) CreateTransaction(userID uuid.UUID, input CreateTransactionInput) (*domain.Transaction, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxTransactionNameLength {
		return nil, domain.ErrNameTooLong
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if input.Type != domain.TransactionTypeIncome && input.Type != domain.TransactionTypeExpense {
		return nil, domain.ErrInvalidTransactionType
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, domain.ErrCategoryRequired
	}

	transactionDate := time.Now().UTC().Truncate(24 * time.Hour)
	if input.TransactionDate != nil {
		transactionDate = *input.TransactionDate
	}

	transaction := &domain.Transaction{
		UserID:          userID,
		Name:            name,
		Amount:          input.Amount,
		Type:            input.Type,
		Category:        category,
		TransactionDate: transactionDate,
		Notes:           input.Notes,
	}

	created, err := s.transactionRepo.Create(transaction)
	if err != nil {
		return nil, err
	}

	budget, prevLevel, newLevel, err := s.budgetService.ApplyTransaction(userID, attributionOf(created))
	if err != nil {
		return nil, err
	}
	s.publishIfRisen(userID, budget, prevLevel, newLevel)

	return created, nil
}

// UpdateTransactionInput holds optional transaction edits
type UpdateTransactionInput struct {
	Name            *string
	Amount          *decimal.Decimal
	Type            *domain.TransactionType
	Category        *string
	TransactionDate *time.Time
	Notes           *string
}

// UpdateTransaction edits a transaction and re-attributes its contribution:
// the previous amount is removed from the budget it matched and the new
// amount applied to whichever budget now matches
func (s *TransactionService) UpdateTransaction(userID uuid.UUID, id int32, input UpdateTransactionInput) (*domain.Transaction, error) {
	existing, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	previous := attributionOf(existing)

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxTransactionNameLength {
			return nil, domain.ErrNameTooLong
		}
		existing.Name = name
	}
	if input.Amount != nil {
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidAmount
		}
		existing.Amount = *input.Amount
	}
	if input.Type != nil {
		if *input.Type != domain.TransactionTypeIncome && *input.Type != domain.TransactionTypeExpense {
			return nil, domain.ErrInvalidTransactionType
		}
		existing.Type = *input.Type
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, domain.ErrCategoryRequired
		}
		existing.Category = category
	}
	if input.TransactionDate != nil {
		existing.TransactionDate = *input.TransactionDate
	}
	if input.Notes != nil {
		existing.Notes = input.Notes
	}

	updated, err := s.transactionRepo.Update(existing)
	if err != nil {
		return nil, err
	}

	budget, prevLevel, newLevel, err := s.budgetService.ReassignTransaction(userID, previous, attributionOf(updated))
	if err != nil {
		return nil, err
	}
	s.publishIfRisen(userID, budget, prevLevel, newLevel)

	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its budget contribution
func (s *TransactionService) DeleteTransaction(userID uuid.UUID, id int32) error {
	existing, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.transactionRepo.Delete(userID, id); err != nil {
		return err
	}

	_, err = s.budgetService.RemoveTransaction(userID, attributionOf(existing))
	return err
}

// GetTransactions retrieves transactions for a user with optional filters
func (s *TransactionService) GetTransactions(userID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.Transaction, error) {
	return s.transactionRepo.GetAllByUser(userID, filters)
}

func attributionOf(tx *domain.Transaction) TransactionAttribution {
	return TransactionAttribution{
		Category: tx.Category,
		Date:     tx.TransactionDate,
		Amount:   tx.Amount,
		Type:     tx.Type,
	}
}

func (s *TransactionService) publishIfRisen(userID uuid.UUID, budget *domain.Budget, prev, next domain.AlertLevel) {
	if budget == nil || alertRank(next) <= alertRank(prev) {
		return
	}
	s.publisher.PublishBudgetAlert(userID, budget, next)
}

func alertRank(level domain.AlertLevel) int {
	switch level {
	case domain.AlertLevelCritical:
		return 2
	case domain.AlertLevelWarning:
		return 1
	}
	return 0
}
