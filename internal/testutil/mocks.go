package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	ByID      map[uuid.UUID]*domain.User
	ByAuth0ID map[string]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		ByID:      make(map[uuid.UUID]*domain.User),
		ByAuth0ID: make(map[string]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.ByAuth0ID[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name *string) (*domain.User, error) {
	if user, ok := m.ByAuth0ID[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:      uuid.New(),
		Auth0ID: auth0ID,
		Email:   email,
		Name:    name,
	}
	m.ByID[user.ID] = user
	m.ByAuth0ID[auth0ID] = user
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.ByID[user.ID] = user
	m.ByAuth0ID[user.Auth0ID] = user
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	NextID       int32
	GetAllFn     func(userID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.Transaction, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		NextID:       1,
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(tx *domain.Transaction) (*domain.Transaction, error) {
	tx.ID = m.NextID
	m.NextID++
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	m.Transactions[tx.ID] = tx
	return tx, nil
}

// GetByID retrieves a transaction by ID
func (m *MockTransactionRepository) GetByID(userID uuid.UUID, id int32) (*domain.Transaction, error) {
	if tx, ok := m.Transactions[id]; ok && tx.UserID == userID {
		return tx, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// GetAllByUser retrieves transactions for a user with optional filters,
// ordered by transaction date then ID
func (m *MockTransactionRepository) GetAllByUser(userID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.Transaction, error) {
	if m.GetAllFn != nil {
		return m.GetAllFn(userID, filters)
	}

	result := make([]*domain.Transaction, 0)
	for _, tx := range m.Transactions {
		if tx.UserID != userID {
			continue
		}
		if filters != nil {
			if filters.Category != nil && tx.Category != *filters.Category {
				continue
			}
			if filters.Type != nil && tx.Type != *filters.Type {
				continue
			}
			if filters.StartDate != nil && tx.TransactionDate.Before(*filters.StartDate) {
				continue
			}
			if filters.EndDate != nil && tx.TransactionDate.After(*filters.EndDate) {
				continue
			}
		}
		result = append(result, tx)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TransactionDate.Equal(result[j].TransactionDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].TransactionDate.Before(result[j].TransactionDate)
	})
	return result, nil
}

// Update updates an existing transaction
func (m *MockTransactionRepository) Update(tx *domain.Transaction) (*domain.Transaction, error) {
	existing, ok := m.Transactions[tx.ID]
	if !ok || existing.UserID != tx.UserID {
		return nil, domain.ErrTransactionNotFound
	}
	tx.UpdatedAt = time.Now()
	m.Transactions[tx.ID] = tx
	return tx, nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(userID uuid.UUID, id int32) error {
	if tx, ok := m.Transactions[id]; ok && tx.UserID == userID {
		delete(m.Transactions, id)
		return nil
	}
	return domain.ErrTransactionNotFound
}

// CountByUser counts transactions for a user
func (m *MockTransactionRepository) CountByUser(userID uuid.UUID) (int64, error) {
	var count int64
	for _, tx := range m.Transactions {
		if tx.UserID == userID {
			count++
		}
	}
	return count, nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(tx *domain.Transaction) {
	if tx.ID == 0 {
		tx.ID = m.NextID
		m.NextID++
	} else if tx.ID >= m.NextID {
		m.NextID = tx.ID + 1
	}
	m.Transactions[tx.ID] = tx
}

// MockBudgetRepository is a mock implementation of domain.BudgetRepository.
// ApplyTransaction holds a mutex across the whole increment so the mock
// honors the atomic counter contract under concurrent callers.
type MockBudgetRepository struct {
	mu      sync.Mutex
	Budgets map[int32]*domain.Budget
	History map[int32][]*domain.PeriodSnapshot
	NextID  int32
}

// NewMockBudgetRepository creates a new MockBudgetRepository
func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		Budgets: make(map[int32]*domain.Budget),
		History: make(map[int32][]*domain.PeriodSnapshot),
		NextID:  1,
	}
}

// Create creates a new budget
func (m *MockBudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	budget.ID = m.NextID
	m.NextID++
	budget.CreatedAt = time.Now()
	budget.UpdatedAt = budget.CreatedAt
	m.Budgets[budget.ID] = budget
	return budget, nil
}

// GetByID retrieves a budget by ID, returning a copy so callers cannot mutate
// stored state without saving
func (m *MockBudgetRepository) GetByID(userID uuid.UUID, id int32) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if budget, ok := m.Budgets[id]; ok && budget.UserID == userID {
		copied := *budget
		return &copied, nil
	}
	return nil, domain.ErrBudgetNotFound
}

// GetAllByUser retrieves all budgets for a user ordered by ID
func (m *MockBudgetRepository) GetAllByUser(userID uuid.UUID) ([]*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*domain.Budget, 0)
	for _, budget := range m.Budgets {
		if budget.UserID == userID {
			copied := *budget
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update replaces a stored budget
func (m *MockBudgetRepository) Update(budget *domain.Budget) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.Budgets[budget.ID]
	if !ok || existing.UserID != budget.UserID {
		return nil, domain.ErrBudgetNotFound
	}
	budget.UpdatedAt = time.Now()
	copied := *budget
	m.Budgets[budget.ID] = &copied
	return budget, nil
}

// Delete removes a budget
func (m *MockBudgetRepository) Delete(userID uuid.UUID, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if budget, ok := m.Budgets[id]; ok && budget.UserID == userID {
		delete(m.Budgets, id)
		delete(m.History, id)
		return nil
	}
	return domain.ErrBudgetNotFound
}

// ApplyTransaction atomically adjusts the stored counters
func (m *MockBudgetRepository) ApplyTransaction(userID uuid.UUID, id int32, amountDelta decimal.Decimal, countDelta int32, at *time.Time) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	budget, ok := m.Budgets[id]
	if !ok || budget.UserID != userID {
		return nil, domain.ErrBudgetNotFound
	}

	budget.Current.Spent = budget.Current.Spent.Add(amountDelta)
	budget.Current.TransactionCount += countDelta
	if at != nil {
		stamped := *at
		budget.Current.LastTransactionDate = &stamped
	}
	budget.UpdatedAt = time.Now()

	copied := *budget
	return &copied, nil
}

// UpdateStatus persists only the status field
func (m *MockBudgetRepository) UpdateStatus(userID uuid.UUID, id int32, status domain.BudgetStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	budget, ok := m.Budgets[id]
	if !ok || budget.UserID != userID {
		return domain.ErrBudgetNotFound
	}
	budget.Status = status
	return nil
}

// AppendHistory archives a period snapshot
func (m *MockBudgetRepository) AppendHistory(userID uuid.UUID, budgetID int32, snapshot *domain.PeriodSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	budget, ok := m.Budgets[budgetID]
	if !ok || budget.UserID != userID {
		return domain.ErrBudgetNotFound
	}
	snapshot.ID = int32(len(m.History[budgetID]) + 1)
	snapshot.BudgetID = budgetID
	snapshot.CreatedAt = time.Now()
	m.History[budgetID] = append(m.History[budgetID], snapshot)
	return nil
}

// GetHistory returns archived snapshots for a budget
func (m *MockBudgetRepository) GetHistory(userID uuid.UUID, budgetID int32) ([]*domain.PeriodSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	budget, ok := m.Budgets[budgetID]
	if !ok || budget.UserID != userID {
		return nil, domain.ErrBudgetNotFound
	}
	return m.History[budgetID], nil
}

// FindOverlapping returns an active or paused budget sharing a category in an
// overlapping date range
func (m *MockBudgetRepository) FindOverlapping(userID uuid.UUID, categories []string, start, end time.Time, excludeID int32) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}

	for _, budget := range m.Budgets {
		if budget.UserID != userID || budget.ID == excludeID {
			continue
		}
		if budget.Status != domain.BudgetStatusActive && budget.Status != domain.BudgetStatusPaused {
			continue
		}
		if budget.StartDate.After(end) || budget.EndDate.Before(start) {
			continue
		}
		for _, c := range budget.Categories {
			if wanted[c] {
				copied := *budget
				return &copied, nil
			}
		}
	}
	return nil, nil
}

// AddBudget adds a budget to the mock repository (helper for tests)
func (m *MockBudgetRepository) AddBudget(budget *domain.Budget) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if budget.ID == 0 {
		budget.ID = m.NextID
		m.NextID++
	} else if budget.ID >= m.NextID {
		m.NextID = budget.ID + 1
	}
	m.Budgets[budget.ID] = budget
}
