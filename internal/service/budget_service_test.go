package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/ledgerline/ledgerline-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func setupBudgetService() (*BudgetService, *testutil.MockBudgetRepository) {
	budgetRepo := testutil.NewMockBudgetRepository()
	return NewBudgetService(budgetRepo), budgetRepo
}

func validBudgetInput() CreateBudgetInput {
	now := time.Now()
	return CreateBudgetInput{
		Name:       "Groceries",
		Amount:     decimal.NewFromInt(500),
		Period:     domain.BudgetPeriodMonthly,
		Type:       domain.BudgetTypeExpense,
		Categories: []string{"food"},
		StartDate:  now.AddDate(0, 0, -5),
		EndDate:    now.AddDate(0, 0, 25),
	}
}

func addActiveBudget(repo *testutil.MockBudgetRepository, userID uuid.UUID, amount, spent float64, categories []string) *domain.Budget {
	now := time.Now()
	budget := &domain.Budget{
		UserID:     userID,
		Name:       "Test Budget",
		Amount:     decimal.NewFromFloat(amount),
		Period:     domain.BudgetPeriodMonthly,
		Type:       domain.BudgetTypeExpense,
		Categories: categories,
		StartDate:  now.AddDate(0, 0, -5),
		EndDate:    now.AddDate(0, 0, 25),
		Status:     domain.BudgetStatusActive,
		Current: domain.CurrentPeriod{
			Spent:          decimal.NewFromFloat(spent),
			RolloverAmount: decimal.Zero,
		},
	}
	repo.AddBudget(budget)
	return budget
}

func TestCreateBudget_Success(t *testing.T) {
	service, _ := setupBudgetService()
	userID := uuid.New()

	budget, err := service.CreateBudget(userID, validBudgetInput())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if budget.Name != "Groceries" {
		t.Errorf("Expected name 'Groceries', got %s", budget.Name)
	}
	if budget.Status != domain.BudgetStatusActive {
		t.Errorf("Expected status 'active', got %s", budget.Status)
	}
	if !budget.Current.Spent.IsZero() {
		t.Errorf("Expected spent 0, got %s", budget.Current.Spent)
	}
	if budget.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, budget.UserID)
	}
}

func TestCreateBudget_TrimsAndDedupesCategories(t *testing.T) {
	service, _ := setupBudgetService()

	input := validBudgetInput()
	input.Categories = []string{" food ", "food", "", "transport"}

	budget, err := service.CreateBudget(uuid.New(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(budget.Categories) != 2 {
		t.Fatalf("Expected 2 categories, got %v", budget.Categories)
	}
	if budget.Categories[0] != "food" || budget.Categories[1] != "transport" {
		t.Errorf("Expected [food transport], got %v", budget.Categories)
	}
}

func TestCreateBudget_ValidationErrors(t *testing.T) {
	service, _ := setupBudgetService()
	userID := uuid.New()

	tests := []struct {
		name    string
		mutate  func(*CreateBudgetInput)
		wantErr error
	}{
		{"empty name", func(i *CreateBudgetInput) { i.Name = "   " }, domain.ErrNameRequired},
		{"non-positive amount", func(i *CreateBudgetInput) { i.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"bad period", func(i *CreateBudgetInput) { i.Period = "daily" }, domain.ErrInvalidBudgetPeriod},
		{"bad type", func(i *CreateBudgetInput) { i.Type = "investment" }, domain.ErrInvalidBudgetType},
		{"no categories", func(i *CreateBudgetInput) { i.Categories = []string{"  "} }, domain.ErrCategoryRequired},
		{"end before start", func(i *CreateBudgetInput) { i.EndDate = i.StartDate.AddDate(0, 0, -1) }, domain.ErrInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validBudgetInput()
			tt.mutate(&input)

			_, err := service.CreateBudget(userID, input)
			if err != tt.wantErr {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateBudget_OverlapRejected(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	addActiveBudget(repo, userID, 500, 0, []string{"food"})

	_, err := service.CreateBudget(userID, validBudgetInput())
	if err != domain.ErrOverlappingBudget {
		t.Errorf("Expected ErrOverlappingBudget, got %v", err)
	}
}

func TestCreateBudget_NoOverlapAcrossUsers(t *testing.T) {
	service, repo := setupBudgetService()
	addActiveBudget(repo, uuid.New(), 500, 0, []string{"food"})

	_, err := service.CreateBudget(uuid.New(), validBudgetInput())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestCreateBudget_NoOverlapDifferentCategory(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	addActiveBudget(repo, userID, 500, 0, []string{"transport"})

	_, err := service.CreateBudget(userID, validBudgetInput())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestGetBudget_NotFound(t *testing.T) {
	service, _ := setupBudgetService()

	_, err := service.GetBudget(uuid.New(), 42)
	if err != domain.ErrBudgetNotFound {
		t.Errorf("Expected ErrBudgetNotFound, got %v", err)
	}
}

func TestGetBudget_DerivesExceededStatus(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := addActiveBudget(repo, userID, 100, 150, []string{"food"})

	budget, err := service.GetBudget(userID, stored.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if budget.Status != domain.BudgetStatusExceeded {
		t.Errorf("Expected status 'exceeded', got %s", budget.Status)
	}

	// The derived status is persisted back as a cache
	if repo.Budgets[stored.ID].Status != domain.BudgetStatusExceeded {
		t.Errorf("Expected stored status 'exceeded', got %s", repo.Budgets[stored.ID].Status)
	}
}

func TestGetBudget_DerivesCompletedStatus(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := addActiveBudget(repo, userID, 100, 50, []string{"food"})
	stored.StartDate = time.Now().AddDate(0, 0, -40)
	stored.EndDate = time.Now().AddDate(0, 0, -10)

	budget, err := service.GetBudget(userID, stored.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if budget.Status != domain.BudgetStatusCompleted {
		t.Errorf("Expected status 'completed', got %s", budget.Status)
	}
}

func TestGetBudget_PausedIsSticky(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := addActiveBudget(repo, userID, 100, 150, []string{"food"})
	stored.Status = domain.BudgetStatusPaused

	budget, err := service.GetBudget(userID, stored.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if budget.Status != domain.BudgetStatusPaused {
		t.Errorf("Expected status 'paused', got %s", budget.Status)
	}
}

func TestListBudgets_ReconcilesAll(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	addActiveBudget(repo, userID, 100, 150, []string{"food"})
	addActiveBudget(repo, userID, 100, 10, []string{"transport"})
	addActiveBudget(repo, uuid.New(), 100, 10, []string{"rent"})

	budgets, err := service.ListBudgets(userID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(budgets) != 2 {
		t.Fatalf("Expected 2 budgets, got %d", len(budgets))
	}
	if budgets[0].Status != domain.BudgetStatusExceeded {
		t.Errorf("Expected first budget 'exceeded', got %s", budgets[0].Status)
	}
	if budgets[1].Status != domain.BudgetStatusActive {
		t.Errorf("Expected second budget 'active', got %s", budgets[1].Status)
	}
}

func TestUpdateBudget_StatusRestrictedToActiveOrPaused(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := addActiveBudget(repo, userID, 500, 0, []string{"food"})

	completed := domain.BudgetStatusCompleted
	_, err := service.UpdateBudget(userID, stored.ID, UpdateBudgetInput{Status: &completed})
	if err != domain.ErrInvalidInput {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	paused := domain.BudgetStatusPaused
	budget, err := service.UpdateBudget(userID, stored.ID, UpdateBudgetInput{Status: &paused})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if budget.Status != domain.BudgetStatusPaused {
		t.Errorf("Expected status 'paused', got %s", budget.Status)
	}
}

func TestUpdateBudget_OverlapCheckedOnCategoryChange(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	addActiveBudget(repo, userID, 500, 0, []string{"food"})
	stored := addActiveBudget(repo, userID, 500, 0, []string{"transport"})

	_, err := service.UpdateBudget(userID, stored.ID, UpdateBudgetInput{Categories: []string{"food"}})
	if err != domain.ErrOverlappingBudget {
		t.Errorf("Expected ErrOverlappingBudget, got %v", err)
	}
}

func TestUpdateBudget_OverlapExcludesSelf(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := addActiveBudget(repo, userID, 500, 0, []string{"food"})

	_, err := service.UpdateBudget(userID, stored.ID, UpdateBudgetInput{Categories: []string{"food", "dining"}})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestDeleteBudget(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := addActiveBudget(repo, userID, 500, 0, []string{"food"})

	if err := service.DeleteBudget(userID, stored.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := service.DeleteBudget(userID, stored.ID); err != domain.ErrBudgetNotFound {
		t.Errorf("Expected ErrBudgetNotFound, got %v", err)
	}
}

func TestApplyTransaction_MatchingBudget(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := addActiveBudget(repo, userID, 100, 75, []string{"food"})
	stored.Alerts = domain.AlertThresholds{
		Warning:  domain.AlertThreshold{Enabled: true, Percent: decimal.NewFromInt(80)},
		Critical: domain.AlertThreshold{Enabled: true, Percent: decimal.NewFromInt(95)},
	}

	budget, prev, next, err := service.ApplyTransaction(userID, TransactionAttribution{
		Category: "food",
		Date:     time.Now(),
		Amount:   decimal.NewFromInt(10),
		Type:     domain.TransactionTypeExpense,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if budget == nil {
		t.Fatal("Expected a matched budget, got nil")
	}
	if !budget.Current.Spent.Equal(decimal.NewFromInt(85)) {
		t.Errorf("Expected spent 85, got %s", budget.Current.Spent)
	}
	if budget.Current.TransactionCount != 1 {
		t.Errorf("Expected transaction count 1, got %d", budget.Current.TransactionCount)
	}
	if budget.Current.LastTransactionDate == nil {
		t.Error("Expected last transaction date to be stamped")
	}
	if prev != domain.AlertLevelNone {
		t.Errorf("Expected previous level 'none', got %s", prev)
	}
	if next != domain.AlertLevelWarning {
		t.Errorf("Expected new level 'warning', got %s", next)
	}
}

func TestApplyTransaction_NoMatchingBudget(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	addActiveBudget(repo, userID, 100, 0, []string{"food"})

	budget, _, _, err := service.ApplyTransaction(userID, TransactionAttribution{
		Category: "rent",
		Date:     time.Now(),
		Amount:   decimal.NewFromInt(10),
		Type:     domain.TransactionTypeExpense,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if budget != nil {
		t.Errorf("Expected nil budget, got %+v", budget)
	}
}

func TestApplyTransaction_TypeMismatchSkipsBudget(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	addActiveBudget(repo, userID, 100, 0, []string{"salary"})

	// Expense budget must not absorb income transactions
	budget, _, _, err := service.ApplyTransaction(userID, TransactionAttribution{
		Category: "salary",
		Date:     time.Now(),
		Amount:   decimal.NewFromInt(10),
		Type:     domain.TransactionTypeIncome,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if budget != nil {
		t.Error("Expected no match for income transaction against expense budget")
	}
}

func TestApplyTransaction_Concurrent(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := addActiveBudget(repo, userID, 1000000, 0, []string{"food"})

	const workers = 50
	amount := decimal.NewFromInt(10)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _, _, err := service.ApplyTransaction(userID, TransactionAttribution{
				Category: "food",
				Date:     time.Now(),
				Amount:   amount,
				Type:     domain.TransactionTypeExpense,
			})
			if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		}()
	}
	wg.Wait()

	final, err := service.GetBudget(userID, stored.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !final.Current.Spent.Equal(decimal.NewFromInt(workers * 10)) {
		t.Errorf("Expected spent %d after concurrent increments, got %s", workers*10, final.Current.Spent)
	}
	if final.Current.TransactionCount != workers {
		t.Errorf("Expected transaction count %d, got %d", workers, final.Current.TransactionCount)
	}
}

func TestRemoveTransaction_ReversesContribution(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := addActiveBudget(repo, userID, 100, 50, []string{"food"})
	stored.Current.TransactionCount = 3

	budget, err := service.RemoveTransaction(userID, TransactionAttribution{
		Category: "food",
		Date:     time.Now(),
		Amount:   decimal.NewFromInt(20),
		Type:     domain.TransactionTypeExpense,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !budget.Current.Spent.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Expected spent 30, got %s", budget.Current.Spent)
	}
	if budget.Current.TransactionCount != 2 {
		t.Errorf("Expected transaction count 2, got %d", budget.Current.TransactionCount)
	}
}

func TestReassignTransaction_MovesBetweenBudgets(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	foodBudget := addActiveBudget(repo, userID, 100, 20, []string{"food"})
	foodBudget.Current.TransactionCount = 1
	transportBudget := addActiveBudget(repo, userID, 100, 0, []string{"transport"})

	previous := TransactionAttribution{Category: "food", Date: time.Now(), Amount: decimal.NewFromInt(20), Type: domain.TransactionTypeExpense}
	updated := TransactionAttribution{Category: "transport", Date: time.Now(), Amount: decimal.NewFromInt(35), Type: domain.TransactionTypeExpense}

	budget, _, _, err := service.ReassignTransaction(userID, previous, updated)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if budget.ID != transportBudget.ID {
		t.Errorf("Expected budget %d, got %d", transportBudget.ID, budget.ID)
	}
	if !repo.Budgets[foodBudget.ID].Current.Spent.IsZero() {
		t.Errorf("Expected food budget spent 0, got %s", repo.Budgets[foodBudget.ID].Current.Spent)
	}
	if !repo.Budgets[transportBudget.ID].Current.Spent.Equal(decimal.NewFromInt(35)) {
		t.Errorf("Expected transport budget spent 35, got %s", repo.Budgets[transportBudget.ID].Current.Spent)
	}
}

func renewableBudget(repo *testutil.MockBudgetRepository, userID uuid.UUID) *domain.Budget {
	now := time.Now()
	budget := &domain.Budget{
		UserID:     userID,
		Name:       "Monthly Spend",
		Amount:     decimal.NewFromInt(1000),
		Period:     domain.BudgetPeriodMonthly,
		Type:       domain.BudgetTypeExpense,
		Categories: []string{"food"},
		StartDate:  now.AddDate(0, 0, -35),
		EndDate:    now.AddDate(0, 0, -5),
		Status:     domain.BudgetStatusActive,
		Current: domain.CurrentPeriod{
			Spent:            decimal.NewFromInt(600),
			TransactionCount: 12,
			RolloverAmount:   decimal.Zero,
		},
		Rollover: domain.RolloverPolicy{Enabled: true, CarryOverUnused: true},
		AutoRenew: domain.AutoRenewPolicy{
			Enabled: true,
		},
	}
	repo.AddBudget(budget)
	return budget
}

func TestRenewForNextPeriod_Success(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := renewableBudget(repo, userID)
	oldStart := stored.StartDate
	oldEnd := stored.EndDate

	budget, err := service.RenewForNextPeriod(userID, stored.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !budget.StartDate.Equal(oldStart.AddDate(0, 0, 30)) {
		t.Errorf("Expected start date advanced 30 days, got %s", budget.StartDate)
	}
	if !budget.EndDate.Equal(oldEnd.AddDate(0, 0, 30)) {
		t.Errorf("Expected end date advanced 30 days, got %s", budget.EndDate)
	}
	if budget.Status != domain.BudgetStatusActive {
		t.Errorf("Expected status 'active', got %s", budget.Status)
	}
	if !budget.Current.Spent.IsZero() {
		t.Errorf("Expected spent reset to 0, got %s", budget.Current.Spent)
	}
	if budget.Current.TransactionCount != 0 {
		t.Errorf("Expected transaction count reset to 0, got %d", budget.Current.TransactionCount)
	}
	if !budget.Current.RolloverAmount.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected rollover 400, got %s", budget.Current.RolloverAmount)
	}

	history, err := service.GetHistory(userID, stored.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 history snapshot, got %d", len(history))
	}
	snapshot := history[0]
	if !snapshot.ActualSpent.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected snapshot spent 600, got %s", snapshot.ActualSpent)
	}
	if !snapshot.Variance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected variance 400, got %s", snapshot.Variance)
	}
	if !snapshot.VariancePercent.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected variance percent 40, got %s", snapshot.VariancePercent)
	}
	if snapshot.TransactionCount != 12 {
		t.Errorf("Expected snapshot transaction count 12, got %d", snapshot.TransactionCount)
	}
	if !snapshot.StartDate.Equal(oldStart) || !snapshot.EndDate.Equal(oldEnd) {
		t.Error("Expected snapshot to cover the closed period dates")
	}
}

func TestRenewForNextPeriod_RolloverCappedAtMax(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := renewableBudget(repo, userID)
	maxRollover := decimal.NewFromInt(250)
	stored.Rollover.MaxAmount = &maxRollover

	budget, err := service.RenewForNextPeriod(userID, stored.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !budget.Current.RolloverAmount.Equal(maxRollover) {
		t.Errorf("Expected rollover capped at 250, got %s", budget.Current.RolloverAmount)
	}
}

func TestRenewForNextPeriod_NoRolloverWhenDisabled(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := renewableBudget(repo, userID)
	stored.Rollover = domain.RolloverPolicy{}

	budget, err := service.RenewForNextPeriod(userID, stored.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !budget.Current.RolloverAmount.IsZero() {
		t.Errorf("Expected rollover 0, got %s", budget.Current.RolloverAmount)
	}
}

func TestRenewForNextPeriod_AmountAdjustment(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := renewableBudget(repo, userID)
	stored.AutoRenew.AdjustAmount = true
	stored.AutoRenew.AdjustmentPercent = decimal.NewFromInt(10)

	budget, err := service.RenewForNextPeriod(userID, stored.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !budget.Amount.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("Expected amount adjusted to 1100, got %s", budget.Amount)
	}
}

func TestRenewForNextPeriod_AutoRenewDisabled(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := renewableBudget(repo, userID)
	stored.AutoRenew.Enabled = false

	_, err := service.RenewForNextPeriod(userID, stored.ID)
	if err != domain.ErrAutoRenewalDisabled {
		t.Errorf("Expected ErrAutoRenewalDisabled, got %v", err)
	}
}

func TestRenewForNextPeriod_NotCompleted(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := renewableBudget(repo, userID)
	stored.EndDate = time.Now().AddDate(0, 0, 10)

	_, err := service.RenewForNextPeriod(userID, stored.ID)
	if err != domain.ErrBudgetNotCompleted {
		t.Errorf("Expected ErrBudgetNotCompleted, got %v", err)
	}
}

func TestRenewForNextPeriod_ExceededNotRenewable(t *testing.T) {
	service, repo := setupBudgetService()
	userID := uuid.New()
	stored := renewableBudget(repo, userID)
	stored.Current.Spent = decimal.NewFromInt(1200)

	// Past end date but over budget: exceeded takes precedence over completed
	_, err := service.RenewForNextPeriod(userID, stored.ID)
	if err != domain.ErrBudgetNotCompleted {
		t.Errorf("Expected ErrBudgetNotCompleted, got %v", err)
	}
}
