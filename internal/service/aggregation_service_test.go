package service

import (
	"testing"
	"time"

	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func makeTx(txType domain.TransactionType, amount float64, date time.Time) *domain.Transaction {
	return &domain.Transaction{
		Name:            "tx",
		Amount:          decimal.NewFromFloat(amount),
		Type:            txType,
		Category:        "misc",
		TransactionDate: date,
	}
}

func TestBucketizeMonthly_Empty(t *testing.T) {
	aggregator := NewAggregationService()

	buckets := aggregator.BucketizeMonthly(nil)
	if len(buckets) != 0 {
		t.Errorf("Expected no buckets, got %d", len(buckets))
	}
}

func TestBucketizeMonthly_GroupsByMonth(t *testing.T) {
	aggregator := NewAggregationService()

	jan := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 5, 0, 0, 0, 0, time.UTC)

	buckets := aggregator.BucketizeMonthly([]*domain.Transaction{
		makeTx(domain.TransactionTypeIncome, 3000, jan),
		makeTx(domain.TransactionTypeExpense, 1200, jan),
		makeTx(domain.TransactionTypeExpense, 300, jan.AddDate(0, 0, 5)),
		makeTx(domain.TransactionTypeIncome, 3000, feb),
	})

	if len(buckets) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(buckets))
	}

	if buckets[0].Month != "2025-01" {
		t.Errorf("Expected first bucket '2025-01', got %s", buckets[0].Month)
	}
	if !buckets[0].Income.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("Expected January income 3000, got %s", buckets[0].Income)
	}
	if !buckets[0].Expenses.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected January expenses 1500, got %s", buckets[0].Expenses)
	}
	if !buckets[0].Net.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected January net 1500, got %s", buckets[0].Net)
	}

	if buckets[1].Month != "2025-02" {
		t.Errorf("Expected second bucket '2025-02', got %s", buckets[1].Month)
	}
	if !buckets[1].Expenses.IsZero() {
		t.Errorf("Expected February expenses 0, got %s", buckets[1].Expenses)
	}
}

func TestBucketizeMonthly_OrderedAcrossYears(t *testing.T) {
	aggregator := NewAggregationService()

	buckets := aggregator.BucketizeMonthly([]*domain.Transaction{
		makeTx(domain.TransactionTypeExpense, 10, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)),
		makeTx(domain.TransactionTypeExpense, 10, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)),
		makeTx(domain.TransactionTypeExpense, 10, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)),
	})

	expected := []string{"2024-12", "2025-01", "2025-03"}
	if len(buckets) != len(expected) {
		t.Fatalf("Expected %d buckets, got %d", len(expected), len(buckets))
	}
	for i, key := range expected {
		if buckets[i].Month != key {
			t.Errorf("Expected bucket %d to be %s, got %s", i, key, buckets[i].Month)
		}
	}
}

func TestBucketizeMonthly_DeterministicRegardlessOfOrder(t *testing.T) {
	aggregator := NewAggregationService()

	date := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	forward := []*domain.Transaction{
		makeTx(domain.TransactionTypeIncome, 100, date),
		makeTx(domain.TransactionTypeIncome, 250, date.AddDate(0, 0, 3)),
		makeTx(domain.TransactionTypeExpense, 75, date.AddDate(0, 0, 7)),
	}
	reversed := []*domain.Transaction{forward[2], forward[1], forward[0]}

	a := aggregator.BucketizeMonthly(forward)
	b := aggregator.BucketizeMonthly(reversed)

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("Expected 1 bucket each, got %d and %d", len(a), len(b))
	}
	if !a[0].Income.Equal(b[0].Income) || !a[0].Expenses.Equal(b[0].Expenses) || !a[0].Net.Equal(b[0].Net) {
		t.Errorf("Expected identical buckets, got %+v and %+v", a[0], b[0])
	}
}

func TestBucketizeMonthly_NetIdentity(t *testing.T) {
	aggregator := NewAggregationService()

	date := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)
	buckets := aggregator.BucketizeMonthly([]*domain.Transaction{
		makeTx(domain.TransactionTypeIncome, 2500.50, date),
		makeTx(domain.TransactionTypeExpense, 3000, date),
	})

	if len(buckets) != 1 {
		t.Fatalf("Expected 1 bucket, got %d", len(buckets))
	}
	want := buckets[0].Income.Sub(buckets[0].Expenses)
	if !buckets[0].Net.Equal(want) {
		t.Errorf("Expected net %s, got %s", want, buckets[0].Net)
	}
	if !buckets[0].Net.Equal(decimal.NewFromFloat(-499.50)) {
		t.Errorf("Expected net -499.50, got %s", buckets[0].Net)
	}
}
