package service

import (
	"sort"

	"github.com/ledgerline/ledgerline-backend/internal/domain"
	"github.com/ledgerline/ledgerline-backend/internal/util"
	"github.com/shopspring/decimal"
)

// AggregationService folds transaction sets into per-month buckets
type AggregationService struct{}

// NewAggregationService creates a new AggregationService
func NewAggregationService() *AggregationService {
	return &AggregationService{}
}

// BucketizeMonthly groups transactions by the calendar month of their date and
// sums amounts into income or expenses by type. The result is ordered by
// ascending month key and covers only months that have at least one
// transaction; callers needing dense timelines must fill gaps themselves.
// Pure function: deterministic for a given input set regardless of order.
func (s *AggregationService) BucketizeMonthly(transactions []*domain.Transaction) []*domain.MonthlyBucket {
	byMonth := make(map[string]*domain.MonthlyBucket)

	for _, tx := range transactions {
		key := util.MonthKey(tx.TransactionDate)
		bucket, ok := byMonth[key]
		if !ok {
			bucket = &domain.MonthlyBucket{
				Month:    key,
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
			}
			byMonth[key] = bucket
		}

		switch tx.Type {
		case domain.TransactionTypeIncome:
			bucket.Income = bucket.Income.Add(tx.Amount)
		case domain.TransactionTypeExpense:
			bucket.Expenses = bucket.Expenses.Add(tx.Amount)
		}
	}

	keys := make([]string, 0, len(byMonth))
	for key := range byMonth {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buckets := make([]*domain.MonthlyBucket, len(keys))
	for i, key := range keys {
		bucket := byMonth[key]
		bucket.Net = bucket.Income.Sub(bucket.Expenses)
		buckets[i] = bucket
	}

	return buckets
}
