package util

import (
	"testing"
	"time"
)

func TestMonthKey(t *testing.T) {
	key := MonthKey(time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC))
	if key != "2025-03" {
		t.Errorf("Expected '2025-03', got %s", key)
	}
}

func TestMonthKeyOf(t *testing.T) {
	key := MonthKeyOf(2024, time.December)
	if key != "2024-12" {
		t.Errorf("Expected '2024-12', got %s", key)
	}
}

func TestParseMonthKey(t *testing.T) {
	year, month, err := ParseMonthKey("2025-07")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if year != 2025 {
		t.Errorf("Expected year 2025, got %d", year)
	}
	if month != time.July {
		t.Errorf("Expected July, got %s", month)
	}
}

func TestParseMonthKey_Invalid(t *testing.T) {
	if _, _, err := ParseMonthKey("not-a-month"); err == nil {
		t.Error("Expected error for malformed key")
	}
}

func TestParseMonthKey_RoundTrip(t *testing.T) {
	key := MonthKeyOf(2023, time.February)
	year, month, err := ParseMonthKey(key)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if MonthKeyOf(year, month) != key {
		t.Errorf("Round trip mismatch: got %s from %s", MonthKeyOf(year, month), key)
	}
}

func TestAddMonths(t *testing.T) {
	base := time.Date(2025, time.November, 20, 8, 0, 0, 0, time.UTC)

	next := AddMonths(base, 1)
	if MonthKey(next) != "2025-12" {
		t.Errorf("Expected '2025-12', got %s", MonthKey(next))
	}
	if next.Day() != 1 {
		t.Errorf("Expected first of month, got day %d", next.Day())
	}
}

func TestAddMonths_YearBoundary(t *testing.T) {
	base := time.Date(2025, time.November, 5, 0, 0, 0, 0, time.UTC)
	if MonthKey(AddMonths(base, 3)) != "2026-02" {
		t.Errorf("Expected '2026-02', got %s", MonthKey(AddMonths(base, 3)))
	}
}

func TestAddMonths_Negative(t *testing.T) {
	base := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	if MonthKey(AddMonths(base, -2)) != "2024-11" {
		t.Errorf("Expected '2024-11', got %s", MonthKey(AddMonths(base, -2)))
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)

	if days := DaysBetween(a, b); days != 10 {
		t.Errorf("Expected 10 days, got %d", days)
	}
	if days := DaysBetween(b, a); days != -10 {
		t.Errorf("Expected -10 days, got %d", days)
	}
	if days := DaysBetween(a, a); days != 0 {
		t.Errorf("Expected 0 days, got %d", days)
	}
}
