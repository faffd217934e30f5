package util

import "time"

// MonthKey formats a time as a "YYYY-MM" bucket key
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthKeyOf formats a year and month as a "YYYY-MM" bucket key
func MonthKeyOf(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// ParseMonthKey parses a "YYYY-MM" bucket key into its year and month
func ParseMonthKey(key string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return 0, 0, err
	}
	return t.Year(), t.Month(), nil
}

// AddMonths returns the first day of the month n calendar months after t
func AddMonths(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
}

// DaysBetween returns the number of whole days from a to b
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
