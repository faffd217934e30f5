package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// decimalToNumeric converts a shopspring decimal to a pgtype.Numeric for
// query parameters
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

// numericToDecimal converts a scanned pgtype.Numeric back to a decimal.
// NULL scans as zero.
func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN {
		return decimal.Zero, fmt.Errorf("numeric column is NaN")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

// decimalPtrToNumeric converts an optional decimal; nil becomes SQL NULL
func decimalPtrToNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return decimalToNumeric(*d)
}

// numericToDecimalPtr converts a nullable numeric column; NULL becomes nil
func numericToDecimalPtr(n pgtype.Numeric) (*decimal.Decimal, error) {
	if !n.Valid {
		return nil, nil
	}
	d, err := numericToDecimal(n)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
