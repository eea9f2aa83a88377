package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses an exact decimal amount. A leading "$", thousands
// separators and surrounding whitespace are accepted; anything else that is
// not a finite decimal is an error.
func ParseDecimal(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" {
		return decimal.Decimal{}, fmt.Errorf("empty decimal value")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

// ParseOptionalDecimal is ParseDecimal for nullable columns. nil, blank and
// the usual "not available" markers yield an invalid NullDecimal.
func ParseOptionalDecimal(v *string) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	switch strings.ToUpper(strings.TrimSpace(*v)) {
	case "", "N/A", "NA", "NULL", "-":
		return decimal.NullDecimal{}, nil
	}
	d, err := ParseDecimal(*v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// DecimalFromFloat converts a nullable float64 read from a columnar file into
// a NullDecimal using the shortest decimal representation of the float, so
// 99.9 stays 99.9 rather than its binary expansion.
func DecimalFromFloat(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}
