// Package money holds fixed-point currency amounts.
//
// Amounts are counted in minor units of a single currency, so repeated
// debits and credits never drift the way float64 arithmetic does.
package money

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Currency is the only currency the bank keeps books in.
const Currency = "INR"

// Scale is the number of fractional digits of an Amount.
const Scale = 2

var (
	ErrPrecision = errors.New("amount has more than two fractional digits")
	ErrOverflow  = errors.New("amount out of range")
	ErrSyntax    = errors.New("amount is not a number")
)

var (
	maxUnits = decimal.NewFromInt(math.MaxInt64)
	minUnits = decimal.NewFromInt(math.MinInt64)
)

// Amount is a currency value in minor units (1 rupee = 100 paise).
type Amount int64

// FromDecimal converts d to an Amount without rounding.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	units := d.Shift(Scale)
	if !units.Equal(units.Truncate(0)) {
		return 0, ErrPrecision
	}
	if units.GreaterThan(maxUnits) || units.LessThan(minUnits) {
		return 0, ErrOverflow
	}

	return Amount(units.IntPart()), nil
}

// Parse reads a decimal string such as "14520.75".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}

	return FromDecimal(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return a
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

func (a Amount) IsPositive() bool {
	return a > 0
}

// MarshalJSON writes the amount as a bare JSON number, e.g. 14520.75.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. null leaves the
// amount at zero.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		b = b[1 : len(b)-1]
	}

	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = v

	return nil
}

// Value stores the amount as its integer minor units.
func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*a = Amount(v)
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	case nil:
		*a = 0
	default:
		return fmt.Errorf("money: cannot scan %T into Amount", src)
	}

	return nil
}

func (a *Amount) scanString(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: scan %q: %w", s, err)
	}
	if !d.Equal(d.Truncate(0)) || d.GreaterThan(maxUnits) || d.LessThan(minUnits) {
		return fmt.Errorf("money: scan %q: %w", s, ErrOverflow)
	}
	*a = Amount(d.IntPart())

	return nil
}
