// Package money provides the currency amount used by every tax computation.
//
// Amounts are exact decimals. Nothing in this package rounds implicitly;
// callers pick a Rounding and apply it once at the end of a provision.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Rounding selects how a provision's final amount is rounded.
type Rounding string

// Rounding modes.
const (
	// RoundWholeDollar drops amounts under 50 cents and raises 50 cents or more
	// to the next dollar (away from zero for negative amounts).
	RoundWholeDollar Rounding = "whole-dollar"
	// RoundCents keeps cent precision.
	RoundCents Rounding = "cents"
)

// ErrInvalidAmount is returned when a textual amount cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// Valid reports whether r is a known rounding mode.
func (r Rounding) Valid() bool {
	return r == RoundWholeDollar || r == RoundCents
}

// Amount is a US dollar amount.
type Amount struct {
	d decimal.Decimal
}

// Zero is zero dollars.
var Zero = Amount{}

// FromDollars creates an Amount from whole dollars.
func FromDollars(dollars int64) Amount {
	return Amount{d: decimal.New(dollars, 0)}
}

// FromCents creates an Amount from cents.
func FromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -2)}
}

// FromDecimal wraps a decimal value.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// Parse reads an amount such as "1234.56", "$1,234.56" or "-12".
func Parse(s string) (Amount, error) {
	clean := strings.TrimSpace(s)
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.Replace(clean, "$", "", 1)
	if clean == "" {
		return Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{d: d}, nil
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// Neg returns -a.
func (a Amount) Neg() Amount { return Amount{d: a.d.Neg()} }

// MulRate multiplies the amount by a rate such as 0.22.
func (a Amount) MulRate(rate decimal.Decimal) Amount { return Amount{d: a.d.Mul(rate)} }

// MulInt multiplies the amount by a count.
func (a Amount) MulInt(n int) Amount { return Amount{d: a.d.Mul(decimal.NewFromInt(int64(n)))} }

// Ratio returns a / b. A zero divisor yields zero.
func (a Amount) Ratio(b Amount) decimal.Decimal {
	if b.d.IsZero() {
		return decimal.Zero
	}
	return a.d.Div(b.d)
}

// Cmp compares a and b.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Equal reports whether a and b are numerically equal.
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// LessThan reports a < b.
func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

// GreaterThan reports a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }

// IsZero reports a == 0.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsNegative reports a < 0.
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// IsPositive reports a > 0.
func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if b.d.LessThan(a.d) {
		return b
	}
	return a
}

// Max returns the larger of a and b.
func (a Amount) Max(b Amount) Amount {
	if b.d.GreaterThan(a.d) {
		return b
	}
	return a
}

// ClampZero returns max(a, 0).
func (a Amount) ClampZero() Amount {
	if a.d.IsNegative() {
		return Zero
	}
	return a
}

// FloorDollar rounds toward negative infinity to whole dollars.
func (a Amount) FloorDollar() Amount { return Amount{d: a.d.Floor()} }

// CeilDollar rounds toward positive infinity to whole dollars.
func (a Amount) CeilDollar() Amount { return Amount{d: a.d.Ceil()} }

// RoundDollar applies the IRS whole-dollar method.
func (a Amount) RoundDollar() Amount { return Amount{d: a.d.Round(0)} }

// RoundCents rounds half away from zero to cents.
func (a Amount) RoundCents() Amount { return Amount{d: a.d.Round(2)} }

// Round applies the given rounding mode. Unknown modes round to cents.
func (a Amount) Round(mode Rounding) Amount {
	if mode == RoundWholeDollar {
		return a.RoundDollar()
	}
	return a.RoundCents()
}

// String formats the amount with two decimal places, e.g. "1234.50".
func (a Amount) String() string { return a.d.StringFixed(2) }

// Canonical returns the exact, trailing-zero-free representation used for
// hashing and persistence.
func (a Amount) Canonical() string { return a.d.String() }

// Format renders the amount for people: "$1,234.50" or "-$12.00".
func (a Amount) Format() string {
	s := a.d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	sign := ""
	if a.d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + b.String() + "." + frac
}

// MarshalJSON encodes the amount as its canonical string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.Canonical() + `"`), nil
}

// UnmarshalJSON accepts a quoted or bare number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Sum adds all amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Rate parses a rate literal such as "0.9235". It panics on malformed input
// and is meant for package-level constants.
func Rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
