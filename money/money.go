// Package money wraps a fixed-precision decimal type used everywhere a
// monetary or crypto quantity appears in this module. No code outside this
// package should import shopspring/decimal directly, so that the rounding
// and formatting rules stay in one place.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimal is an arbitrary-precision signed decimal. It carries no implicit
// unit (fiat vs. crypto) -- callers are responsible for not mixing them.
type Decimal = decimal.Decimal

// WorkingPrecision is the minimum number of significant decimal digits
// guaranteed exact before an explicit Round call; shopspring/decimal is
// exact well beyond this for all practical transaction sizes.
const WorkingPrecision = 28

var (
	// Zero is the additive identity.
	Zero = decimal.NewFromInt(0)
	// One is the multiplicative identity.
	One = decimal.NewFromInt(1)
	// Hundred is used throughout for percentage computations.
	Hundred = decimal.NewFromInt(100)
)

// New constructs a Decimal from an int64.
func New(i int64) Decimal { return decimal.NewFromInt(i) }

// NewFromFloat constructs a Decimal from a float64. Only intended for
// constants in tests and callers translating already-parsed spot prices;
// production code should prefer NewFromString to avoid float imprecision.
func NewFromFloat(f float64) Decimal { return decimal.NewFromFloat(f) }

// NewFromString parses a Decimal from its canonical string form.
func NewFromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("money: invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// Round rounds d to the given number of decimal places using banker's
// rounding (round-half-to-even).
func Round(d Decimal, places int32) Decimal {
	return d.RoundBank(places)
}

// FormatFixed renders d with exactly the given number of decimal places,
// for report-generator-facing output.
func FormatFixed(d Decimal, places int32) string {
	return d.StringFixed(places)
}

// IsZero reports whether d is exactly zero.
func IsZero(d Decimal) bool { return d.IsZero() }

// IsNegative reports whether d is strictly less than zero.
func IsNegative(d Decimal) bool { return d.IsNegative() }

// Min returns the smaller of a and b.
func Min(a, b Decimal) Decimal {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Decimal) Decimal {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Percent returns part/whole * 100, or Zero if whole is zero (avoids a
// division panic on fully-exhausted lots / zero-amount taxable events).
func Percent(part, whole Decimal) Decimal {
	if whole.IsZero() {
		return Zero
	}
	return part.Div(whole).Mul(Hundred)
}
