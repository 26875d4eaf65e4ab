package txtype

import (
	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/taxerr"
)

func errNegative(field string) error {
	return &taxerr.MalformedInputError{Reason: field + " must not be negative"}
}

func errZeroSpotWithFee() error {
	return &taxerr.MalformedInputError{Reason: "spot_price is zero but a fee is non-zero; a zero-spot-price fee has no fiat value"}
}

// checkConsistent compares a user-supplied fiat field against the value
// this package derives for it. supplied is nil when the caller (parser)
// never independently computed the field, in which case there is nothing
// to cross-check.
func checkConsistent(lineID int, field string, supplied *money.Decimal, derived, tolerance money.Decimal) error {
	if supplied == nil {
		return nil
	}
	diff := supplied.Sub(derived).Abs()
	if diff.GreaterThan(tolerance) {
		return &taxerr.InconsistentAmountError{
			LineID:    lineID,
			Field:     field,
			Supplied:  *supplied,
			Derived:   derived,
			Tolerance: tolerance,
		}
	}
	return nil
}

func withLine(lineID int, err error) error {
	if err == nil {
		return nil
	}
	if mie, ok := err.(*taxerr.MalformedInputError); ok {
		mie.LineID = lineID
		return mie
	}
	return err
}
