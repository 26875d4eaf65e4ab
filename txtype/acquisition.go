package txtype

import (
	"time"

	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/taxerr"
	"github.com/google/uuid"
)

// Acquisition models a BUY, or an income-kind inflow (airdrop, hard fork,
// income, interest, mining, staking, wages).
type Acquisition struct {
	common

	Exchange string
	Holder   string

	CryptoIn       money.Decimal
	CryptoFee      money.Decimal // non-zero only when the fee was paid in-crypto
	FiatInNoFee    money.Decimal
	FiatInWithFee  money.Decimal
	FiatFeeValue   money.Decimal
	UniqueID       string
}

var _ Transaction = (*Acquisition)(nil)

// AcquisitionInput carries the raw, already-parsed fields a parser
// supplies; fiat fields left at zero are derived from the crypto amounts
// and the spot price.
type AcquisitionInput struct {
	Timestamp time.Time
	Asset     string
	Kind      TransactionType
	SpotPrice money.Decimal
	LineID    int
	Notes     string

	Exchange string
	Holder   string

	CryptoIn money.Decimal
	// At most one of CryptoFee / FiatFee may be supplied non-zero; the
	// other is derived.
	CryptoFee money.Decimal
	FiatFee   money.Decimal

	// FiatInNoFee, when supplied by a parser that computed it
	// independently (e.g. from a spreadsheet formula column), is checked
	// against this package's own crypto_in * spot_price derivation within
	// FiatFieldTolerance; nil means the parser supplies nothing to check.
	FiatInNoFee        *money.Decimal
	FiatFieldTolerance money.Decimal

	UniqueID string
}

// NewAcquisition validates in and returns a fully-derived Acquisition.
func NewAcquisition(in AcquisitionInput) (*Acquisition, error) {
	if !acquisitionKinds[in.Kind] {
		return nil, withLine(in.LineID, &taxerr.MalformedInputError{Reason: "transaction_type " + in.Kind.String() + " is not valid for an acquisition"})
	}
	if money.IsNegative(in.CryptoIn) {
		return nil, withLine(in.LineID, errNegative("crypto_in"))
	}
	if money.IsNegative(in.CryptoFee) {
		return nil, withLine(in.LineID, errNegative("crypto_fee"))
	}
	if money.IsNegative(in.FiatFee) {
		return nil, withLine(in.LineID, errNegative("fiat_fee"))
	}
	if in.CryptoFee.GreaterThan(money.Zero) && in.FiatFee.GreaterThan(money.Zero) {
		return nil, withLine(in.LineID, &taxerr.MalformedInputError{Reason: "crypto_fee and fiat_fee must not both be non-zero on an acquisition"})
	}

	totalFeeForSpotCheck := money.Max(in.CryptoFee.Mul(in.SpotPrice), in.FiatFee)
	if err := validateCommon(in.SpotPrice, totalFeeForSpotCheck); err != nil {
		return nil, withLine(in.LineID, err)
	}

	fiatInNoFee := in.CryptoIn.Mul(in.SpotPrice)
	if err := checkConsistent(in.LineID, "fiat_in_no_fee", in.FiatInNoFee, fiatInNoFee, in.FiatFieldTolerance); err != nil {
		return nil, err
	}

	fiatFee := in.FiatFee
	if in.CryptoFee.GreaterThan(money.Zero) {
		fiatFee = in.CryptoFee.Mul(in.SpotPrice)
	}
	fiatInWithFee := fiatInNoFee.Add(fiatFee)

	uid := in.UniqueID
	if uid == "" {
		uid = uuid.NewString()
	}

	return &Acquisition{
		common: common{
			timestamp: in.Timestamp,
			asset:     in.Asset,
			kind:      in.Kind,
			spotPrice: in.SpotPrice,
			lineID:    in.LineID,
			notes:     in.Notes,
		},
		Exchange:      in.Exchange,
		Holder:        in.Holder,
		CryptoIn:      in.CryptoIn,
		CryptoFee:     in.CryptoFee,
		FiatInNoFee:   fiatInNoFee,
		FiatInWithFee: fiatInWithFee,
		FiatFeeValue:  fiatFee,
		UniqueID:      uid,
	}, nil
}

// IsTaxable is true for every acquisition kind except BUY. A buy creates
// a cost basis but realizes no income.
func (a *Acquisition) IsTaxable() bool { return a.kind != BUY }

// FiatFee returns the fiat value of the (possibly derived) fee.
func (a *Acquisition) FiatFee() money.Decimal { return a.FiatFeeValue }

// FiatTaxableAmount is fiat_in_no_fee when taxable, else zero.
func (a *Acquisition) FiatTaxableAmount() money.Decimal {
	if !a.IsTaxable() {
		return money.Zero
	}
	return a.FiatInNoFee
}

// CryptoBalanceChange is the net crypto added to the holder's balance.
func (a *Acquisition) CryptoBalanceChange() money.Decimal { return a.CryptoIn }

// CryptoTaxableAmount is crypto_in when taxable, else zero.
func (a *Acquisition) CryptoTaxableAmount() money.Decimal {
	if !a.IsTaxable() {
		return money.Zero
	}
	return a.CryptoIn
}
