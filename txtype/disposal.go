package txtype

import (
	"time"

	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/taxerr"
	"github.com/google/uuid"
)

// Disposal models a SELL, outgoing DONATE/GIFT, or a fee-only FEE event.
// The synthetic MOVE kind is emitted only by the input transformer, never
// by a parser.
type Disposal struct {
	common

	Exchange string
	Holder   string

	CryptoOutNoFee   money.Decimal
	CryptoFee        money.Decimal
	CryptoOutWithFee money.Decimal
	FiatOutNoFee     money.Decimal
	FiatFeeValue     money.Decimal
	UniqueID         string
}

var _ Transaction = (*Disposal)(nil)

// DisposalInput carries the raw, already-parsed fields for a disposal.
type DisposalInput struct {
	Timestamp time.Time
	Asset     string
	Kind      TransactionType
	SpotPrice money.Decimal
	LineID    int
	Notes     string

	Exchange string
	Holder   string

	CryptoOutNoFee money.Decimal
	CryptoFee      money.Decimal
	// FiatFee, when supplied, overrides the crypto_fee * spot_price
	// derivation.
	FiatFee money.Decimal

	// FiatOutNoFee, when supplied by a parser that computed it
	// independently, is checked against this package's own
	// crypto_out_no_fee * spot_price derivation within FiatFieldTolerance;
	// nil means the parser supplies nothing to check.
	FiatOutNoFee       *money.Decimal
	FiatFieldTolerance money.Decimal

	UniqueID string
}

// NewDisposal validates in and returns a fully-derived Disposal.
func NewDisposal(in DisposalInput) (*Disposal, error) {
	if !disposalKinds[in.Kind] {
		return nil, withLine(in.LineID, &taxerr.MalformedInputError{Reason: "transaction_type " + in.Kind.String() + " is not valid for a disposal"})
	}
	if money.IsNegative(in.CryptoOutNoFee) {
		return nil, withLine(in.LineID, errNegative("crypto_out_no_fee"))
	}
	if money.IsNegative(in.CryptoFee) {
		return nil, withLine(in.LineID, errNegative("crypto_fee"))
	}
	if in.Kind == FEE && !in.CryptoOutNoFee.IsZero() {
		return nil, withLine(in.LineID, &taxerr.MalformedInputError{Reason: "a FEE-typed disposal must have crypto_out_no_fee == 0"})
	}

	cryptoOutWithFee := in.CryptoOutNoFee.Add(in.CryptoFee)

	fiatFee := in.CryptoFee.Mul(in.SpotPrice)
	if in.FiatFee.GreaterThan(money.Zero) {
		fiatFee = in.FiatFee
	}

	if err := validateCommon(in.SpotPrice, fiatFee); err != nil {
		return nil, withLine(in.LineID, err)
	}

	fiatOutNoFee := in.CryptoOutNoFee.Mul(in.SpotPrice)
	if err := checkConsistent(in.LineID, "fiat_out_no_fee", in.FiatOutNoFee, fiatOutNoFee, in.FiatFieldTolerance); err != nil {
		return nil, err
	}

	uid := in.UniqueID
	if uid == "" {
		uid = uuid.NewString()
	}

	return &Disposal{
		common: common{
			timestamp: in.Timestamp,
			asset:     in.Asset,
			kind:      in.Kind,
			spotPrice: in.SpotPrice,
			lineID:    in.LineID,
			notes:     in.Notes,
		},
		Exchange:         in.Exchange,
		Holder:           in.Holder,
		CryptoOutNoFee:   in.CryptoOutNoFee,
		CryptoFee:        in.CryptoFee,
		CryptoOutWithFee: cryptoOutWithFee,
		FiatOutNoFee:     fiatOutNoFee,
		FiatFeeValue:     fiatFee,
		UniqueID:         uid,
	}, nil
}

// IsTaxable is true iff crypto_out_with_fee > 0.
func (d *Disposal) IsTaxable() bool { return d.CryptoOutWithFee.GreaterThan(money.Zero) }

// FiatFee returns the fiat value of the (possibly derived) fee.
func (d *Disposal) FiatFee() money.Decimal { return d.FiatFeeValue }

// FiatTaxableAmount is fiat_out_no_fee + fiat_fee: the full fiat proceeds
// realized by the disposal, fee included.
func (d *Disposal) FiatTaxableAmount() money.Decimal {
	return d.FiatOutNoFee.Add(d.FiatFeeValue)
}

// CryptoBalanceChange is the net crypto removed from the holder's balance
// (negative direction is implicit -- callers subtract it).
func (d *Disposal) CryptoBalanceChange() money.Decimal { return d.CryptoOutWithFee }

// CryptoTaxableAmount is crypto_out_with_fee.
func (d *Disposal) CryptoTaxableAmount() money.Decimal { return d.CryptoOutWithFee }
