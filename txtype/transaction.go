// Package txtype defines the transaction model: Acquisition, Disposal,
// and InterAccountTransfer. Acquisition and Disposal implement the shared
// Transaction interface; InterAccountTransfer does not (it exposes its data
// as plain fields and reaches the engine only after transform.Transform
// has split it into a synthetic MOVE disposal and balance bookkeeping).
package txtype

import (
	"time"

	"github.com/cryptotax/engine/money"
)

// TransactionType enumerates every transaction kind across all three
// variants. Which values are valid on which variant is enforced by each
// variant's constructor.
type TransactionType int

const (
	BUY TransactionType = iota
	AIRDROP
	DONATE_IN
	GIFT_IN
	HARDFORK
	INCOME
	INTEREST
	MINING
	STAKING
	WAGES

	SELL
	DONATE_OUT
	GIFT_OUT
	FEE

	MOVE // synthetic, emitted only by the input transformer
)

func (t TransactionType) String() string {
	switch t {
	case BUY:
		return "BUY"
	case AIRDROP:
		return "AIRDROP"
	case DONATE_IN:
		return "DONATE_IN"
	case GIFT_IN:
		return "GIFT_IN"
	case HARDFORK:
		return "HARDFORK"
	case INCOME:
		return "INCOME"
	case INTEREST:
		return "INTEREST"
	case MINING:
		return "MINING"
	case STAKING:
		return "STAKING"
	case WAGES:
		return "WAGES"
	case SELL:
		return "SELL"
	case DONATE_OUT:
		return "DONATE_OUT"
	case GIFT_OUT:
		return "GIFT_OUT"
	case FEE:
		return "FEE"
	case MOVE:
		return "MOVE"
	default:
		return "UNKNOWN"
	}
}

// acquisitionKinds is the set of transaction_type values valid on an
// Acquisition.
var acquisitionKinds = map[TransactionType]bool{
	BUY: true, AIRDROP: true, DONATE_IN: true, GIFT_IN: true, HARDFORK: true,
	INCOME: true, INTEREST: true, MINING: true, STAKING: true, WAGES: true,
}

// disposalKinds is the set of transaction_type values valid on a Disposal.
// MOVE is added by the input transformer, never by a parser.
var disposalKinds = map[TransactionType]bool{
	SELL: true, DONATE_OUT: true, GIFT_OUT: true, FEE: true, MOVE: true,
}

// Transaction is the capability set shared by Acquisition and Disposal.
// InterAccountTransfer does not implement it.
type Transaction interface {
	Timestamp() time.Time
	Asset() string
	Kind() TransactionType
	SpotPrice() money.Decimal
	LineID() int
	Notes() string

	FiatFee() money.Decimal
	FiatTaxableAmount() money.Decimal
	CryptoBalanceChange() money.Decimal
	CryptoTaxableAmount() money.Decimal

	IsTaxable() bool
}

// common holds the fields shared by Acquisition and Disposal.
type common struct {
	timestamp time.Time
	asset     string
	kind      TransactionType
	spotPrice money.Decimal
	lineID    int
	notes     string
}

func (c common) Timestamp() time.Time    { return c.timestamp }
func (c common) Asset() string           { return c.asset }
func (c common) Kind() TransactionType   { return c.kind }
func (c common) SpotPrice() money.Decimal { return c.spotPrice }
func (c common) LineID() int             { return c.lineID }
func (c common) Notes() string           { return c.notes }

func validateCommon(spotPrice, totalFee money.Decimal) error {
	if money.IsNegative(spotPrice) {
		return errNegative("spot_price")
	}
	if spotPrice.IsZero() && totalFee.GreaterThan(money.Zero) {
		return errZeroSpotWithFee()
	}
	return nil
}
