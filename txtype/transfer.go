package txtype

import (
	"time"

	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/taxerr"
)

// InterAccountTransfer models a move of crypto between two (exchange,
// holder) accounts. It is never itself a taxable event: the input
// transformer splits it into a synthetic MOVE disposal (the fee) on the
// sending account, and a pass-through credit to the receiving account's
// received_balance that creates no new acquired lot.
type InterAccountTransfer struct {
	Timestamp time.Time
	Asset     string
	LineID    int
	Notes     string

	FromExchange string
	FromHolder   string
	ToExchange   string
	ToHolder     string

	CryptoSent     money.Decimal
	CryptoReceived money.Decimal
	CryptoFee      money.Decimal

	// SpotPrice may be the zero Decimal when the transfer itself carries
	// no fee.
	SpotPrice money.Decimal
}

// TransferInput carries the raw, already-parsed fields for a transfer.
type TransferInput struct {
	Timestamp time.Time
	Asset     string
	LineID    int
	Notes     string

	FromExchange string
	FromHolder   string
	ToExchange   string
	ToHolder     string

	CryptoSent     money.Decimal
	CryptoReceived money.Decimal
	SpotPrice      money.Decimal
}

// NewInterAccountTransfer validates in and derives crypto_fee = crypto_sent - crypto_received.
func NewInterAccountTransfer(in TransferInput) (*InterAccountTransfer, error) {
	if money.IsNegative(in.CryptoSent) {
		return nil, withLine(in.LineID, errNegative("crypto_sent"))
	}
	if money.IsNegative(in.CryptoReceived) {
		return nil, withLine(in.LineID, errNegative("crypto_received"))
	}
	cryptoFee := in.CryptoSent.Sub(in.CryptoReceived)
	if money.IsNegative(cryptoFee) {
		return nil, withLine(in.LineID, &taxerr.MalformedInputError{Reason: "crypto_received must not exceed crypto_sent"})
	}
	if cryptoFee.GreaterThan(money.Zero) && in.SpotPrice.IsZero() {
		return nil, withLine(in.LineID, errZeroSpotWithFee())
	}

	return &InterAccountTransfer{
		Timestamp:      in.Timestamp,
		Asset:          in.Asset,
		LineID:         in.LineID,
		Notes:          in.Notes,
		FromExchange:   in.FromExchange,
		FromHolder:     in.FromHolder,
		ToExchange:     in.ToExchange,
		ToHolder:       in.ToHolder,
		CryptoSent:     in.CryptoSent,
		CryptoReceived: in.CryptoReceived,
		CryptoFee:      cryptoFee,
		SpotPrice:      in.SpotPrice,
	}, nil
}
