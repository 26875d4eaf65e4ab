// Package engine implements the gain/loss pairing algorithm, balance and
// summary derivation, and the per-asset ComputedData artifact returned to
// report generators. Each taxable event is paired against acquired-lot
// fractions selected by a pluggable accounting.Method; a single event may
// split across many lots and a single lot may serve many events.
package engine

import (
	"time"

	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/txtype"
)

// CapitalGainType classifies a GainLoss record's holding period.
type CapitalGainType int

const (
	// NONE applies to acquisition-only income events, which realize
	// ordinary income rather than a capital gain or loss.
	NONE CapitalGainType = iota
	// SHORT applies when the holding period is below the jurisdiction's
	// long-term threshold.
	SHORT
	// LONG applies when the holding period is at or above the threshold.
	LONG
)

func (c CapitalGainType) String() string {
	switch c {
	case LONG:
		return "LONG"
	case SHORT:
		return "SHORT"
	default:
		return "NONE"
	}
}

// GainLoss links one taxable-event fraction to one acquired-lot fraction
// (or, for acquisition-only income events, to no lot at all).
type GainLoss struct {
	TaxableEvent txtype.Transaction

	// AcquiredLot is nil for acquisition-only taxable events (MINING and
	// similar income kinds have no paired acquired lot) and for fractions
	// backed by more than one real lot (a TotalAverage pool), which are
	// priced against a synthetic averaged lot. A TotalAverage pool backed by
	// a single lot sets it to that lot.
	AcquiredLot *txtype.Acquisition

	// LotAcquisitionTime is always populated: AcquiredLot.Timestamp() when
	// AcquiredLot is non-nil, else the synthetic lot's purchase time (or
	// the zero time for acquisition-only events, where it is unused).
	LotAcquisitionTime time.Time
	// LotSpotPrice is the (possibly averaged) acquisition price the
	// cost basis was computed against.
	LotSpotPrice money.Decimal

	CryptoAmount money.Decimal

	FiatCostBasis money.Decimal
	FiatProceeds  money.Decimal
	FiatGainLoss  money.Decimal

	CapitalGainType CapitalGainType

	TaxableEventFractionPercent money.Decimal
	AcquiredLotFractionPercent  money.Decimal
}

// classifyHoldingPeriod returns LONG when the gap between acquisition and
// disposal is at or above longTermDays, else SHORT. The boundary is
// inclusive: a lot held exactly longTermDays qualifies as long-term.
func classifyHoldingPeriod(acquired, disposed time.Time, longTermDays int) CapitalGainType {
	threshold := time.Duration(longTermDays) * 24 * time.Hour
	if disposed.Sub(acquired) >= threshold {
		return LONG
	}
	return SHORT
}
