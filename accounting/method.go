// Package accounting defines the pluggable accounting-method protocol: a
// value that orders acquired-lot candidates and seeks the next
// non-exhausted lot for a given taxable-event amount. FIFO, LIFO, HIFO,
// and TotalAverage each implement Method in their own file.
//
// The seek procedure is expressed as a two-armed sum return (SeekResult
// with Found false meaning "exhausted") rather than a sentinel error or
// panic; the engine matches on it and either continues or reports lot
// exhaustion.
package accounting

import (
	"time"

	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/txtype"
)

// Order is the traversal direction a Method scans acquired-lot candidates in.
type Order int

const (
	// OldestFirst scans acquired lots from earliest to latest purchase time.
	OldestFirst Order = iota
	// NewestFirst scans acquired lots from latest to earliest purchase time.
	NewestFirst
)

// Ledger is the read/write view over one asset's acquired lots that a
// Method consults and the engine mutates via Take. Implemented by *engine.lotLedger;
// defined here so accounting has no dependency on the engine package.
type Ledger interface {
	// Len is the number of acquisitions tracked (in original entry-set order).
	Len() int
	// Acquisition returns the i'th acquisition (in original entry-set order).
	Acquisition(i int) *txtype.Acquisition
	// Remaining returns the unconsumed amount of the i'th acquisition.
	Remaining(i int) money.Decimal
	// HasPartialAmount reports whether the i'th acquisition has been
	// partially, but not fully, consumed already.
	HasPartialAmount(i int) bool
	// Take decrements the i'th acquisition's remaining amount by amount.
	// Callers must ensure amount <= Remaining(i).
	Take(i int, amount money.Decimal)
}

// Constituent is one real acquired lot contributing to a SeekResult. For
// ordinary methods (FIFO/LIFO/HIFO) a SeekResult has exactly one
// Constituent; TotalAverage may return several, whose current Remaining()
// values are used by the engine to distribute a take proportionally.
type Constituent struct {
	LotIndex int
}

// SeekResult is returned by Method.SeekLot. A zero-value SeekResult (Found
// false) signals that no lot satisfies the method's selection rule --
// the engine reports AcquiredLotsExhaustedError in that case.
type SeekResult struct {
	Found bool

	// PurchaseTime and SpotPrice describe the (possibly synthetic, for
	// TotalAverage) cost-basis lot the engine should price the taxable
	// event fraction against.
	PurchaseTime time.Time
	SpotPrice    money.Decimal

	// Available is the amount obtainable from this result before the
	// engine must seek again.
	Available money.Decimal

	// Constituents lists the real acquired lots backing this result, for
	// the engine to decrement via Ledger.Take. Exactly one entry for
	// FIFO/LIFO/HIFO; possibly many for TotalAverage.
	Constituents []Constituent
}

// Method selects which acquired lot pairs with the current taxable-event
// amount.
type Method interface {
	// Name identifies the method, e.g. "FIFO", for PluginRegistry lookup.
	Name() string
	// CandidateOrder determines the direction SeekLot conceptually scans
	// acquired lots in.
	CandidateOrder() Order
	// SeekLot selects the next non-exhausted acquired lot (or synthetic
	// averaged lot) for amount of event. ledger is always the full,
	// original-order view; the method applies CandidateOrder itself.
	SeekLot(ledger Ledger, event txtype.Transaction, amount money.Decimal) (SeekResult, error)
}
