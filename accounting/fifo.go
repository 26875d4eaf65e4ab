package accounting

import (
	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/txtype"
)

// FIFO consumes the oldest non-exhausted acquired lot first.
type FIFO struct{}

var _ Method = FIFO{}

func (FIFO) Name() string          { return "FIFO" }
func (FIFO) CandidateOrder() Order { return OldestFirst }

func (FIFO) SeekLot(ledger Ledger, event txtype.Transaction, amount money.Decimal) (SeekResult, error) {
	return seekFirstPositive(ledger, oldestToNewestOrder(ledger))
}

// oldestToNewestOrder returns lot indices ordered earliest-purchase-first,
// stable on original entry-set order for ties (which is already
// chronological within an EntrySet).
func oldestToNewestOrder(ledger Ledger) []int {
	idx := make([]int, ledger.Len())
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// newestToOldestOrder returns lot indices ordered latest-purchase-first.
func newestToOldestOrder(ledger Ledger) []int {
	idx := oldestToNewestOrder(ledger)
	for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx
}

// seekFirstPositive scans order and returns the first lot with positive
// remaining amount.
func seekFirstPositive(ledger Ledger, order []int) (SeekResult, error) {
	for _, i := range order {
		remaining := ledger.Remaining(i)
		if remaining.GreaterThan(money.Zero) {
			lot := ledger.Acquisition(i)
			return SeekResult{
				Found:        true,
				PurchaseTime: lot.Timestamp(),
				SpotPrice:    lot.SpotPrice(),
				Available:    remaining,
				Constituents: []Constituent{{LotIndex: i}},
			}, nil
		}
	}
	return SeekResult{}, nil
}
