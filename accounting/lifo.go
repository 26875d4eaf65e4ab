package accounting

import (
	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/txtype"
)

// LIFO consumes the most-recently acquired non-exhausted lot first.
// SameYearOnly restricts candidates to the taxable event's tax year when
// the jurisdiction requires it; the engine imposes no such boundary
// itself.
type LIFO struct {
	SameYearOnly bool
}

var _ Method = LIFO{}

func (LIFO) Name() string          { return "LIFO" }
func (LIFO) CandidateOrder() Order { return NewestFirst }

func (m LIFO) SeekLot(ledger Ledger, event txtype.Transaction, amount money.Decimal) (SeekResult, error) {
	order := newestToOldestOrder(ledger)
	if !m.SameYearOnly {
		return seekFirstPositive(ledger, order)
	}

	year := event.Timestamp().Year()
	for _, i := range order {
		if ledger.Acquisition(i).Timestamp().Year() != year {
			continue
		}
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
