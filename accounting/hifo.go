package accounting

import (
	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/txtype"
)

// HIFO ("highest in, first out") consumes the non-exhausted lot with the
// greatest spot price first, ties broken by earlier purchase time.
type HIFO struct{}

var _ Method = HIFO{}

func (HIFO) Name() string          { return "HIFO" }
func (HIFO) CandidateOrder() Order { return OldestFirst }

func (HIFO) SeekLot(ledger Ledger, event txtype.Transaction, amount money.Decimal) (SeekResult, error) {
	best := -1
	for i := 0; i < ledger.Len(); i++ {
		if !ledger.Remaining(i).GreaterThan(money.Zero) {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		bestLot, candidate := ledger.Acquisition(best), ledger.Acquisition(i)
		switch candidate.SpotPrice().Cmp(bestLot.SpotPrice()) {
		case 1:
			best = i
		case 0:
			if candidate.Timestamp().Before(bestLot.Timestamp()) {
				best = i
			}
		}
	}
	if best == -1 {
		return SeekResult{}, nil
	}
	lot := ledger.Acquisition(best)
	return SeekResult{
		Found:        true,
		PurchaseTime: lot.Timestamp(),
		SpotPrice:    lot.SpotPrice(),
		Available:    ledger.Remaining(best),
		Constituents: []Constituent{{LotIndex: best}},
	}, nil
}
