package accounting

import (
	"time"

	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/txtype"
)

// TotalAverage implements the Japanese NTA "total average method": the
// cost basis of every disposal in a tax year is priced at the average spot
// price of all lots acquired up to and including that year, weighted by
// each lot's current remaining amount. The window is cumulative: lots from
// earlier years stay in the average while they have a remaining amount,
// and only lots acquired in a later year than the event are left out.
//
// Unlike FIFO/LIFO/HIFO, a single SeekResult here is backed by every
// real lot with positive remaining amount whose purchase year is <= the
// event's year; the engine distributes a take across them proportionally
// to their current remaining amounts.
type TotalAverage struct{}

var _ Method = TotalAverage{}

func (TotalAverage) Name() string          { return "TOTAL_AVERAGE" }
func (TotalAverage) CandidateOrder() Order { return OldestFirst }

func (TotalAverage) SeekLot(ledger Ledger, event txtype.Transaction, amount money.Decimal) (SeekResult, error) {
	year := event.Timestamp().Year()

	var (
		totalRemaining  = money.Zero
		weightedSpot    = money.Zero
		earliest        time.Time
		earliestSet     bool
		constituents    []Constituent
	)
	for i := 0; i < ledger.Len(); i++ {
		lot := ledger.Acquisition(i)
		if lot.Timestamp().Year() > year {
			continue
		}
		remaining := ledger.Remaining(i)
		if !remaining.GreaterThan(money.Zero) {
			continue
		}
		totalRemaining = totalRemaining.Add(remaining)
		weightedSpot = weightedSpot.Add(remaining.Mul(lot.SpotPrice()))
		constituents = append(constituents, Constituent{LotIndex: i})
		if !earliestSet || lot.Timestamp().Before(earliest) {
			earliest = lot.Timestamp()
			earliestSet = true
		}
	}

	if totalRemaining.IsZero() || len(constituents) == 0 {
		return SeekResult{}, nil
	}

	avgSpot := weightedSpot.Div(totalRemaining)

	return SeekResult{
		Found:        true,
		PurchaseTime: earliest,
		SpotPrice:    avgSpot,
		Available:    totalRemaining,
		Constituents: constituents,
	}, nil
}
