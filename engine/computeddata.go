package engine

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/transform"
	"github.com/cryptotax/engine/txtype"
)

// GainTypeTotals aggregates the gain/loss records of one (year, capital
// gain type) bucket: total crypto disposed or received, fiat proceeds,
// fiat cost basis, and net fiat gain/loss.
type GainTypeTotals struct {
	CryptoAmount  money.Decimal
	FiatProceeds  money.Decimal
	FiatCostBasis money.Decimal
	FiatGainLoss  money.Decimal
}

func (t GainTypeTotals) add(g GainLoss) GainTypeTotals {
	return GainTypeTotals{
		CryptoAmount:  t.CryptoAmount.Add(g.CryptoAmount),
		FiatProceeds:  t.FiatProceeds.Add(g.FiatProceeds),
		FiatCostBasis: t.FiatCostBasis.Add(g.FiatCostBasis),
		FiatGainLoss:  t.FiatGainLoss.Add(g.FiatGainLoss),
	}
}

// YearSummary aggregates one tax year's realized results: short-term and
// long-term capital gains plus ordinary income (the acquisition-only
// records classified NONE), each with full crypto/fiat totals.
type YearSummary struct {
	Year int

	ShortTerm      GainTypeTotals
	LongTerm       GainTypeTotals
	OrdinaryIncome GainTypeTotals
}

// ComputedData is the immutable, per-asset artifact produced by Compute:
// the entry sets it was built from, every taxable-event/lot pairing the
// engine derived, the per-account balances it verified along the way, and
// the asset's volume-weighted average acquisition price. It is built once
// and never mutated -- callers (report generators) only read from it.
type ComputedData struct {
	Asset     string
	EntrySets *transform.PerAsset

	GainLossList []GainLoss
	Balances     map[AccountKey]AccountBalance

	// AveragePricePerUnit is the volume-weighted average spot price
	// across every BUY-kind acquisition of this asset: Σ(crypto_in ×
	// spot_price) / Σ(crypto_in).
	AveragePricePerUnit money.Decimal

	FromDate, ToDate time.Time
}

// Balance returns the final running balance for key, or the zero
// AccountBalance if key never appeared.
func (c *ComputedData) Balance(key AccountKey) AccountBalance {
	if b, ok := c.Balances[key]; ok {
		return b
	}
	return AccountBalance{Key: key}
}

// SortedBalances returns every AccountKey this asset produced a balance
// for, in (exchange, holder) order.
func (c *ComputedData) SortedBalances() []AccountBalance {
	out := make([]AccountBalance, 0, len(c.Balances))
	for _, b := range c.Balances {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Exchange != out[j].Key.Exchange {
			return out[i].Key.Exchange < out[j].Key.Exchange
		}
		return out[i].Key.Holder < out[j].Key.Holder
	})
	return out
}

// inWindow reports whether ts falls inside the inclusive [FromDate,
// ToDate] reporting window. A zero FromDate/ToDate leaves that side of
// the window open; transactions outside the window still contributed
// cost basis and balances upstream, they are only excluded here.
func (c *ComputedData) inWindow(ts time.Time) bool {
	if !c.FromDate.IsZero() && ts.Before(c.FromDate) {
		return false
	}
	if !c.ToDate.IsZero() && ts.After(c.ToDate) {
		return false
	}
	return true
}

// ReportableGainLoss returns the gain/loss records whose taxable event
// falls inside the reporting window, in the same order as GainLossList.
func (c *ComputedData) ReportableGainLoss() []GainLoss {
	out := make([]GainLoss, 0, len(c.GainLossList))
	for _, g := range c.GainLossList {
		if c.inWindow(g.TaxableEvent.Timestamp()) {
			out = append(out, g)
		}
	}
	return out
}

// byYear buckets gain/loss totals per tax year for each CapitalGainType,
// window-filtered.
func (c *ComputedData) byYear() (short, long, income map[int]GainTypeTotals) {
	short, long, income = map[int]GainTypeTotals{}, map[int]GainTypeTotals{}, map[int]GainTypeTotals{}
	for _, g := range c.ReportableGainLoss() {
		year := g.TaxableEvent.Timestamp().Year()
		switch g.CapitalGainType {
		case NONE:
			income[year] = income[year].add(g)
		case SHORT:
			short[year] = short[year].add(g)
		case LONG:
			long[year] = long[year].add(g)
		}
	}
	return short, long, income
}

// Years returns every tax year represented in this asset's reportable
// gain/loss records, sorted.
func (c *ComputedData) Years() []int {
	short, long, income := c.byYear()
	years := lo.Union(lo.Keys(short), lo.Keys(long), lo.Keys(income))
	sort.Ints(years)
	return years
}

// YearlySummary aggregates every reportable gain/loss record whose
// taxable event falls in year into one YearSummary.
func (c *ComputedData) YearlySummary(year int) YearSummary {
	short, long, income := c.byYear()
	return YearSummary{
		Year:           year,
		ShortTerm:      short[year],
		LongTerm:       long[year],
		OrdinaryIncome: income[year],
	}
}

// AllYearlySummaries returns YearlySummary for every year Years reports.
func (c *ComputedData) AllYearlySummaries() []YearSummary {
	years := c.Years()
	out := make([]YearSummary, len(years))
	for i, y := range years {
		out[i] = c.YearlySummary(y)
	}
	return out
}

// TotalAcquired sums crypto_in across every acquisition of this asset.
func (c *ComputedData) TotalAcquired() money.Decimal {
	total := money.Zero
	for _, t := range c.EntrySets.Acquisitions.All() {
		total = total.Add(t.CryptoBalanceChange())
	}
	return total
}

// TotalDisposed sums crypto_out_with_fee across every disposal of this
// asset, synthetic FEE and MOVE disposals included.
func (c *ComputedData) TotalDisposed() money.Decimal {
	total := money.Zero
	for _, t := range c.EntrySets.Disposals.All() {
		total = total.Add(t.CryptoBalanceChange())
	}
	return total
}

// averagePricePerUnit computes the volume-weighted average spot price
// across every BUY-kind acquisition in lots: Σ(crypto_in × spot_price) /
// Σ(crypto_in), or Zero if lots has no BUY-kind entries.
func averagePricePerUnit(lots []*txtype.Acquisition) money.Decimal {
	totalCrypto := money.Zero
	weightedSpot := money.Zero
	for _, a := range lots {
		if a.Kind() != txtype.BUY {
			continue
		}
		totalCrypto = totalCrypto.Add(a.CryptoIn)
		weightedSpot = weightedSpot.Add(a.CryptoIn.Mul(a.SpotPrice()))
	}
	if totalCrypto.IsZero() {
		return money.Zero
	}
	return weightedSpot.Div(totalCrypto)
}
