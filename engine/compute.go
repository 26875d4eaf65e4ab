package engine

import (
	"sort"

	"github.com/cryptotax/engine/accounting"
	"github.com/cryptotax/engine/config"
	"github.com/cryptotax/engine/enginelog"
	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/taxerr"
	"github.com/cryptotax/engine/transform"
	"github.com/cryptotax/engine/txtype"
)

// Compute runs the gain/loss pairing algorithm and the balance derivation
// over txResult, using method to select acquired lots, and assembles one
// immutable ComputedData artifact per asset. Assets are processed in
// sorted order so output is deterministic.
func Compute(cfg *config.Configuration, txResult *transform.Result, method accounting.Method, logger enginelog.Logger) (map[string]*ComputedData, error) {
	assets := make([]string, 0, len(txResult.Assets))
	for asset := range txResult.Assets {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	// Pairing runs before balance derivation: a disposal that outruns the
	// asset's acquisitions reports lot exhaustion, not the balance
	// underflow the same input would also produce.
	gainLossByAsset := make(map[string][]GainLoss, len(assets))
	for _, asset := range assets {
		gainLoss, err := computeAsset(cfg, txResult.Assets[asset], method, logger)
		if err != nil {
			return nil, err
		}
		gainLossByAsset[asset] = gainLoss
	}

	balances, err := deriveBalances(txResult)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*ComputedData, len(assets))
	for _, asset := range assets {
		pa := txResult.Assets[asset]
		gainLoss := gainLossByAsset[asset]

		lotTxns := pa.Acquisitions.All()
		lots := make([]*txtype.Acquisition, len(lotTxns))
		for i, t := range lotTxns {
			lots[i] = t.(*txtype.Acquisition)
		}

		assetBalances := map[AccountKey]AccountBalance{}
		for key, b := range balances {
			if key.Asset == asset {
				assetBalances[key] = *b
			}
		}

		out[asset] = &ComputedData{
			Asset:               asset,
			EntrySets:           pa,
			GainLossList:        gainLoss,
			Balances:            assetBalances,
			AveragePricePerUnit: averagePricePerUnit(lots),
			FromDate:            cfg.FromDate(),
			ToDate:              cfg.ToDate(),
		}
	}

	return out, nil
}

func computeAsset(cfg *config.Configuration, pa *transform.PerAsset, method accounting.Method, logger enginelog.Logger) ([]GainLoss, error) {
	lotTxns := pa.Acquisitions.All()
	lots := make([]*txtype.Acquisition, len(lotTxns))
	for i, t := range lotTxns {
		lots[i] = t.(*txtype.Acquisition)
	}
	ledger := newLotLedger(lots)

	// Taxable events are the disposals plus every income-kind acquisition,
	// interleaved in (timestamp, line id) order so the emitted gain/loss
	// list is strictly ordered by that key.
	events := make([]txtype.Transaction, 0, len(lots)+pa.Disposals.Len())
	for _, a := range lots {
		if a.IsTaxable() {
			events = append(events, a)
		}
	}
	for _, t := range pa.Disposals.All() {
		if t.IsTaxable() {
			events = append(events, t)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp().Equal(events[j].Timestamp()) {
			return events[i].Timestamp().Before(events[j].Timestamp())
		}
		return events[i].LineID() < events[j].LineID()
	})

	var out []GainLoss
	for _, e := range events {
		switch e := e.(type) {
		case *txtype.Acquisition:
			// Income-kind acquisitions realize ordinary income on
			// receipt; they never consume a lot of their own.
			out = append(out, GainLoss{
				TaxableEvent:                e,
				CryptoAmount:                e.CryptoTaxableAmount(),
				FiatProceeds:                e.FiatTaxableAmount(),
				FiatCostBasis:               money.Zero,
				FiatGainLoss:                e.FiatTaxableAmount(),
				CapitalGainType:             NONE,
				TaxableEventFractionPercent: money.Hundred,
				AcquiredLotFractionPercent:  money.Zero,
			})
		case *txtype.Disposal:
			records, err := pairDisposal(cfg, ledger, method, e, logger)
			if err != nil {
				return nil, err
			}
			out = append(out, records...)
		}
	}

	return out, nil
}

// pairDisposal seeks lots for d's full taxable amount, possibly across
// several SeekLot calls and several Constituents per call, emitting one
// GainLoss per fraction actually taken.
func pairDisposal(cfg *config.Configuration, ledger *lotLedger, method accounting.Method, d *txtype.Disposal, logger enginelog.Logger) ([]GainLoss, error) {
	eventTotal := d.CryptoTaxableAmount()
	need := eventTotal

	var records []GainLoss
	for need.GreaterThan(money.Zero) {
		result, err := method.SeekLot(ledger, d, need)
		if err != nil {
			return nil, err
		}
		if !result.Found {
			logger.Warn().
				Int("line_id", d.LineID()).
				Str("asset", d.Asset()).
				Str("remaining", need.String()).
				Msg("acquired lots exhausted")
			return nil, &taxerr.AcquiredLotsExhaustedError{LineID: d.LineID(), Asset: d.Asset(), Remaining: need}
		}

		take := money.Min(need, result.Available)
		distributeTake(ledger, result.Constituents, take, result.Available)

		record := GainLoss{
			TaxableEvent:                d,
			LotAcquisitionTime:          result.PurchaseTime,
			LotSpotPrice:                result.SpotPrice,
			CryptoAmount:                take,
			FiatCostBasis:               take.Mul(result.SpotPrice),
			CapitalGainType:             classifyHoldingPeriod(result.PurchaseTime, d.Timestamp(), cfg.LongTermDays()),
			TaxableEventFractionPercent: money.Percent(take, eventTotal),
			AcquiredLotFractionPercent:  money.Percent(take, result.Available),
		}
		if len(result.Constituents) == 1 {
			record.AcquiredLot = ledger.Acquisition(result.Constituents[0].LotIndex)
			record.AcquiredLotFractionPercent = money.Percent(take, record.AcquiredLot.CryptoIn)
		}
		// take * spot_price rather than a (take/eventTotal) ratio of
		// fiat_taxable_amount: exact under Decimal arithmetic (no
		// division), and the two agree whenever the disposal's fiat fee
		// wasn't overridden away from crypto_fee * spot_price.
		record.FiatProceeds = take.Mul(d.SpotPrice())
		record.FiatGainLoss = record.FiatProceeds.Sub(record.FiatCostBasis)

		records = append(records, record)
		need = need.Sub(take)
	}
	return records, nil
}

// distributeTake decrements ledger by take, split across constituents
// proportionally to each one's current remaining amount. The last
// constituent absorbs whatever rounding remainder is left, so the sum of
// decrements is always exactly take.
func distributeTake(ledger *lotLedger, constituents []accounting.Constituent, take, available money.Decimal) {
	if len(constituents) == 1 {
		ledger.Take(constituents[0].LotIndex, take)
		return
	}

	left := take
	for i, c := range constituents {
		if i == len(constituents)-1 {
			ledger.Take(c.LotIndex, left)
			return
		}
		share := take.Mul(ledger.Remaining(c.LotIndex)).Div(available)
		ledger.Take(c.LotIndex, share)
		left = left.Sub(share)
	}
}
