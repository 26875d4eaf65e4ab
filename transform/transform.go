// Package transform runs once between parsing and engine invocation,
// converting inter-account transfers into synthetic disposals and
// acquisitions whose fee was paid in-crypto into an acquisition plus a
// synthetic fee-only disposal, then partitions everything by asset into
// sealed entryset.EntrySet values. A fee is a sale, and a transfer
// preserves cost basis but spends a fee; expressing both as ordinary
// Disposal values up front means the pairing engine never special-cases
// MOVE/FEE.
package transform

import (
	"sort"
	"time"

	"github.com/cryptotax/engine/entryset"
	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/txtype"
)

// PerAsset holds the three sealed entry sets for a single asset.
type PerAsset struct {
	Asset        string
	Acquisitions *entryset.EntrySet
	Disposals    *entryset.EntrySet
	Transfers    *entryset.EntrySet // synthetic MOVE disposals (also present in Disposals), kept as their own entry set; balance derivation reads Result's TransferCredits/TransferDebits instead
}

// TransferCredit records the receiving side of an inter-account transfer:
// a pass-through credit that updates received_balance but never creates
// an acquired lot. The sent lots keep their original cost basis.
type TransferCredit struct {
	Asset     string
	Exchange  string
	Holder    string
	Amount    money.Decimal
	Timestamp time.Time
	LineID    int
}

// TransferDebit records the sending side of an inter-account transfer:
// the full crypto_sent amount leaves the source account's balance, even
// though only the crypto_fee portion of it is ever taxable (modeled
// separately as a synthetic MOVE disposal). Keeping the two apart avoids
// double-counting the fee in sent_balance.
type TransferDebit struct {
	Asset     string
	Exchange  string
	Holder    string
	Amount    money.Decimal
	Timestamp time.Time
	LineID    int
}

// Result is the output of Transform: per-asset entry sets plus the
// sending- and receiving-side transfer bookkeeping the balance
// derivation stage needs.
type Result struct {
	Assets          map[string]*PerAsset
	TransferCredits []TransferCredit
	TransferDebits  []TransferDebit
}

// Transform expands in-crypto acquisition fees and inter-account
// transfers into synthetic disposals, then partitions every transaction
// by asset into sealed entry sets.
func Transform(
	acquisitions []*txtype.Acquisition,
	disposals []*txtype.Disposal,
	transfers []*txtype.InterAccountTransfer,
) (*Result, error) {
	byAsset := map[string]*assetBucket{}

	bucket := func(asset string) *assetBucket {
		b, ok := byAsset[asset]
		if !ok {
			b = &assetBucket{}
			byAsset[asset] = b
		}
		return b
	}

	for _, a := range acquisitions {
		b := bucket(a.Asset())
		b.acquisitions = append(b.acquisitions, a)

		// Step 1: an acquisition whose fee was paid in-crypto spawns a
		// synthetic FEE-typed disposal for the fee amount, tie-broken
		// onto the same instant via the same line id ordering rule the
		// entry set already enforces (distinct line ids, same timestamp).
		if a.CryptoFee.GreaterThan(money.Zero) {
			feeDisposal, err := txtype.NewDisposal(txtype.DisposalInput{
				Timestamp:      a.Timestamp(),
				Asset:          a.Asset(),
				Kind:           txtype.FEE,
				SpotPrice:      a.SpotPrice(),
				LineID:         syntheticLineID(a.LineID(), 1),
				Exchange:       a.Exchange,
				Holder:         a.Holder,
				CryptoOutNoFee: money.Zero,
				CryptoFee:      a.CryptoFee,
				Notes:          "synthetic fee for acquisition " + a.UniqueID,
			})
			if err != nil {
				return nil, err
			}
			b.disposals = append(b.disposals, feeDisposal)
		}
	}

	for _, d := range disposals {
		b := bucket(d.Asset())
		b.disposals = append(b.disposals, d)
	}

	var transferCredits []TransferCredit
	var transferDebits []TransferDebit
	for _, xfer := range transfers {
		b := bucket(xfer.Asset)

		// Step 2: the sending side becomes a synthetic MOVE disposal for
		// tax purposes, taxable on the crypto_fee portion only. Its
		// balance impact is tracked separately by a TransferDebit for the
		// full crypto_sent amount, below, so the fee is never subtracted
		// from sent_balance twice.
		if xfer.CryptoFee.GreaterThan(money.Zero) {
			moveDisposal, err := txtype.NewDisposal(txtype.DisposalInput{
				Timestamp:      xfer.Timestamp,
				Asset:          xfer.Asset,
				Kind:           txtype.MOVE,
				SpotPrice:      xfer.SpotPrice,
				LineID:         syntheticLineID(xfer.LineID, 2),
				Exchange:       xfer.FromExchange,
				Holder:         xfer.FromHolder,
				CryptoOutNoFee: money.Zero,
				CryptoFee:      xfer.CryptoFee,
				Notes:          "synthetic transfer fee from " + xfer.FromExchange + " to " + xfer.ToExchange,
			})
			if err != nil {
				return nil, err
			}
			b.disposals = append(b.disposals, moveDisposal)
			b.transfers = append(b.transfers, moveDisposal)
		}

		// The sending side's full balance debit, independent of whether
		// any fee was charged.
		transferDebits = append(transferDebits, TransferDebit{
			Asset:     xfer.Asset,
			Exchange:  xfer.FromExchange,
			Holder:    xfer.FromHolder,
			Amount:    xfer.CryptoSent,
			Timestamp: xfer.Timestamp,
			LineID:    xfer.LineID,
		})

		// The receiving side never creates an acquired lot -- it is a
		// pass-through credit recorded for balance derivation only.
		transferCredits = append(transferCredits, TransferCredit{
			Asset:     xfer.Asset,
			Exchange:  xfer.ToExchange,
			Holder:    xfer.ToHolder,
			Amount:    xfer.CryptoReceived,
			Timestamp: xfer.Timestamp,
			LineID:    xfer.LineID,
		})
	}

	assets := make(map[string]*PerAsset, len(byAsset))
	for asset, b := range byAsset {
		pa := &PerAsset{
			Asset:        asset,
			Acquisitions: entryset.New(asset),
			Disposals:    entryset.New(asset),
			Transfers:    entryset.New(asset),
		}
		sortTransactions(b.acquisitions)
		for _, a := range b.acquisitions {
			if err := pa.Acquisitions.Insert(a); err != nil {
				return nil, err
			}
		}
		sortTransactions(b.disposals)
		for _, dd := range b.disposals {
			if err := pa.Disposals.Insert(dd); err != nil {
				return nil, err
			}
		}
		sortTransactions(b.transfers)
		for _, tt := range b.transfers {
			if err := pa.Transfers.Insert(tt); err != nil {
				return nil, err
			}
		}
		pa.Acquisitions.Seal()
		pa.Disposals.Seal()
		pa.Transfers.Seal()
		assets[asset] = pa
	}

	return &Result{Assets: assets, TransferCredits: transferCredits, TransferDebits: transferDebits}, nil
}

type assetBucket struct {
	acquisitions []*txtype.Acquisition
	disposals    []*txtype.Disposal
	transfers    []*txtype.Disposal
}

func sortTransactions[T txtype.Transaction](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := items[i].Timestamp(), items[j].Timestamp()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return items[i].LineID() < items[j].LineID()
	})
}

// syntheticLineID derives a stable, unique line id for a synthetic
// transaction spawned from an original line id. The offset keeps
// synthetic ids from ever colliding with parser-assigned ids as long as
// parser ids stay below 1,000,000 per run, and the tag distinguishes the
// fee (1) and move (2) synthesis sites from each other.
func syntheticLineID(originalLineID int, tag int) int {
	return originalLineID*10 + 1000000 + tag
}
