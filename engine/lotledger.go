package engine

import (
	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/txtype"
)

// lotLedger implements accounting.Ledger over one asset's sealed
// acquisitions entry set, tracking each lot's unconsumed amount alongside
// it. Take is driven by whichever accounting.Method is configured, not
// hardwired to oldest-first.
type lotLedger struct {
	lots      []*txtype.Acquisition
	remaining []money.Decimal
}

func newLotLedger(lots []*txtype.Acquisition) *lotLedger {
	remaining := make([]money.Decimal, len(lots))
	for i, l := range lots {
		remaining[i] = l.CryptoIn
	}
	return &lotLedger{lots: lots, remaining: remaining}
}

func (l *lotLedger) Len() int { return len(l.lots) }

func (l *lotLedger) Acquisition(i int) *txtype.Acquisition { return l.lots[i] }

func (l *lotLedger) Remaining(i int) money.Decimal { return l.remaining[i] }

func (l *lotLedger) HasPartialAmount(i int) bool {
	return l.remaining[i].GreaterThan(money.Zero) && l.remaining[i].LessThan(l.lots[i].CryptoIn)
}

func (l *lotLedger) Take(i int, amount money.Decimal) {
	l.remaining[i] = l.remaining[i].Sub(amount)
}
