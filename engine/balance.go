package engine

import (
	"sort"
	"time"

	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/taxerr"
	"github.com/cryptotax/engine/transform"
	"github.com/cryptotax/engine/txtype"
)

// AccountKey identifies one (asset, exchange, holder) running balance.
type AccountKey struct {
	Asset    string
	Exchange string
	Holder   string
}

// AccountBalance is the running acquired/sent/received total for one
// AccountKey, as of the end of the reporting run.
type AccountBalance struct {
	Key      AccountKey
	Acquired money.Decimal
	Sent     money.Decimal
	Received money.Decimal
}

// Final returns acquired + received - sent.
func (b AccountBalance) Final() money.Decimal {
	return b.Acquired.Add(b.Received).Sub(b.Sent)
}

// balanceEvent is one chronological step affecting exactly one
// AccountKey's running balance: an acquisition (acquired_balance), a
// disposal including synthetic FEE but not MOVE (sent_balance), a transfer
// debit (sent_balance), or a transfer credit (received_balance).
type balanceEvent struct {
	timestamp time.Time
	lineID    int
	key       AccountKey
	acquired  money.Decimal
	sent      money.Decimal
	received  money.Decimal
}

// account extracts the (exchange, holder) pair from a transaction's
// concrete variant. InterAccountTransfer never reaches this helper --
// its two sides are already expanded into a synthetic MOVE disposal and a
// transform.TransferCredit by the time balance derivation runs.
func account(t txtype.Transaction) (exchange, holder string) {
	switch v := t.(type) {
	case *txtype.Acquisition:
		return v.Exchange, v.Holder
	case *txtype.Disposal:
		return v.Exchange, v.Holder
	default:
		return "", ""
	}
}

// deriveBalances performs a single chronological walk over every balance-
// affecting event, checking the non-negativity invariant after every step
// rather than only at the end.
func deriveBalances(txResult *transform.Result) (map[AccountKey]*AccountBalance, error) {
	var events []balanceEvent

	for asset, pa := range txResult.Assets {
		for _, t := range pa.Acquisitions.All() {
			exchange, holder := account(t)
			events = append(events, balanceEvent{
				timestamp: t.Timestamp(),
				lineID:    t.LineID(),
				key:       AccountKey{Asset: asset, Exchange: exchange, Holder: holder},
				acquired:  t.CryptoBalanceChange(),
			})
		}
		for _, t := range pa.Disposals.All() {
			// The MOVE kind's balance impact is the full crypto_sent
			// amount, tracked below via TransferDebit -- using its
			// (fee-only) CryptoBalanceChange here would double-count the
			// fee against sent_balance.
			if t.Kind() == txtype.MOVE {
				continue
			}
			exchange, holder := account(t)
			events = append(events, balanceEvent{
				timestamp: t.Timestamp(),
				lineID:    t.LineID(),
				key:       AccountKey{Asset: asset, Exchange: exchange, Holder: holder},
				sent:      t.CryptoBalanceChange(),
			})
		}
	}
	for _, c := range txResult.TransferCredits {
		events = append(events, balanceEvent{
			timestamp: c.Timestamp,
			lineID:    c.LineID,
			key:       AccountKey{Asset: c.Asset, Exchange: c.Exchange, Holder: c.Holder},
			received:  c.Amount,
		})
	}
	for _, dbt := range txResult.TransferDebits {
		events = append(events, balanceEvent{
			timestamp: dbt.Timestamp,
			lineID:    dbt.LineID,
			key:       AccountKey{Asset: dbt.Asset, Exchange: dbt.Exchange, Holder: dbt.Holder},
			sent:      dbt.Amount,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].timestamp.Equal(events[j].timestamp) {
			return events[i].timestamp.Before(events[j].timestamp)
		}
		return events[i].lineID < events[j].lineID
	})

	balances := map[AccountKey]*AccountBalance{}
	for _, ev := range events {
		b, ok := balances[ev.key]
		if !ok {
			b = &AccountBalance{Key: ev.key}
			balances[ev.key] = b
		}
		b.Acquired = b.Acquired.Add(ev.acquired)
		b.Sent = b.Sent.Add(ev.sent)
		b.Received = b.Received.Add(ev.received)

		if money.IsNegative(b.Final()) {
			return nil, &taxerr.BalanceUnderflowError{
				LineID:   ev.lineID,
				Exchange: ev.key.Exchange,
				Holder:   ev.key.Holder,
				Asset:    ev.key.Asset,
				Balance:  b.Final(),
			}
		}
	}
	return balances, nil
}
