package engine_test

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/cryptotax/engine/accounting"
	"github.com/cryptotax/engine/config"
	"github.com/cryptotax/engine/engine"
	"github.com/cryptotax/engine/enginelog"
	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/taxerr"
	"github.com/cryptotax/engine/transform"
	"github.com/cryptotax/engine/txtype"
)

// mixedFixture builds an input with a buy paying an in-crypto fee, an
// income event between two sells, and a sell carrying a crypto fee. It
// exercises the synthetic FEE path; it has no transfers, so no MOVE
// disposal is synthesized.
func mixedFixture(t *testing.T) *transform.Result {
	t.Helper()
	a1 := mustAcquisition(t, txtype.AcquisitionInput{
		Timestamp: date("2020-01-01"), Asset: "BTC", Kind: txtype.BUY,
		SpotPrice: money.NewFromFloat(10000), LineID: 1, CryptoIn: money.NewFromFloat(2.0),
		CryptoFee: money.NewFromFloat(0.001),
		Exchange:  "Coinbase", Holder: "Alice",
	})
	d1 := mustDisposal(t, txtype.DisposalInput{
		Timestamp: date("2020-03-01"), Asset: "BTC", Kind: txtype.SELL,
		SpotPrice: money.NewFromFloat(30000), LineID: 2, CryptoOutNoFee: money.NewFromFloat(0.5),
		Exchange: "Coinbase", Holder: "Alice",
	})
	income := mustAcquisition(t, txtype.AcquisitionInput{
		Timestamp: date("2020-04-01"), Asset: "BTC", Kind: txtype.STAKING,
		SpotPrice: money.NewFromFloat(32000), LineID: 3, CryptoIn: money.NewFromFloat(0.05),
		Exchange: "Coinbase", Holder: "Alice",
	})
	d2 := mustDisposal(t, txtype.DisposalInput{
		Timestamp: date("2020-05-01"), Asset: "BTC", Kind: txtype.SELL,
		SpotPrice: money.NewFromFloat(35000), LineID: 4, CryptoOutNoFee: money.NewFromFloat(1.0),
		CryptoFee: money.NewFromFloat(0.002),
		Exchange:  "Coinbase", Holder: "Alice",
	})

	result, err := transform.Transform(
		[]*txtype.Acquisition{a1, income},
		[]*txtype.Disposal{d1, d2},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestGainLossListOrderedByTimestampThenLineID(t *testing.T) {
	g := NewGomegaWithT(t)

	byAsset, err := engine.Compute(testConfig(t), mixedFixture(t), accounting.FIFO{}, enginelog.Nop())
	g.Expect(err).NotTo(HaveOccurred())
	records := byAsset["BTC"].GainLossList
	g.Expect(len(records)).To(BeNumerically(">", 2))

	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1].TaxableEvent, records[i].TaxableEvent
		if prev.Timestamp().Equal(cur.Timestamp()) {
			g.Expect(prev.LineID() <= cur.LineID()).To(BeTrue())
			continue
		}
		g.Expect(prev.Timestamp().Before(cur.Timestamp())).To(BeTrue())
	}
}

func TestIncomeEventInterleavedBetweenDisposals(t *testing.T) {
	g := NewGomegaWithT(t)

	byAsset, err := engine.Compute(testConfig(t), mixedFixture(t), accounting.FIFO{}, enginelog.Nop())
	g.Expect(err).NotTo(HaveOccurred())
	records := byAsset["BTC"].GainLossList

	incomeIdx, lastSellIdx := -1, -1
	for i, r := range records {
		switch r.TaxableEvent.Kind() {
		case txtype.STAKING:
			incomeIdx = i
		case txtype.SELL:
			lastSellIdx = i
		}
	}
	g.Expect(incomeIdx).To(BeNumerically(">=", 0))
	g.Expect(incomeIdx).To(BeNumerically("<", lastSellIdx))
}

func TestMassConservationAcrossDisposals(t *testing.T) {
	g := NewGomegaWithT(t)

	byAsset, err := engine.Compute(testConfig(t), mixedFixture(t), accounting.FIFO{}, enginelog.Nop())
	g.Expect(err).NotTo(HaveOccurred())
	data := byAsset["BTC"]

	paired := money.Zero
	for _, r := range data.GainLossList {
		if r.CapitalGainType == engine.NONE {
			continue
		}
		paired = paired.Add(r.CryptoAmount)
	}
	g.Expect(paired.Equal(data.TotalDisposed())).To(BeTrue())
}

func TestTaxableEventFractionsSumToHundred(t *testing.T) {
	g := NewGomegaWithT(t)

	byAsset, err := engine.Compute(testConfig(t), mixedFixture(t), accounting.FIFO{}, enginelog.Nop())
	g.Expect(err).NotTo(HaveOccurred())

	byEvent := map[int]money.Decimal{}
	for _, r := range byAsset["BTC"].GainLossList {
		id := r.TaxableEvent.LineID()
		byEvent[id] = byEvent[id].Add(r.TaxableEventFractionPercent)
	}
	for id, sum := range byEvent {
		g.Expect(sum.Equal(money.Hundred)).To(BeTrue(), "event line %d fractions sum to %s", id, sum.String())
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	g := NewGomegaWithT(t)

	first, err := engine.Compute(testConfig(t), mixedFixture(t), accounting.FIFO{}, enginelog.Nop())
	g.Expect(err).NotTo(HaveOccurred())
	second, err := engine.Compute(testConfig(t), mixedFixture(t), accounting.FIFO{}, enginelog.Nop())
	g.Expect(err).NotTo(HaveOccurred())

	a, b := first["BTC"].GainLossList, second["BTC"].GainLossList
	g.Expect(len(a)).To(Equal(len(b)))
	for i := range a {
		g.Expect(a[i].TaxableEvent.LineID()).To(Equal(b[i].TaxableEvent.LineID()))
		g.Expect(a[i].CryptoAmount.Equal(b[i].CryptoAmount)).To(BeTrue())
		g.Expect(a[i].FiatGainLoss.Equal(b[i].FiatGainLoss)).To(BeTrue())
		g.Expect(a[i].CapitalGainType).To(Equal(b[i].CapitalGainType))
	}
}

func TestFeeDisposalConsumingEntireLot(t *testing.T) {
	g := NewGomegaWithT(t)

	a1 := mustAcquisition(t, txtype.AcquisitionInput{
		Timestamp: date("2020-01-01"), Asset: "BTC", Kind: txtype.BUY,
		SpotPrice: money.NewFromFloat(10000), LineID: 1, CryptoIn: money.NewFromFloat(0.01),
		Exchange: "Coinbase", Holder: "Alice",
	})
	fee := mustDisposal(t, txtype.DisposalInput{
		Timestamp: date("2020-02-01"), Asset: "BTC", Kind: txtype.FEE,
		SpotPrice: money.NewFromFloat(12000), LineID: 2, CryptoFee: money.NewFromFloat(0.01),
		Exchange: "Coinbase", Holder: "Alice",
	})

	result, err := transform.Transform([]*txtype.Acquisition{a1}, []*txtype.Disposal{fee}, nil)
	g.Expect(err).NotTo(HaveOccurred())

	byAsset, err := engine.Compute(testConfig(t), result, accounting.FIFO{}, enginelog.Nop())
	g.Expect(err).NotTo(HaveOccurred())
	data := byAsset["BTC"]

	records := data.GainLossList
	g.Expect(records).To(HaveLen(1))
	g.Expect(records[0].CryptoAmount.Equal(money.NewFromFloat(0.01))).To(BeTrue())
	g.Expect(records[0].AcquiredLotFractionPercent.Equal(money.Hundred)).To(BeTrue())

	balance := data.Balance(engine.AccountKey{Asset: "BTC", Exchange: "Coinbase", Holder: "Alice"})
	g.Expect(balance.Final().IsZero()).To(BeTrue())
}

func TestZeroDisposalsYieldsEmptyListAndNonZeroBalance(t *testing.T) {
	g := NewGomegaWithT(t)

	a1 := mustAcquisition(t, txtype.AcquisitionInput{
		Timestamp: date("2020-01-01"), Asset: "BTC", Kind: txtype.BUY,
		SpotPrice: money.NewFromFloat(10000), LineID: 1, CryptoIn: money.NewFromFloat(1.0),
		Exchange: "Coinbase", Holder: "Alice",
	})
	result, err := transform.Transform([]*txtype.Acquisition{a1}, nil, nil)
	g.Expect(err).NotTo(HaveOccurred())

	byAsset, err := engine.Compute(testConfig(t), result, accounting.FIFO{}, enginelog.Nop())
	g.Expect(err).NotTo(HaveOccurred())
	data := byAsset["BTC"]

	g.Expect(data.GainLossList).To(BeEmpty())
	balance := data.Balance(engine.AccountKey{Asset: "BTC", Exchange: "Coinbase", Holder: "Alice"})
	g.Expect(balance.Final().Equal(money.NewFromFloat(1.0))).To(BeTrue())
}

func TestReportingWindowFiltersSummariesButNotPairing(t *testing.T) {
	g := NewGomegaWithT(t)

	header := config.HeaderMapping{
		"timestamp": 0, "asset": 1, "transaction_type": 2, "spot_price": 3, "crypto_in": 4,
	}
	disposalHeader := config.HeaderMapping{
		"timestamp": 0, "asset": 1, "transaction_type": 2, "spot_price": 3, "crypto_out_no_fee": 4,
	}
	transferHeader := config.HeaderMapping{
		"timestamp": 0, "asset": 1, "from_exchange": 2, "from_holder": 3, "to_exchange": 4, "to_holder": 5,
		"crypto_sent": 6, "crypto_received": 7,
	}
	cfg, err := config.New(
		config.WithAssets("BTC"),
		config.WithExchanges("Coinbase"),
		config.WithHolders("Alice"),
		config.WithAcquisitionHeader(header),
		config.WithDisposalHeader(disposalHeader),
		config.WithTransferHeader(transferHeader),
		config.WithAccountingMethod("FIFO"),
		config.WithFiatCurrency("USD"),
		config.WithLongTermDays(365),
		config.WithTimeWindow(date("2021-01-01"), date("2021-12-31")),
	)
	g.Expect(err).NotTo(HaveOccurred())

	a1 := mustAcquisition(t, txtype.AcquisitionInput{
		Timestamp: date("2019-01-01"), Asset: "BTC", Kind: txtype.BUY,
		SpotPrice: money.NewFromFloat(5000), LineID: 1, CryptoIn: money.NewFromFloat(2.0),
		Exchange: "Coinbase", Holder: "Alice",
	})
	// Outside the window: consumes the first half of the lot anyway, so
	// the in-window sale below gets its cost basis from what is left.
	earlySell := mustDisposal(t, txtype.DisposalInput{
		Timestamp: date("2020-06-01"), Asset: "BTC", Kind: txtype.SELL,
		SpotPrice: money.NewFromFloat(9000), LineID: 2, CryptoOutNoFee: money.NewFromFloat(1.0),
		Exchange: "Coinbase", Holder: "Alice",
	})
	lateSell := mustDisposal(t, txtype.DisposalInput{
		Timestamp: date("2021-06-01"), Asset: "BTC", Kind: txtype.SELL,
		SpotPrice: money.NewFromFloat(40000), LineID: 3, CryptoOutNoFee: money.NewFromFloat(1.0),
		Exchange: "Coinbase", Holder: "Alice",
	})

	result, err := transform.Transform([]*txtype.Acquisition{a1}, []*txtype.Disposal{earlySell, lateSell}, nil)
	g.Expect(err).NotTo(HaveOccurred())

	byAsset, err := engine.Compute(cfg, result, accounting.FIFO{}, enginelog.Nop())
	g.Expect(err).NotTo(HaveOccurred())
	data := byAsset["BTC"]

	// Both sales are paired, only the in-window one is reportable.
	g.Expect(data.GainLossList).To(HaveLen(2))
	reportable := data.ReportableGainLoss()
	g.Expect(reportable).To(HaveLen(1))
	g.Expect(reportable[0].TaxableEvent.LineID()).To(Equal(3))

	g.Expect(data.Years()).To(Equal([]int{2021}))
	summary := data.YearlySummary(2021)
	g.Expect(summary.LongTerm.FiatGainLoss.Equal(money.NewFromFloat(35000))).To(BeTrue())
}

func TestTransferOverdraftIsBalanceUnderflow(t *testing.T) {
	g := NewGomegaWithT(t)

	a1 := mustAcquisition(t, txtype.AcquisitionInput{
		Timestamp: date("2020-01-01"), Asset: "BTC", Kind: txtype.BUY,
		SpotPrice: money.NewFromFloat(10000), LineID: 1, CryptoIn: money.NewFromFloat(1.0),
		Exchange: "Coinbase", Holder: "Alice",
	})
	// No fee, so no MOVE disposal is synthesized and pairing has nothing
	// to exhaust; only the balance walk can catch the overdraft.
	xfer := mustTransfer(t, txtype.TransferInput{
		Timestamp: date("2020-06-01"), Asset: "BTC", LineID: 2,
		FromExchange: "Coinbase", FromHolder: "Alice", ToExchange: "Ledger", ToHolder: "Alice",
		CryptoSent: money.NewFromFloat(2.0), CryptoReceived: money.NewFromFloat(2.0),
	})

	result, err := transform.Transform([]*txtype.Acquisition{a1}, nil, []*txtype.InterAccountTransfer{xfer})
	g.Expect(err).NotTo(HaveOccurred())

	_, err = engine.Compute(testConfig(t), result, accounting.FIFO{}, enginelog.Nop())
	g.Expect(err).To(HaveOccurred())

	var underflow *taxerr.BalanceUnderflowError
	g.Expect(errors.As(err, &underflow)).To(BeTrue())
	g.Expect(underflow.Exchange).To(Equal("Coinbase"))
}

func TestTotalAverageDistributesAcrossLots(t *testing.T) {
	g := NewGomegaWithT(t)

	a1 := mustAcquisition(t, txtype.AcquisitionInput{
		Timestamp: date("2020-01-01"), Asset: "BTC", Kind: txtype.BUY,
		SpotPrice: money.NewFromFloat(10000), LineID: 1, CryptoIn: money.NewFromFloat(1.0),
		Exchange: "Coinbase", Holder: "Alice",
	})
	a2 := mustAcquisition(t, txtype.AcquisitionInput{
		Timestamp: date("2020-02-01"), Asset: "BTC", Kind: txtype.BUY,
		SpotPrice: money.NewFromFloat(20000), LineID: 2, CryptoIn: money.NewFromFloat(1.0),
		Exchange: "Coinbase", Holder: "Alice",
	})
	d1 := mustDisposal(t, txtype.DisposalInput{
		Timestamp: date("2020-03-01"), Asset: "BTC", Kind: txtype.SELL,
		SpotPrice: money.NewFromFloat(30000), LineID: 3, CryptoOutNoFee: money.NewFromFloat(1.5),
		Exchange: "Coinbase", Holder: "Alice",
	})

	result, err := transform.Transform([]*txtype.Acquisition{a1, a2}, []*txtype.Disposal{d1}, nil)
	g.Expect(err).NotTo(HaveOccurred())

	byAsset, err := engine.Compute(testConfig(t), result, accounting.TotalAverage{}, enginelog.Nop())
	g.Expect(err).NotTo(HaveOccurred())
	data := byAsset["BTC"]

	// One record: the averaged pool covers the full 1.5 in a single seek.
	records := data.GainLossList
	g.Expect(records).To(HaveLen(1))
	g.Expect(records[0].CryptoAmount.Equal(money.NewFromFloat(1.5))).To(BeTrue())
	g.Expect(records[0].LotSpotPrice.Equal(money.NewFromFloat(15000))).To(BeTrue())
	g.Expect(records[0].FiatCostBasis.Equal(money.NewFromFloat(22500))).To(BeTrue())
	g.Expect(records[0].AcquiredLot).To(BeNil())
}
