// Package config holds the immutable, validated Configuration that the
// rest of the engine consults for asset/exchange/holder membership,
// column-to-field mappings, the reporting time window, and the selected
// accounting method name. Configuration is built once, by the driver, and
// is read-only from then on.
package config

import (
	"sort"
	"strconv"
	"time"

	"github.com/cryptotax/engine/money"
	"github.com/cryptotax/engine/taxerr"
)

// HeaderMapping maps a mandatory field name to the column index that
// holds it in one of the three input tables.
type HeaderMapping map[string]int

// Mandatory field sets for each of the three input tables.
var (
	AcquisitionMandatoryFields = []string{"timestamp", "asset", "transaction_type", "spot_price", "crypto_in"}
	DisposalMandatoryFields    = []string{"timestamp", "asset", "transaction_type", "spot_price", "crypto_out_no_fee"}
	TransferMandatoryFields    = []string{"timestamp", "asset", "from_exchange", "from_holder", "to_exchange", "to_holder", "crypto_sent", "crypto_received"}
)

// Configuration is the immutable run descriptor. All fields are fixed at
// construction.
type Configuration struct {
	assets    map[string]struct{}
	exchanges map[string]struct{}
	holders   map[string]struct{}

	acquisitionHeader HeaderMapping
	disposalHeader    HeaderMapping
	transferHeader    HeaderMapping

	fromDate time.Time
	toDate   time.Time

	accountingMethod string

	fiatCurrency string
	longTermDays int

	fiatFieldTolerance money.Decimal
}

// Option configures a Configuration under construction.
type Option func(*buildState)

type buildState struct {
	assets, exchanges, holders []string
	acquisitionHeader          HeaderMapping
	disposalHeader             HeaderMapping
	transferHeader             HeaderMapping
	fromDate, toDate           time.Time
	accountingMethod           string
	fiatCurrency               string
	longTermDays               int
	fiatFieldTolerance         money.Decimal
}

// WithAssets sets the allowed asset set.
func WithAssets(assets ...string) Option { return func(b *buildState) { b.assets = assets } }

// WithExchanges sets the allowed exchange set.
func WithExchanges(exchanges ...string) Option { return func(b *buildState) { b.exchanges = exchanges } }

// WithHolders sets the allowed holder set.
func WithHolders(holders ...string) Option { return func(b *buildState) { b.holders = holders } }

// WithAcquisitionHeader sets the column mapping for the acquisitions table.
func WithAcquisitionHeader(h HeaderMapping) Option {
	return func(b *buildState) { b.acquisitionHeader = h }
}

// WithDisposalHeader sets the column mapping for the disposals table.
func WithDisposalHeader(h HeaderMapping) Option {
	return func(b *buildState) { b.disposalHeader = h }
}

// WithTransferHeader sets the column mapping for the inter-account
// transfers table.
func WithTransferHeader(h HeaderMapping) Option {
	return func(b *buildState) { b.transferHeader = h }
}

// WithTimeWindow sets the inclusive [from, to] reporting filter.
func WithTimeWindow(from, to time.Time) Option {
	return func(b *buildState) { b.fromDate, b.toDate = from, to }
}

// WithAccountingMethod names the accounting method to resolve via the
// accounting.PluginRegistry.
func WithAccountingMethod(name string) Option {
	return func(b *buildState) { b.accountingMethod = name }
}

// WithFiatCurrency sets the fiat currency code, e.g. "USD".
func WithFiatCurrency(code string) Option { return func(b *buildState) { b.fiatCurrency = code } }

// WithLongTermDays sets the long-term capital-gain holding period, in days.
func WithLongTermDays(days int) Option { return func(b *buildState) { b.longTermDays = days } }

// WithFiatFieldTolerance sets the tolerance taxerr.InconsistentAmountError
// allows between a parser-supplied fiat field and this module's own
// derivation of it. Omitting this option leaves the tolerance at zero,
// requiring exact agreement.
func WithFiatFieldTolerance(tolerance money.Decimal) Option {
	return func(b *buildState) { b.fiatFieldTolerance = tolerance }
}

// New validates and constructs a Configuration.
func New(opts ...Option) (*Configuration, error) {
	b := &buildState{}
	for _, opt := range opts {
		opt(b)
	}

	if len(b.assets) == 0 {
		return nil, &taxerr.ConfigurationError{Reason: "assets set must not be empty"}
	}
	if len(b.exchanges) == 0 {
		return nil, &taxerr.ConfigurationError{Reason: "exchanges set must not be empty"}
	}
	if len(b.holders) == 0 {
		return nil, &taxerr.ConfigurationError{Reason: "holders set must not be empty"}
	}

	if err := validateHeader(b.acquisitionHeader, AcquisitionMandatoryFields); err != nil {
		return nil, err
	}
	if err := validateHeader(b.disposalHeader, DisposalMandatoryFields); err != nil {
		return nil, err
	}
	if err := validateHeader(b.transferHeader, TransferMandatoryFields); err != nil {
		return nil, err
	}

	if b.accountingMethod == "" {
		return nil, &taxerr.ConfigurationError{Reason: "accounting method name must not be empty"}
	}
	if b.fiatCurrency == "" {
		return nil, &taxerr.ConfigurationError{Reason: "fiat currency code must not be empty"}
	}
	if b.longTermDays <= 0 {
		return nil, &taxerr.ConfigurationError{Reason: "long-term holding period must be a positive number of days"}
	}

	return &Configuration{
		assets:            toSet(b.assets),
		exchanges:         toSet(b.exchanges),
		holders:           toSet(b.holders),
		acquisitionHeader: b.acquisitionHeader,
		disposalHeader:    b.disposalHeader,
		transferHeader:    b.transferHeader,
		fromDate:          b.fromDate,
		toDate:            b.toDate,
		accountingMethod:   b.accountingMethod,
		fiatCurrency:       b.fiatCurrency,
		longTermDays:       b.longTermDays,
		fiatFieldTolerance: b.fiatFieldTolerance,
	}, nil
}

func toSet(values []string) map[string]struct{} {
	s := make(map[string]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func validateHeader(header HeaderMapping, mandatory []string) error {
	if header == nil {
		return &taxerr.ConfigurationError{Reason: "header mapping must not be nil"}
	}
	seen := map[int]string{}
	for field, col := range header {
		if col < 0 {
			return &taxerr.ConfigurationError{Reason: "column index for field " + field + " must not be negative"}
		}
		if existing, ok := seen[col]; ok {
			return &taxerr.ConfigurationError{Reason: "duplicate column index " + strconv.Itoa(col) + " used by both " + existing + " and " + field}
		}
		seen[col] = field
	}
	for _, field := range mandatory {
		if _, ok := header[field]; !ok {
			return &taxerr.ConfigurationError{Reason: "missing mandatory header field: " + field}
		}
	}
	return nil
}

// IsKnownAsset reports whether s is in the configured asset set.
func (c *Configuration) IsKnownAsset(s string) bool { _, ok := c.assets[s]; return ok }

// IsKnownExchange reports whether s is in the configured exchange set.
func (c *Configuration) IsKnownExchange(s string) bool { _, ok := c.exchanges[s]; return ok }

// IsKnownHolder reports whether s is in the configured holder set.
func (c *Configuration) IsKnownHolder(s string) bool { _, ok := c.holders[s]; return ok }

// CheckAsset returns a taxerr.UnknownReferenceError if asset is not known.
func (c *Configuration) CheckAsset(lineID int, asset string) error {
	if !c.IsKnownAsset(asset) {
		return &taxerr.UnknownReferenceError{LineID: lineID, Kind: "asset", Value: asset}
	}
	return nil
}

// CheckExchange returns a taxerr.UnknownReferenceError if exchange is not known.
func (c *Configuration) CheckExchange(lineID int, exchange string) error {
	if !c.IsKnownExchange(exchange) {
		return &taxerr.UnknownReferenceError{LineID: lineID, Kind: "exchange", Value: exchange}
	}
	return nil
}

// CheckHolder returns a taxerr.UnknownReferenceError if holder is not known.
func (c *Configuration) CheckHolder(lineID int, holder string) error {
	if !c.IsKnownHolder(holder) {
		return &taxerr.UnknownReferenceError{LineID: lineID, Kind: "holder", Value: holder}
	}
	return nil
}

// TypeCheckString asserts value is a non-empty string at the boundary
// between parser and core.
func (c *Configuration) TypeCheckString(lineID int, field, value string) error {
	if value == "" {
		return &taxerr.MalformedInputError{LineID: lineID, Reason: "field " + field + " must be a non-empty string"}
	}
	return nil
}

// TypeCheckNumeric asserts value parses as a decimal at the boundary
// between parser and core.
func (c *Configuration) TypeCheckNumeric(lineID int, field, value string) (money.Decimal, error) {
	d, err := money.NewFromString(value)
	if err != nil {
		return money.Zero, &taxerr.MalformedInputError{LineID: lineID, Reason: "field " + field + " is not numeric: " + value}
	}
	return d, nil
}

// NumericColumn resolves field's column in header for row and parses it as
// a money.Decimal, failing with taxerr.MalformedInputError when the cell
// is missing or non-numeric.
func (c *Configuration) NumericColumn(lineID int, row []string, field string, header HeaderMapping) (money.Decimal, error) {
	col, ok := header[field]
	if !ok {
		return money.Zero, &taxerr.MalformedInputError{LineID: lineID, Reason: "no column mapped for field " + field}
	}
	if col >= len(row) {
		return money.Zero, &taxerr.MalformedInputError{LineID: lineID, Reason: "row has no cell at column for field " + field}
	}
	cell := row[col]
	d, err := money.NewFromString(cell)
	if err != nil {
		return money.Zero, &taxerr.MalformedInputError{LineID: lineID, Reason: "field " + field + " is not numeric: " + cell}
	}
	return d, nil
}

// AcquisitionHeader returns the acquisitions column mapping.
func (c *Configuration) AcquisitionHeader() HeaderMapping { return c.acquisitionHeader }

// DisposalHeader returns the disposals column mapping.
func (c *Configuration) DisposalHeader() HeaderMapping { return c.disposalHeader }

// TransferHeader returns the inter-account transfers column mapping.
func (c *Configuration) TransferHeader() HeaderMapping { return c.transferHeader }

// FromDate returns the inclusive start of the reporting window.
func (c *Configuration) FromDate() time.Time { return c.fromDate }

// ToDate returns the inclusive end of the reporting window.
func (c *Configuration) ToDate() time.Time { return c.toDate }

// AccountingMethod returns the configured accounting method name.
func (c *Configuration) AccountingMethod() string { return c.accountingMethod }

// FiatCurrency returns the configured fiat currency code.
func (c *Configuration) FiatCurrency() string { return c.fiatCurrency }

// LongTermDays returns the long-term capital-gain holding period, in days.
func (c *Configuration) LongTermDays() int { return c.longTermDays }

// FiatFieldTolerance returns the configured InconsistentAmountError
// tolerance, zero by default.
func (c *Configuration) FiatFieldTolerance() money.Decimal { return c.fiatFieldTolerance }

// Assets returns the configured asset set, sorted for deterministic output.
func (c *Configuration) Assets() []string { return sortedKeys(c.assets) }

// Exchanges returns the configured exchange set, sorted for deterministic output.
func (c *Configuration) Exchanges() []string { return sortedKeys(c.exchanges) }

// Holders returns the configured holder set, sorted for deterministic output.
func (c *Configuration) Holders() []string { return sortedKeys(c.holders) }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
