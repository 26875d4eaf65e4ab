// Package taxerr defines the closed set of typed failures the engine and
// its collaborators can return. Invariant violations are returned, never
// panicked: in library mode the caller decides whether a bad asset aborts
// the whole run or just that asset.
package taxerr

import (
	"fmt"

	"github.com/cryptotax/engine/money"
)

// ConfigurationError reports a malformed Configuration: a missing
// mandatory header field, a duplicate column index, or an empty
// assets/exchanges/holders set.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// MalformedInputError reports a data row failing a primitive type check
// or a transaction-constructor invariant.
type MalformedInputError struct {
	LineID int
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input at line %d: %s", e.LineID, e.Reason)
}

// UnknownReferenceError reports a transaction referencing an asset,
// exchange, or holder absent from the Configuration.
type UnknownReferenceError struct {
	LineID int
	Kind   string // "asset", "exchange", or "holder"
	Value  string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("line %d: unknown %s %q", e.LineID, e.Kind, e.Value)
}

// OrderingError reports an EntrySet insertion rejected because its
// (timestamp, line id) key collides with an existing entry.
type OrderingError struct {
	LineID         int
	ConflictLineID int
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("ordering error: line %d collides with line %d at the same (timestamp, line id) key",
		e.LineID, e.ConflictLineID)
}

// AcquiredLotsExhaustedError reports a disposal requiring more crypto than
// has ever been acquired for that asset by the event's timestamp.
type AcquiredLotsExhaustedError struct {
	LineID    int
	Asset     string
	Remaining money.Decimal
}

func (e *AcquiredLotsExhaustedError) Error() string {
	return fmt.Sprintf("line %d: acquired lots exhausted for %s, %s units unaccounted for",
		e.LineID, e.Asset, e.Remaining.String())
}

// BalanceUnderflowError reports a running (exchange, holder) balance that
// would have gone negative.
type BalanceUnderflowError struct {
	LineID   int
	Exchange string
	Holder   string
	Asset    string
	Balance  money.Decimal
}

func (e *BalanceUnderflowError) Error() string {
	return fmt.Sprintf("line %d: balance underflow for (%s, %s) %s: would become %s",
		e.LineID, e.Exchange, e.Holder, e.Asset, e.Balance.String())
}

// InconsistentAmountError reports a user-supplied fiat field contradicting
// its derivation by more than the configured tolerance.
type InconsistentAmountError struct {
	LineID    int
	Field     string
	Supplied  money.Decimal
	Derived   money.Decimal
	Tolerance money.Decimal
}

func (e *InconsistentAmountError) Error() string {
	return fmt.Sprintf("line %d: %s supplied=%s derived=%s exceeds tolerance %s",
		e.LineID, e.Field, e.Supplied.String(), e.Derived.String(), e.Tolerance.String())
}
