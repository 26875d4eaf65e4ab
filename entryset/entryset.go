// Package entryset holds the per-asset, per-direction ordered containers
// of Transaction values the engine consumes. Ordering and line-id
// uniqueness are enforced at insert time rather than trusted to caller
// discipline.
package entryset

import (
	"sort"

	"github.com/cryptotax/engine/taxerr"
	"github.com/cryptotax/engine/txtype"
)

// key is the ordering/uniqueness key: (timestamp, line id).
type key struct {
	unixNano int64
	lineID   int
}

func keyOf(t txtype.Transaction) key {
	return key{unixNano: t.Timestamp().UnixNano(), lineID: t.LineID()}
}

func less(a, b key) bool {
	if a.unixNano != b.unixNano {
		return a.unixNano < b.unixNano
	}
	return a.lineID < b.lineID
}

// EntrySet is an ordered, homogeneous-asset sequence of Transactions for
// one asset and one direction (acquisitions, disposals, or transfers-as-
// disposals). It accumulates entries via Insert, then is Seal()ed; after
// sealing it is read-only.
type EntrySet struct {
	asset   string
	entries []txtype.Transaction
	keys    []key
	lineIDs map[int]bool
	sealed  bool
}

// New creates an empty EntrySet for the given asset.
func New(asset string) *EntrySet {
	return &EntrySet{asset: asset, lineIDs: map[int]bool{}}
}

// Insert adds t to the set, maintaining strictly increasing (timestamp,
// line id) order. It rejects a different asset, a duplicate line id, or an
// insertion into a sealed set.
func (es *EntrySet) Insert(t txtype.Transaction) error {
	if es.sealed {
		return &taxerr.OrderingError{LineID: t.LineID()}
	}
	if t.Asset() != es.asset {
		return &taxerr.MalformedInputError{LineID: t.LineID(), Reason: "transaction asset " + t.Asset() + " does not match entry set asset " + es.asset}
	}
	if es.lineIDs[t.LineID()] {
		return &taxerr.OrderingError{LineID: t.LineID(), ConflictLineID: t.LineID()}
	}

	k := keyOf(t)
	// Find insertion point that keeps es.keys sorted.
	idx := sort.Search(len(es.keys), func(i int) bool { return !less(es.keys[i], k) })
	if idx < len(es.keys) && es.keys[idx] == k {
		return &taxerr.OrderingError{LineID: t.LineID(), ConflictLineID: es.entries[idx].LineID()}
	}

	es.keys = append(es.keys, key{})
	copy(es.keys[idx+1:], es.keys[idx:])
	es.keys[idx] = k

	es.entries = append(es.entries, nil)
	copy(es.entries[idx+1:], es.entries[idx:])
	es.entries[idx] = t

	es.lineIDs[t.LineID()] = true
	return nil
}

// Seal freezes the set against further insertion.
func (es *EntrySet) Seal() { es.sealed = true }

// Sealed reports whether Seal has been called.
func (es *EntrySet) Sealed() bool { return es.sealed }

// Asset returns the asset all entries share.
func (es *EntrySet) Asset() string { return es.asset }

// Len returns the number of entries.
func (es *EntrySet) Len() int { return len(es.entries) }

// At returns the entry at position i, in chronological order.
func (es *EntrySet) At(i int) txtype.Transaction { return es.entries[i] }

// All returns every entry, in chronological order. The returned slice must
// not be mutated by the caller.
func (es *EntrySet) All() []txtype.Transaction { return es.entries }
