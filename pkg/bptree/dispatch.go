package bptree

import "github.com/cockroachdb/errors"

var errUnknownOperation = errors.New("bptree: unknown operation kind")

// OpKind names the ten operations the CRUD Dispatcher recognizes.
type OpKind int8

const (
	OpInsertKind OpKind = iota
	OpUpdateKind
	OpDeleteKind
	OpPointKind
	OpRangeKind
	OpPeekMinKind
	OpPeekMaxKind
	OpPopMinKind
	OpPopMaxKind
	OpPredKind
)

// Operation is the tagged-union request the dispatcher accepts. Only
// the fields relevant to Kind are read.
type Operation[K any, V any] struct {
	Kind    OpKind
	Key     K
	Payload V
	Lo, Hi  K
}

func OpInsert[K any, V any](key K, payload V) Operation[K, V] {
	return Operation[K, V]{Kind: OpInsertKind, Key: key, Payload: payload}
}

func OpUpdate[K any, V any](key K, payload V) Operation[K, V] {
	return Operation[K, V]{Kind: OpUpdateKind, Key: key, Payload: payload}
}

func OpDelete[K any, V any](key K) Operation[K, V] {
	return Operation[K, V]{Kind: OpDeleteKind, Key: key}
}

func OpPoint[K any, V any](key K) Operation[K, V] {
	return Operation[K, V]{Kind: OpPointKind, Key: key}
}

func OpRange[K any, V any](lo, hi K) Operation[K, V] {
	return Operation[K, V]{Kind: OpRangeKind, Lo: lo, Hi: hi}
}

func OpPeekMin[K any, V any]() Operation[K, V] { return Operation[K, V]{Kind: OpPeekMinKind} }
func OpPeekMax[K any, V any]() Operation[K, V] { return Operation[K, V]{Kind: OpPeekMaxKind} }
func OpPopMin[K any, V any]() Operation[K, V]  { return Operation[K, V]{Kind: OpPopMinKind} }
func OpPopMax[K any, V any]() Operation[K, V]  { return Operation[K, V]{Kind: OpPopMaxKind} }

func OpPred[K any, V any](key K) Operation[K, V] {
	return Operation[K, V]{Kind: OpPredKind, Key: key}
}

// ResultKind names the tagged-union cases a dispatched Operation can
// produce.
type ResultKind int8

const (
	MatchedRecord ResultKind = iota
	MatchedRecords
	Inserted
	Updated
	Deleted
	ErrorResult
)

// Result is the tagged-union response dispatch returns alongside a
// node-visit count.
type Result[K any, V any] struct {
	Kind    ResultKind
	Record  RecordPoint[K, V] // MatchedRecord, Deleted
	Found   bool              // MatchedRecord: whether Record is meaningful
	Records []RecordPoint[K, V]
	Old     V // Updated: previous payload
	Err     error
}

// Dispatch translates a single Operation into the matching traversal
// and leaf mutation, returning the page-access count alongside a
// tagged Result. For OpRange the count is the number of records
// returned, not a page count: Range does not count page accesses.
// Contention is never surfaced here: every Tree method
// it calls already retries internally until it either succeeds or
// (for genuine not-found/duplicate/empty conditions) returns a
// definitive answer.
func (t *Tree[K, V]) Dispatch(op Operation[K, V]) (nodeVisits int, result Result[K, V]) {
	switch op.Kind {
	case OpInsertKind:
		visits, err := t.Insert(op.Key, op.Payload)
		if err != nil {
			return visits, Result[K, V]{Kind: ErrorResult, Err: err}
		}
		return visits, Result[K, V]{Kind: Inserted}

	case OpUpdateKind:
		old, visits, err := t.Update(op.Key, op.Payload)
		if err != nil {
			return visits, Result[K, V]{Kind: ErrorResult, Err: err}
		}
		return visits, Result[K, V]{Kind: Updated, Old: old}

	case OpDeleteKind:
		rec, visits, err := t.Delete(op.Key)
		if err != nil {
			return visits, Result[K, V]{Kind: ErrorResult, Err: err}
		}
		return visits, Result[K, V]{Kind: Deleted, Record: rec, Found: true}

	case OpPointKind:
		payload, found, visits := t.Point(op.Key)
		rec := RecordPoint[K, V]{Key: op.Key, Payload: payload}
		return visits, Result[K, V]{Kind: MatchedRecord, Record: rec, Found: found}

	case OpRangeKind:
		records := t.Range(op.Lo, op.Hi)
		return len(records), Result[K, V]{Kind: MatchedRecords, Records: records}

	case OpPeekMinKind:
		rec, found, visits := t.PeekMin()
		return visits, Result[K, V]{Kind: MatchedRecord, Record: rec, Found: found}

	case OpPeekMaxKind:
		rec, found, visits := t.PeekMax()
		return visits, Result[K, V]{Kind: MatchedRecord, Record: rec, Found: found}

	case OpPopMinKind:
		rec, visits, err := t.PopMin()
		if err != nil {
			return visits, Result[K, V]{Kind: ErrorResult, Err: err}
		}
		return visits, Result[K, V]{Kind: Deleted, Record: rec, Found: true}

	case OpPopMaxKind:
		rec, visits, err := t.PopMax()
		if err != nil {
			return visits, Result[K, V]{Kind: ErrorResult, Err: err}
		}
		return visits, Result[K, V]{Kind: Deleted, Record: rec, Found: true}

	case OpPredKind:
		rec, found, visits := t.Pred(op.Key)
		return visits, Result[K, V]{Kind: MatchedRecord, Record: rec, Found: found}

	default:
		return 0, Result[K, V]{Kind: ErrorResult, Err: errUnknownOperation}
	}
}
