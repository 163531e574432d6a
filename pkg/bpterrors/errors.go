// Package bpterrors defines the error taxonomy returned by pkg/bptree's
// CRUD dispatcher: NotFound, Duplicate, and Empty. Contention is never
// represented here — it is always recovered locally by restart and
// never crosses the dispatcher boundary.
package bpterrors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// sentinel markers used with errors.Is. cockroachdb/errors preserves
// these across Wrap/Newf the same way stdlib errors does across %w.
var (
	// NotFound marks an operation that required a key that is absent.
	NotFound = errors.New("bptree: not found")
	// Duplicate marks an insert whose key already exists.
	Duplicate = errors.New("bptree: duplicate key")
	// Empty marks a no-op operation (e.g. PopMin on an empty tree).
	Empty = errors.New("bptree: empty")
)

// NewNotFound builds a NotFound error for the given key.
func NewNotFound(key any) error {
	return errors.Mark(errors.Newf("key %v not found", key), NotFound)
}

// NewDuplicate builds a Duplicate error for the given key.
func NewDuplicate(key any) error {
	return errors.Mark(errors.Newf("key %v already exists", key), Duplicate)
}

// NewEmpty builds an Empty error for the named operation.
func NewEmpty(op string) error {
	return errors.Mark(errors.Newf("%s: tree is empty", op), Empty)
}

// IsNotFound reports whether err (or any error it wraps) is a NotFound error.
func IsNotFound(err error) bool { return errors.Is(err, NotFound) }

// IsDuplicate reports whether err (or any error it wraps) is a Duplicate error.
func IsDuplicate(err error) bool { return errors.Is(err, Duplicate) }

// IsEmpty reports whether err (or any error it wraps) is an Empty error.
func IsEmpty(err error) bool { return errors.Is(err, Empty) }

// Invariant panics on an internal invariant violation (page overflow
// past capacity, underflow below zero, malformed tagged variant).
// These never arise from user input; per spec they are not part of
// the returned error taxonomy.
func Invariant(format string, args ...any) {
	panic(fmt.Sprintf("bptree: invariant violation: "+format, args...))
}
