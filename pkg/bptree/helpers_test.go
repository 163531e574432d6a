package bptree

import "github.com/dbkit/ccbptree/pkg/bpterrors"

// cmpInt/incInt/decInt are the key functions used throughout this
// package's tests: a plain int domain saturating at testMinKey/testMaxKey
// (the int32 range).
func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

const (
	testMinKey = -1 << 31
	testMaxKey = 1<<31 - 1
)

func incInt(k int) int {
	if k >= testMaxKey {
		return testMaxKey
	}
	return k + 1
}

func decInt(k int) int {
	if k <= testMinKey {
		return testMinKey
	}
	return k - 1
}

func newIntTree(strategy LockingStrategy, fanOut, leafCap int) *Tree[int, string] {
	return New[int, string](testMinKey, testMaxKey, cmpInt, incInt, decInt, strategy,
		BlockManagerOptions{FanOut: fanOut, LeafCapacity: leafCap})
}

func isNotFoundErr(err error) bool { return bpterrors.IsNotFound(err) }
func isDuplicateErr(err error) bool { return bpterrors.IsDuplicate(err) }
func isEmptyErr(err error) bool { return bpterrors.IsEmpty(err) }
