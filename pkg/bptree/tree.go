// Package bptree implements the concurrent in-memory B+tree index: a
// generic Tree keyed by any ordered K with six interchangeable latch
// protocols selectable per instance via LockingStrategy.
package bptree

import (
	"sync/atomic"

	"github.com/dbkit/ccbptree/pkg/bpterrors"
)

// unboundedLockLevel is the "no restriction yet" sentinel a fresh write
// attempt starts from: isLock's currLevel>=maxLevel clause never fires
// until a prior attempt in the same call has actually restarted and
// narrowed lockLevel down toward the level that saw contention.
const unboundedLockLevel = 1 << 30

// rootState is the (root Cell, height) pair the tree swaps atomically
// on a root split, so readers never observe a root pointer and height
// that disagree with each other.
type rootState[K any, V any] struct {
	block  *Cell[K, V]
	height int
}

// Tree is a concurrent in-memory B+tree index over keys K and
// payloads V, parameterized by an explicit comparison/successor/
// predecessor function set (Go generics have no built-in Ord, so this
// stands in for the single-type Comparable interface the distilled
// design describes) and a LockingStrategy fixed for the tree's
// lifetime.
type Tree[K any, V any] struct {
	root atomic.Pointer[rootState[K, V]]
	bm   *BlockManager[K, V]

	cmp func(a, b K) int
	inc func(K) K
	dec func(K) K

	minKey K
	maxKey K

	strategy LockingStrategy
}

// New constructs a Tree over the closed key domain [minKey, maxKey].
// cmp must return <0, 0, >0 the way a sort comparator does; inc/dec
// must saturate at maxKey/minKey rather than wrap. opts configures the
// block manager's fan-out and leaf capacity (zero value: pick from the
// host's cache line size, see internal/sysinfo).
func New[K any, V any](minKey, maxKey K, cmp func(a, b K) int, inc, dec func(K) K, strategy LockingStrategy, opts BlockManagerOptions) *Tree[K, V] {
	t := &Tree[K, V]{
		bm:       newBlockManager[K, V](strategy.cellMode(), opts),
		cmp:      cmp,
		inc:      inc,
		dec:      dec,
		minKey:   minKey,
		maxKey:   maxKey,
		strategy: strategy,
	}
	root := t.bm.newLeafBlock()
	t.root.Store(&rootState[K, V]{block: root, height: 1})
	return t
}

// Height reports the current root-to-leaf path length.
func (t *Tree[K, V]) Height() int { return t.root.Load().height }

// LockingStrategy reports the strategy the tree was constructed with.
func (t *Tree[K, V]) LockingStrategy() LockingStrategy { return t.strategy }

// FanOut, LeafCapacity, and BlockBytes report the block manager's
// sizing, for observability (CSV reporting, tests) rather than
// anything the traversal logic itself consults at runtime.
func (t *Tree[K, V]) FanOut() int       { return t.bm.FanOut() }
func (t *Tree[K, V]) LeafCapacity() int { return t.bm.LeafCapacity() }
func (t *Tree[K, V]) BlockBytes() int   { return t.bm.BlockBytes() }

func (t *Tree[K, V]) loadRoot() (*Cell[K, V], int) {
	s := t.root.Load()
	return s.block, s.height
}

func (t *Tree[K, V]) installRoot(block *Cell[K, V], height int) {
	t.root.Store(&rootState[K, V]{block: block, height: height})
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// acquireForLevel picks an eager write acquisition, a fallback reader
// latch, or a plain optimistic/reader acquisition for the Cell at the
// given descent level, per the tree's LockingStrategy (§4.7). ok is
// false only when an eager CAS-based write acquisition lost a race;
// the caller must restart.
func (t *Tree[K, V]) acquireForLevel(cell *Cell[K, V], level, lockLevel int, attempt uint32, height int) (*Guard[K, V], bool) {
	if t.strategy.additionalLockRequired() && t.strategy.isLock(level, lockLevel, attempt, height) {
		return acquireWrite(cell)
	}
	if t.strategy.isReadFallback(uint32(level), attempt, height) {
		return acquireReadFallback(cell), true
	}
	return acquireRead(cell), true
}

// ---- point read ----------------------------------------------------

// readDescend walks from the root to the leaf that may contain key,
// restarting the whole walk whenever an ancestor's optimistic snapshot
// is invalidated mid-descent (§4.5.3). It never returns nil.
func (t *Tree[K, V]) readDescend(key K) (*Guard[K, V], int) {
	leaf, visits, _ := t.readDescendBounded(key)
	return leaf, visits
}

// readDescendBounded is readDescend plus the tightest exclusive upper
// bound on the returned leaf's key content, taken from the narrowest
// separator passed on the way down (t.maxKey when the descent never
// leaves the rightmost child, i.e. no separator bounds it). Range
// uses this to keep advancing a scan past a leaf that deletions have
// left wired into the tree but empty, since there are no sibling
// pointers to follow instead.
func (t *Tree[K, V]) readDescendBounded(key K) (*Guard[K, V], int, K) {
	for {
		leaf, visits, upperBound, ok := t.readAttempt(key)
		if ok {
			return leaf, visits, upperBound
		}
	}
}

func (t *Tree[K, V]) readAttempt(key K) (leaf *Guard[K, V], visits int, upperBound K, ok bool) {
	upperBound = t.maxKey
	rootCell, _ := t.loadRoot()
	curr := acquireRead(rootCell)
	visits = 1

	node, valid := curr.Deref()
	if !valid {
		curr.Release()
		return nil, visits, upperBound, false
	}

	for !node.IsLeaf() {
		internal := node.Internal()
		childPos := internal.childFor(key, t.cmp, t.inc)
		if childPos < internal.KeysLen() {
			upperBound = internal.GetKey(childPos)
		}
		childCell := internal.GetChild(childPos)

		child := acquireRead(childCell)
		visits++

		childNode, childValid := child.Deref()
		if !childValid || !curr.IsValid() {
			child.Release()
			curr.Release()
			return nil, visits, upperBound, false
		}

		curr.Release()
		curr, node = child, childNode
	}

	if !curr.IsValid() {
		curr.Release()
		return nil, visits, upperBound, false
	}
	return curr, visits, upperBound, true
}

// Point looks up key, returning its payload and whether it was found.
func (t *Tree[K, V]) Point(key K) (V, bool, int) {
	leaf, visits := t.readDescend(key)
	for {
		node, valid := leaf.Deref()
		if !valid {
			leaf.Release()
			leaf, visits = t.readDescend(key)
			continue
		}
		idx, found := node.Leaf().search(key, t.cmp)
		if !found {
			var zero V
			if !leaf.IsValid() {
				leaf.Release()
				leaf, _ = t.readDescend(key)
				continue
			}
			leaf.Release()
			return zero, false, visits
		}
		rec := node.Leaf().At(idx)
		if !leaf.IsValid() {
			leaf.Release()
			leaf, _ = t.readDescend(key)
			continue
		}
		leaf.Release()
		return rec.Payload, true, visits
	}
}

// ---- write path: preventive top-down split --------------------------

// writeDescend returns a write-capable guard on the leaf that should
// hold key, splitting every full page it passes through on the way
// down so the leaf it returns always has spare capacity (§4.5.2). It
// restarts the whole attempt on lost write-acquisition races,
// narrowing lockLevel toward the level that lost the race each time so
// eager pessimistic latching kicks in if contention persists.
func (t *Tree[K, V]) writeDescend(key K) (*Guard[K, V], int) {
	lockLevel := unboundedLockLevel
	var attempt uint32
	var totalVisits int
	for {
		leaf, visits, ok, restartLevel := t.writeAttempt(key, lockLevel, attempt)
		totalVisits += visits
		if ok {
			return leaf, totalVisits
		}
		lockLevel = restartLevel
		attempt++
	}
}

func (t *Tree[K, V]) writeAttempt(key K, lockLevel int, attempt uint32) (leaf *Guard[K, V], visits int, ok bool, restartLevel int) {
	rootCell, height := t.loadRoot()

	currLevel := 1
	curr, acquired := t.acquireForLevel(rootCell, currLevel, lockLevel, attempt, height)
	visits++
	if !acquired {
		return nil, visits, false, max0(currLevel - 1)
	}
	// A root that a concurrent root split replaced while this writer
	// waited for its latch is obsolete; restart on the current root
	// rather than splitting or descending through the old one.
	if rootCell.IsObsolete() {
		curr.Release()
		return nil, visits, false, lockLevel
	}

	node, valid := curr.Deref()
	if !valid {
		curr.Release()
		return nil, visits, false, max0(currLevel - 1)
	}

	if node.isFull() {
		if !curr.writeHeld {
			if !curr.UpgradeWriteLock() {
				curr.Release()
				return nil, visits, false, max0(currLevel - 1)
			}
		}
		if !curr.IsValid() {
			curr.Release()
			return nil, visits, false, max0(currLevel - 1)
		}
		t.splitRootAndInstall(curr, height)
		curr.Release()
		// The new root is guaranteed non-full; restart the attempt to
		// pick it up rather than special-casing a "continue with new
		// root" branch here.
		return nil, visits, false, lockLevel
	}

	for {
		if node.IsLeaf() {
			if !curr.writeHeld {
				if !curr.UpgradeWriteLock() {
					curr.Release()
					return nil, visits, false, max0(currLevel - 1)
				}
			}
			if !curr.IsValid() {
				curr.Release()
				return nil, visits, false, max0(currLevel - 1)
			}
			return curr, visits, true, 0
		}

		internal := node.Internal()
		childPos := internal.childFor(key, t.cmp, t.inc)
		childCell := internal.GetChild(childPos)

		childLevel := currLevel + 1
		child, acquired := t.acquireForLevel(childCell, childLevel, lockLevel, attempt, height)
		visits++
		if !acquired {
			curr.Release()
			return nil, visits, false, max0(currLevel - 1)
		}

		childNode, childValid := child.Deref()
		if !childValid || !curr.IsValid() {
			child.Release()
			curr.Release()
			return nil, visits, false, max0(currLevel - 1)
		}

		if childNode.isFull() {
			if !curr.writeHeld {
				if !curr.UpgradeWriteLock() {
					child.Release()
					curr.Release()
					return nil, visits, false, max0(currLevel - 1)
				}
			}
			if !child.writeHeld {
				if !child.UpgradeWriteLock() {
					child.Release()
					curr.Release()
					return nil, visits, false, max0(currLevel - 1)
				}
			}
			if !curr.IsValid() || !child.IsValid() {
				child.Release()
				curr.Release()
				return nil, visits, false, max0(currLevel - 1)
			}

			t.splitChild(curr, internal, childPos, child)
			child.Release()

			// Re-examine curr (the parent) from scratch next iteration
			// rather than descending this round — the overflow that
			// triggered the split is now corrected, but childFor(key)
			// may now pick a different position.
			node, valid = curr.Deref()
			if !valid {
				curr.Release()
				return nil, visits, false, max0(currLevel - 1)
			}
			continue
		}

		curr.Release()
		curr, node = child, childNode
		currLevel = childLevel
	}
}

// Insert adds (key, payload), failing with bpterrors.Duplicate if key
// is already present.
func (t *Tree[K, V]) Insert(key K, payload V) (int, error) {
	leaf, visits := t.writeDescend(key)
	defer leaf.Release()
	node, _ := leaf.Deref()
	err := node.Leaf().push(RecordPoint[K, V]{Key: key, Payload: payload}, t.cmp)
	return visits, err
}

// Update replaces the payload stored at key, returning the old payload
// and failing with bpterrors.NotFound if key is absent.
func (t *Tree[K, V]) Update(key K, payload V) (old V, visits int, err error) {
	leaf, visits := t.writeDescend(key)
	defer leaf.Release()
	node, _ := leaf.Deref()
	old, err = node.Leaf().update(key, payload, t.cmp)
	return old, visits, err
}

// Delete removes key, failing with bpterrors.NotFound if absent.
// Underflow correction (merge/borrow) is deliberately not performed:
// leaves may become sparse without violating any documented invariant.
func (t *Tree[K, V]) Delete(key K) (RecordPoint[K, V], int, error) {
	leaf, visits := t.writeDescend(key)
	defer leaf.Release()
	node, _ := leaf.Deref()
	rec, found := node.Leaf().remove(key, t.cmp)
	if !found {
		return rec, visits, bpterrors.NewNotFound(key)
	}
	return rec, visits, nil
}

// ---- boundary operations --------------------------------------------

// PeekMin returns the smallest stored record without removing it.
// ok is false (MatchedRecord(None)) on an empty tree — this is not an
// error case, unlike PopMin.
func (t *Tree[K, V]) PeekMin() (RecordPoint[K, V], bool, int) {
	return t.peekBoundary(t.minKey, true)
}

// PeekMax returns the largest stored record without removing it.
func (t *Tree[K, V]) PeekMax() (RecordPoint[K, V], bool, int) {
	return t.peekBoundary(t.maxKey, false)
}

func (t *Tree[K, V]) peekBoundary(probe K, fromLeft bool) (RecordPoint[K, V], bool, int) {
	leaf, visits := t.readDescend(probe)
	for {
		node, valid := leaf.Deref()
		if !valid {
			leaf.Release()
			leaf, _ = t.readDescend(probe)
			continue
		}
		var rec RecordPoint[K, V]
		var ok bool
		if fromLeft {
			rec, ok = node.Leaf().First()
		} else {
			rec, ok = node.Leaf().Last()
		}
		if !leaf.IsValid() {
			leaf.Release()
			leaf, _ = t.readDescend(probe)
			continue
		}
		leaf.Release()
		return rec, ok, visits
	}
}

// PopMin removes and returns the smallest stored record.
func (t *Tree[K, V]) PopMin() (RecordPoint[K, V], int, error) {
	return t.popBoundary(t.minKey, true, "PopMin")
}

// PopMax removes and returns the largest stored record.
func (t *Tree[K, V]) PopMax() (RecordPoint[K, V], int, error) {
	return t.popBoundary(t.maxKey, false, "PopMax")
}

func (t *Tree[K, V]) popBoundary(probe K, fromLeft bool, op string) (RecordPoint[K, V], int, error) {
	leaf, visits := t.writeDescend(probe)
	defer leaf.Release()
	node, _ := leaf.Deref()
	rec, ok := node.Leaf().pop(fromLeft)
	if !ok {
		return rec, visits, bpterrors.NewEmpty(op)
	}
	return rec, visits, nil
}

// Pred returns the largest stored record whose key is <= k, within the
// single leaf k routes to: if k isn't present there, the entry
// immediately before its insertion point is returned when one exists
// in that leaf. ok is false (MatchedRecord(None)) when no such record
// exists — this is not an error case.
func (t *Tree[K, V]) Pred(k K) (RecordPoint[K, V], bool, int) {
	leaf, visits := t.readDescend(k)
	for {
		node, valid := leaf.Deref()
		if !valid {
			leaf.Release()
			leaf, _ = t.readDescend(k)
			continue
		}
		page := node.Leaf()
		idx, found := page.search(k, t.cmp)
		var rec RecordPoint[K, V]
		var ok bool
		if found {
			rec, ok = page.At(idx), true
		} else if idx > 0 {
			rec, ok = page.At(idx-1), true
		}
		if !leaf.IsValid() {
			leaf.Release()
			leaf, _ = t.readDescend(k)
			continue
		}
		leaf.Release()
		return rec, ok, visits
	}
}

// ---- range scan -------------------------------------------------------

// Range returns every stored record with key in [lo, hi], sorted and
// duplicate-free. Each leaf along the way is read under the strategy's
// read latch (an optimistic snapshot where the strategy uses one) and
// re-validated immediately after copying its records out; an
// invalidated leaf restarts the whole scan from lo rather than
// resuming mid-way, which is simpler than (and observationally
// equivalent to) maintaining the path-stack repositioning optimization
// described for cursor advancement.
//
// Delete never merges or borrows (§"Delete does not merge or
// borrow" in DESIGN.md), so a leaf can sit wired into the tree with
// zero live records after enough deletions. Without sibling pointers,
// the only way to keep scanning past such a leaf is the routing
// separator above it, which scanOneLeaf reports back as next even
// when it found nothing — Range must advance on that alone rather
// than stopping the moment a leaf yields no records.
func (t *Tree[K, V]) Range(lo, hi K) []RecordPoint[K, V] {
	if t.cmp(lo, hi) > 0 {
		return nil
	}
	var out []RecordPoint[K, V]
	cursor := lo
	for {
		recs, next, restart := t.scanOneLeaf(cursor, hi)
		if restart {
			out = out[:0]
			cursor = lo
			continue
		}
		out = append(out, recs...)
		if t.cmp(next, cursor) <= 0 || t.cmp(next, hi) > 0 {
			return out
		}
		cursor = next
	}
}

// scanOneLeaf reads the leaf cursor routes to and appends every record
// it holds in [cursor, hi]. next is the key the scan resumes from: by
// default the routing upper bound reported by readDescendBounded (the
// smallest key guaranteed to lie outside this leaf), tightened to
// inc(lastMatch) once a matching record is actually seen. Returning the routing bound even
// when the leaf is empty is what lets Range step over an
// emptied-by-deletion leaf instead of mistaking it for the end of the
// scan.
func (t *Tree[K, V]) scanOneLeaf(cursor, hi K) (recs []RecordPoint[K, V], next K, restart bool) {
	leafGuard, _, upperBound := t.readDescendBounded(cursor)
	defer leafGuard.Release()

	next = upperBound
	node, valid := leafGuard.Deref()
	if !valid {
		return nil, next, true
	}
	leaf := node.Leaf()
	for i := 0; i < leaf.Len(); i++ {
		rec := leaf.At(i)
		if t.cmp(rec.Key, cursor) < 0 {
			continue
		}
		if t.cmp(rec.Key, hi) > 0 {
			break
		}
		recs = append(recs, rec)
		next = t.inc(rec.Key)
	}
	if !leafGuard.IsValid() {
		return nil, next, true
	}
	return recs, next, false
}
