package bptree

import "github.com/dbkit/ccbptree/pkg/bpterrors"

// RecordPoint is an opaque (Key, Payload) pair. Comparison between two
// records is keyed by Key alone.
type RecordPoint[K any, V any] struct {
	Key     K
	Payload V
}

// NodeKind discriminates the two-case tagged union a Block carries.
// The hot path matches on this field directly rather than dispatching
// through an interface, per spec.md's "avoid virtual dispatch" note.
type NodeKind int8

const (
	KindLeaf NodeKind = iota
	KindInternal
)

// Node is the tagged union Index(InternalPage) | Leaf(LeafPage). Exactly
// one of internal/leaf is non-nil, selected by Kind.
type Node[K any, V any] struct {
	Kind     NodeKind
	internal *InternalPage[K, V]
	leaf     *LeafPage[K, V]
}

func leafNode[K any, V any](cap int) Node[K, V] {
	return Node[K, V]{Kind: KindLeaf, leaf: newLeafPage[K, V](cap)}
}

func internalNode[K any, V any](fanOut int) Node[K, V] {
	return Node[K, V]{Kind: KindInternal, internal: newInternalPage[K, V](fanOut)}
}

func (n *Node[K, V]) IsLeaf() bool { return n.Kind == KindLeaf }

func (n *Node[K, V]) Internal() *InternalPage[K, V] {
	if n.Kind != KindInternal {
		bpterrors.Invariant("Internal() called on a leaf node")
	}
	return n.internal
}

func (n *Node[K, V]) Leaf() *LeafPage[K, V] {
	if n.Kind != KindLeaf {
		bpterrors.Invariant("Leaf() called on an internal node")
	}
	return n.leaf
}

// isFull reports whether the node holds the maximum number of entries
// allowed before a preventive split must occur on the way down.
func (n *Node[K, V]) isFull() bool {
	if n.Kind == KindLeaf {
		return n.leaf.length == cap(n.leaf.records)
	}
	return n.internal.keysLen == cap(n.internal.keys)
}

// InternalPage holds up to F-1 keys and F children inline. Invariant:
// childrenLen == keysLen+1 whenever keysLen > 0, else both zero. Keys
// are strict upper bounds on the subtree rooted at the child one
// position to their left: binary_search(inc(k)) returns the index of
// the child that may contain k.
type InternalPage[K any, V any] struct {
	keysLen  int
	keys     []K
	children []*Cell[K, V]
}

func newInternalPage[K any, V any](fanOut int) *InternalPage[K, V] {
	return &InternalPage[K, V]{
		keys:     make([]K, 0, fanOut-1),
		children: make([]*Cell[K, V], 0, fanOut),
	}
}

func (p *InternalPage[K, V]) KeysLen() int     { return p.keysLen }
func (p *InternalPage[K, V]) ChildrenLen() int { return len(p.children) }
func (p *InternalPage[K, V]) GetKey(i int) K   { return p.keys[i] }
func (p *InternalPage[K, V]) GetChild(i int) *Cell[K, V] {
	return p.children[i]
}

// binarySearch returns the smallest index i such that keys[i] >= target,
// equivalently the index of the child subtree that may contain target
// once target has already been transformed via inc/dec by the caller.
func (p *InternalPage[K, V]) binarySearch(target K, cmp func(a, b K) int) int {
	lo, hi := 0, p.keysLen
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(p.keys[mid], target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// childFor returns the position of the child that may contain key,
// using the inc(key) strict-upper-bound routing rule from §4.5.1.
func (p *InternalPage[K, V]) childFor(key K, cmp func(a, b K) int, inc func(K) K) int {
	return p.binarySearch(inc(key), cmp)
}

// replaceChildWithSplit replaces the child at pos with left, inserts
// right immediately after it, and inserts the promoted key at pos —
// the overflow-correction step of the preventive-split write path
// (§4.5.2): the parent is already known non-full by the preventive
// split invariant, so there is always spare capacity here.
func (p *InternalPage[K, V]) replaceChildWithSplit(pos int, key K, left, right *Cell[K, V]) {
	if p.keysLen == cap(p.keys) {
		bpterrors.Invariant("internal page overflow on replaceChildWithSplit")
	}
	p.keys = append(p.keys, key)
	copy(p.keys[pos+1:], p.keys[pos:p.keysLen])
	p.keys[pos] = key
	p.keysLen++

	p.children = append(p.children, nil)
	copy(p.children[pos+2:], p.children[pos+1:])
	p.children[pos] = left
	p.children[pos+1] = right
}

// setRoot replaces the entire page contents in place, used when a
// newly minted root page is installed over the old root's slot so the
// BlockRef identity of the root cell is preserved.
func (p *InternalPage[K, V]) setRoot(key K, left, right *Cell[K, V]) {
	p.keys = append(p.keys[:0], key)
	p.keysLen = 1
	p.children = append(p.children[:0], left, right)
}

// LeafPage holds up to N records inline, strictly sorted by key.
type LeafPage[K any, V any] struct {
	length  int
	records []RecordPoint[K, V]
}

func newLeafPage[K any, V any](capacity int) *LeafPage[K, V] {
	return &LeafPage[K, V]{records: make([]RecordPoint[K, V], 0, capacity)}
}

func (p *LeafPage[K, V]) Len() int                    { return p.length }
func (p *LeafPage[K, V]) At(i int) RecordPoint[K, V]  { return p.records[i] }
func (p *LeafPage[K, V]) First() (RecordPoint[K, V], bool) {
	if p.length == 0 {
		var zero RecordPoint[K, V]
		return zero, false
	}
	return p.records[0], true
}
func (p *LeafPage[K, V]) Last() (RecordPoint[K, V], bool) {
	if p.length == 0 {
		var zero RecordPoint[K, V]
		return zero, false
	}
	return p.records[p.length-1], true
}

// search returns the index of key if present, and the insertion point
// (the first index whose key is >= key) when absent.
func (p *LeafPage[K, V]) search(key K, cmp func(a, b K) int) (idx int, found bool) {
	lo, hi := 0, p.length
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(p.records[mid].Key, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < p.length && cmp(p.records[lo].Key, key) == 0 {
		return lo, true
	}
	return lo, false
}

// push performs a sorted insert, failing on a duplicate key.
func (p *LeafPage[K, V]) push(rec RecordPoint[K, V], cmp func(a, b K) int) error {
	idx, found := p.search(rec.Key, cmp)
	if found {
		return bpterrors.NewDuplicate(rec.Key)
	}
	if p.length == cap(p.records) {
		bpterrors.Invariant("leaf page overflow on push")
	}
	p.records = append(p.records, RecordPoint[K, V]{})
	copy(p.records[idx+1:], p.records[idx:p.length])
	p.records[idx] = rec
	p.length++
	return nil
}

// update replaces the payload at key in place, returning the old
// payload. Returns an error if key is absent.
func (p *LeafPage[K, V]) update(key K, payload V, cmp func(a, b K) int) (old V, err error) {
	idx, found := p.search(key, cmp)
	if !found {
		return old, bpterrors.NewNotFound(key)
	}
	old = p.records[idx].Payload
	p.records[idx].Payload = payload
	return old, nil
}

// removeAt deletes the record at index i, shifting subsequent records left.
func (p *LeafPage[K, V]) removeAt(i int) RecordPoint[K, V] {
	rec := p.records[i]
	copy(p.records[i:], p.records[i+1:p.length])
	p.length--
	p.records = p.records[:p.length]
	return rec
}

// remove deletes the record matching key, returning it if present.
func (p *LeafPage[K, V]) remove(key K, cmp func(a, b K) int) (RecordPoint[K, V], bool) {
	idx, found := p.search(key, cmp)
	if !found {
		var zero RecordPoint[K, V]
		return zero, false
	}
	return p.removeAt(idx), true
}

// pop removes and returns the first (fromLeft=true) or last record.
func (p *LeafPage[K, V]) pop(fromLeft bool) (RecordPoint[K, V], bool) {
	if p.length == 0 {
		var zero RecordPoint[K, V]
		return zero, false
	}
	if fromLeft {
		return p.removeAt(0), true
	}
	return p.removeAt(p.length - 1), true
}
