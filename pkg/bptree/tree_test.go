package bptree

import (
	"fmt"
	"testing"
)

func allStrategies() []LockingStrategy {
	return []LockingStrategy{
		NewMonoWriter(),
		NewLockCoupling(),
		NewOLC(),
		NewORWC(0.5, 2),
		NewHybridLocking(2),
		NewLightweightHybrid(0.5, 2, 0.5, 2),
	}
}

func TestTree_PointAfterInsert(t *testing.T) {
	for _, s := range allStrategies() {
		t.Run(s.Kind.String(), func(t *testing.T) {
			tr := newIntTree(s, 4, 4)
			if _, err := tr.Insert(10, "a"); err != nil {
				t.Fatalf("Insert: %v", err)
			}
			payload, found, _ := tr.Point(10)
			if !found || payload != "a" {
				t.Fatalf("Point(10) = (%q, %v), want (a, true)", payload, found)
			}
			if _, found, _ := tr.Point(11); found {
				t.Fatalf("Point(11) should not be found")
			}
		})
	}
}

func TestTree_UpdateReturnsOldAndChangesPoint(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 4)
	tr.Insert(1, "a")
	old, _, err := tr.Update(1, "b")
	if err != nil || old != "a" {
		t.Fatalf("Update = (%q, %v), want (a, nil)", old, err)
	}
	payload, found, _ := tr.Point(1)
	if !found || payload != "b" {
		t.Fatalf("Point(1) after update = (%q, %v), want (b, true)", payload, found)
	}
	if _, _, err := tr.Update(99, "x"); !isNotFoundErr(err) {
		t.Fatalf("Update of absent key: %v, want NotFound", err)
	}
}

func TestTree_DeleteThenPointMisses(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 4)
	tr.Insert(7, "a")
	if _, _, err := tr.Delete(7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := tr.Point(7); found {
		t.Fatalf("Point(7) after delete should miss")
	}
	if _, _, err := tr.Delete(7); !isNotFoundErr(err) {
		t.Fatalf("second Delete(7): %v, want NotFound", err)
	}
}

// S1: a leaf split under a small fan-out, range scan still returns
// every record in order.
func TestTree_S1LeafSplit(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 2)
	before := tr.Height()
	tr.Insert(10, "a")
	tr.Insert(20, "b")
	tr.Insert(15, "c")
	after := tr.Height()
	if after < before {
		t.Fatalf("height should not decrease across inserts")
	}

	got := tr.Range(0, 100)
	want := []int{10, 15, 20}
	if len(got) != len(want) {
		t.Fatalf("Range len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i, k := range want {
		if got[i].Key != k {
			t.Fatalf("Range[%d].Key = %d, want %d", i, got[i].Key, k)
		}
	}
}

// S2: many sequential inserts force a root split; height grows and a
// key inserted before the splits (5) is still found.
func TestTree_S2RootSplit(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 2)
	for i := 1; i <= 9; i++ {
		if _, err := tr.Insert(i, fmt.Sprintf("v%d", i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if tr.Height() < 2 {
		t.Fatalf("height = %d, want >= 2 after 9 sequential inserts at leafCap=2", tr.Height())
	}
	payload, found, _ := tr.Point(5)
	if !found || payload != "v5" {
		t.Fatalf("Point(5) = (%q, %v), want (v5, true)", payload, found)
	}
}

// Range must keep scanning past leaves emptied by deletions instead of
// stopping there: inserting 1..6 at leafCap=2 leaves 3 and 4 in
// single-record leaves, and since Delete never merges or borrows, both
// stay wired into their parent as empty leaves after the deletes; the
// leaf beyond them ([5,6]) must still come back.
func TestTree_RangeSkipsEmptiedLeaf(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 2)
	for i := 1; i <= 6; i++ {
		if _, err := tr.Insert(i, fmt.Sprintf("v%d", i)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if _, _, err := tr.Delete(3); err != nil {
		t.Fatalf("Delete(3): %v", err)
	}
	if _, _, err := tr.Delete(4); err != nil {
		t.Fatalf("Delete(4): %v", err)
	}

	got := tr.Range(1, 6)
	want := []int{1, 2, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("Range(1,6) len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i, k := range want {
		if got[i].Key != k {
			t.Fatalf("Range(1,6)[%d].Key = %d, want %d", i, got[i].Key, k)
		}
	}
}

// S3: a duplicate insert fails and leaves the original record intact.
func TestTree_S3Duplicate(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 4)
	tr.Insert(7, "a")
	if _, err := tr.Insert(7, "b"); !isDuplicateErr(err) {
		t.Fatalf("second Insert(7): %v, want Duplicate", err)
	}
	payload, _, _ := tr.Point(7)
	if payload != "a" {
		t.Fatalf("Point(7) = %q, want a (duplicate insert must not overwrite)", payload)
	}
}

// S4: a range spanning multiple splits returns exactly the records in
// the interval, sorted.
func TestTree_S4RangeSpanningSplits(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 2)
	for i := 1; i <= 9; i++ {
		tr.Insert(i, fmt.Sprintf("v%d", i))
	}
	got := tr.Range(3, 7)
	if len(got) != 5 {
		t.Fatalf("Range(3,7) len = %d, want 5 (%v)", len(got), got)
	}
	for i, k := range []int{3, 4, 5, 6, 7} {
		if got[i].Key != k {
			t.Fatalf("Range(3,7)[%d].Key = %d, want %d", i, got[i].Key, k)
		}
	}
}

func TestTree_BoundaryOnEmptyTree(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 4)

	if _, found, _ := tr.PeekMin(); found {
		t.Fatalf("PeekMin on empty tree should report not-found, not an error")
	}
	if _, _, err := tr.PopMin(); !isEmptyErr(err) {
		t.Fatalf("PopMin on empty tree: %v, want Empty", err)
	}
	if got := tr.Range(0, 100); len(got) != 0 {
		t.Fatalf("Range on empty tree = %v, want empty", got)
	}
	if got := tr.Range(10, 5); got != nil {
		t.Fatalf("Range(lo>hi) = %v, want nil", got)
	}
	if _, found, _ := tr.Pred(5); found {
		t.Fatalf("Pred on empty tree should report not-found")
	}
}

func TestTree_PeekAndPopMinMax(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 2)
	for _, k := range []int{5, 1, 9, 3} {
		tr.Insert(k, fmt.Sprintf("v%d", k))
	}

	min, found, _ := tr.PeekMin()
	if !found || min.Key != 1 {
		t.Fatalf("PeekMin = %v, want 1", min)
	}
	max, found, _ := tr.PeekMax()
	if !found || max.Key != 9 {
		t.Fatalf("PeekMax = %v, want 9", max)
	}

	popped, _, err := tr.PopMin()
	if err != nil || popped.Key != 1 {
		t.Fatalf("PopMin = (%v, %v)", popped, err)
	}
	if _, found, _ := tr.Point(1); found {
		t.Fatalf("Point(1) after PopMin should miss")
	}

	popped, _, err = tr.PopMax()
	if err != nil || popped.Key != 9 {
		t.Fatalf("PopMax = (%v, %v)", popped, err)
	}
}

func TestTree_PredReturnsClosestNotGreater(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 8)
	for _, k := range []int{10, 20, 30} {
		tr.Insert(k, fmt.Sprintf("v%d", k))
	}

	rec, found, _ := tr.Pred(25)
	if !found || rec.Key != 20 {
		t.Fatalf("Pred(25) = %v, want 20", rec)
	}
	rec, found, _ = tr.Pred(10)
	if !found || rec.Key != 10 {
		t.Fatalf("Pred(10) exact match = %v, want 10", rec)
	}
	if _, found, _ := tr.Pred(5); found {
		t.Fatalf("Pred(5) with every key greater should report not-found")
	}
}

func TestTree_InsertDeleteRoundTripPreservesRange(t *testing.T) {
	tr := newIntTree(NewOLC(), 4, 2)
	keys := []int{1, 2, 3, 4, 5, 6, 7, 8}
	for _, k := range keys {
		tr.Insert(k, fmt.Sprintf("v%d", k))
	}
	before := tr.Range(0, 100)

	tr.Insert(100, "x")
	tr.Delete(100)

	after := tr.Range(0, 100)
	if len(before) != len(after) {
		t.Fatalf("round-trip changed Range length: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Key != after[i].Key {
			t.Fatalf("round-trip changed Range order at %d: %d vs %d", i, before[i].Key, after[i].Key)
		}
	}
}
