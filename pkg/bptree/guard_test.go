package bptree

import "testing"

func TestGuard_ExclusiveReadIsAlwaysValid(t *testing.T) {
	c := newCell[int, string](1, LatchExclusive, leafNode[int, string](4))
	g := acquireRead(c)
	if !g.IsValid() {
		t.Fatalf("an exclusive-latch guard should always be valid while held")
	}
	g.Release()
}

func TestGuard_OptimisticReadInvalidatedByConcurrentWrite(t *testing.T) {
	c := newCell[int, string](1, LatchOptimistic, leafNode[int, string](4))
	g := acquireRead(c)

	wg, ok := acquireWrite(c)
	if !ok {
		t.Fatalf("acquireWrite on an uncontended cell should succeed")
	}
	wg.MarkObsolete()
	wg.Release()

	if g.IsValid() {
		t.Fatalf("reader snapshot taken before the write must invalidate")
	}
	if _, ok := g.Deref(); ok {
		t.Fatalf("Deref on an invalidated optimistic guard should report false")
	}
}

func TestGuard_UpgradeWriteLockFailsForReadersWriterReadGuard(t *testing.T) {
	c := newCell[int, string](1, LatchReadersWriter, leafNode[int, string](4))
	g := acquireRead(c)
	if g.UpgradeWriteLock() {
		t.Fatalf("an RLock-acquired ReadersWriter guard cannot upgrade in place")
	}
	g.Release()
}

func TestGuard_UpgradeWriteLockSucceedsForOptimisticGuard(t *testing.T) {
	c := newCell[int, string](1, LatchOptimistic, leafNode[int, string](4))
	g := acquireRead(c)
	if !g.UpgradeWriteLock() {
		t.Fatalf("an uncontended optimistic guard should upgrade")
	}
	g.Release()
}

func TestGuard_MonoWriterNeverBlocks(t *testing.T) {
	c := newCell[int, string](1, LatchNone, leafNode[int, string](4))
	g, ok := acquireWrite(c)
	if !ok || !g.writeHeld {
		t.Fatalf("MonoWriter acquisition should trivially succeed")
	}
	g.Release()
}
