package bptree

import "testing"

func TestStrategy_CellModePerKind(t *testing.T) {
	cases := []struct {
		s    LockingStrategy
		want LatchMode
	}{
		{NewMonoWriter(), LatchNone},
		{NewLockCoupling(), LatchExclusive},
		{NewORWC(0.5, 2), LatchReadersWriter},
		{NewOLC(), LatchOptimistic},
		{NewLightweightHybrid(0.5, 2, 0.5, 2), LatchLightweightHybrid},
		{NewHybridLocking(2), LatchHybrid},
	}
	for _, c := range cases {
		if got := c.s.cellMode(); got != c.want {
			t.Fatalf("%s.cellMode() = %v, want %v", c.s.Kind, got, c.want)
		}
	}
}

func TestStrategy_AdditionalLockRequired(t *testing.T) {
	if NewMonoWriter().additionalLockRequired() {
		t.Fatalf("MonoWriter should not require an additional lock")
	}
	if NewLockCoupling().additionalLockRequired() {
		t.Fatalf("LockCoupling should not require an additional lock")
	}
	if !NewOLC().additionalLockRequired() {
		t.Fatalf("OLC should require an additional lock")
	}
}

func TestStrategy_IsLockHeightAndLevelBounds(t *testing.T) {
	s := NewORWC(0, 1<<30) // disable the attempt/level clauses to isolate the height clause
	if !s.isLock(3, 1<<30, 0, 3) {
		t.Fatalf("isLock should always fire at currLevel == height")
	}
	if s.isLock(2, 1<<30, 0, 3) {
		t.Fatalf("isLock should not fire below height with every other clause disabled")
	}
}

func TestStrategy_IsLockMaxLevelClauseNarrowsOnRestart(t *testing.T) {
	s := NewORWC(0, 1<<30)
	// After a restart narrowed maxLevel to 1, any currLevel >= 1 forces
	// an eager lock on the next attempt.
	if !s.isLock(1, 1, 0, 10) {
		t.Fatalf("isLock should fire once currLevel reaches the narrowed maxLevel")
	}
}

func TestStrategy_IsLockWriteLevelFraction(t *testing.T) {
	s := NewORWC(0.5, 1<<30)
	if s.isLock(1, 1<<30, 0, 10) {
		t.Fatalf("isLock should not fire below half the height")
	}
	if !s.isLock(5, 1<<30, 0, 10) {
		t.Fatalf("isLock should fire at half the height")
	}
}

// NewOLC and NewHybridLocking never set WriteAttempts, so it defaults
// to zero; isLock must treat that as "no attempt-count trigger
// configured", not as "fire on attempt zero" — otherwise every write
// would take an eager exclusive-style latch at every level regardless
// of contention, which defeats optimistic lock coupling entirely.
func TestStrategy_IsLockZeroWriteAttemptsNeverFiresOnAttemptCount(t *testing.T) {
	olc := NewOLC()
	if olc.isLock(2, unboundedLockLevel, 0, 10) {
		t.Fatalf("OLC.isLock should stay optimistic on a fresh attempt at a non-full, non-deep node")
	}
	hybrid := NewHybridLocking(2)
	if hybrid.isLock(2, unboundedLockLevel, 0, 10) {
		t.Fatalf("HybridLocking.isLock should stay optimistic on a fresh attempt at a non-full, non-deep node")
	}
}

func TestStrategy_IsReadFallbackHybridLocking(t *testing.T) {
	s := NewHybridLocking(2)
	if s.isReadFallback(0, 0, 10) {
		t.Fatalf("should not fall back before the attempt budget is spent")
	}
	if !s.isReadFallback(0, 2, 10) {
		t.Fatalf("should fall back once attempts reach the budget")
	}
}

func TestStrategy_IsReadFallbackLightweightHybrid(t *testing.T) {
	s := NewLightweightHybrid(0.5, 100, 0.5, 100)
	if s.isReadFallback(1, 0, 10) {
		t.Fatalf("should not fall back below half the height")
	}
	if !s.isReadFallback(5, 0, 10) {
		t.Fatalf("should fall back at half the height")
	}
}

func TestStrategy_IsReadFallbackNoOpForNonHybridKinds(t *testing.T) {
	if NewOLC().isReadFallback(1000, 1000, 2) {
		t.Fatalf("pure OLC never falls back to a reader latch")
	}
}
