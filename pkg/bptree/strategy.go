package bptree

// StrategyKind names the six locking strategies recognized by the
// tree. Strategy dispatch is a tagged enum switched on once per
// acquisition, never a trait-object/interface hierarchy, so the hot
// path inlines cleanly.
type StrategyKind int8

const (
	// MonoWriter assumes single-threaded access; no synchronization.
	MonoWriter StrategyKind = iota
	// LockCoupling crabs down the tree holding exclusive latches.
	LockCoupling
	// ORWC crabs down the tree with reader/writer latches, eagerly
	// taking write latches once WriteLevel*height is reached.
	ORWC
	// OLC is fully optimistic lock coupling.
	OLC
	// LightweightHybrid starts optimistic and falls back to a
	// reader/writer latch after a bounded number of retries.
	LightweightHybrid
	// HybridLocking combines a reader/writer latch with a version
	// word; readers may take either path.
	HybridLocking
)

func (k StrategyKind) String() string {
	switch k {
	case MonoWriter:
		return "MonoWriter"
	case LockCoupling:
		return "LockCoupling"
	case ORWC:
		return "ORWC"
	case OLC:
		return "OLC"
	case LightweightHybrid:
		return "LightweightHybrid"
	case HybridLocking:
		return "HybridLocking"
	default:
		return "Unknown"
	}
}

// LockingStrategy is a tagged configuration object recognized by the
// tree at construction time. It is constructed by value; no
// configuration file is involved.
type LockingStrategy struct {
	Kind StrategyKind

	// ORWC / LightweightHybrid: fraction of height at/above which an
	// eager write latch is acquired.
	WriteLevel float32
	// ORWC / LightweightHybrid: attempt count at/above which an eager
	// write latch is acquired regardless of level.
	WriteAttempts uint32

	// LightweightHybrid: fraction of height / attempt count at which
	// optimistic reads fall back to the reader/writer latch.
	ReadLevel    float32
	ReadAttempts uint32

	// HybridLocking: attempt count at which optimistic reads fall
	// back to the reader/writer latch (no ReadLevel dimension).
}

// NewMonoWriter builds a single-threaded strategy.
func NewMonoWriter() LockingStrategy { return LockingStrategy{Kind: MonoWriter} }

// NewLockCoupling builds an exclusive-latch crabbing strategy.
func NewLockCoupling() LockingStrategy { return LockingStrategy{Kind: LockCoupling} }

// NewOLC builds a fully optimistic strategy.
func NewOLC() LockingStrategy { return LockingStrategy{Kind: OLC} }

// NewORWC builds a reader/writer-coupling strategy that eagerly takes
// write latches starting at writeLevel*height or writeAttempts attempts.
func NewORWC(writeLevel float32, writeAttempts uint32) LockingStrategy {
	return LockingStrategy{Kind: ORWC, WriteLevel: writeLevel, WriteAttempts: writeAttempts}
}

// NewHybridLocking builds a hybrid strategy that falls back to the
// reader/writer latch after readAttempts optimistic retries.
func NewHybridLocking(readAttempts uint32) LockingStrategy {
	return LockingStrategy{Kind: HybridLocking, ReadAttempts: readAttempts}
}

// NewLightweightHybrid builds a strategy that falls back reads to the
// reader/writer latch per (readLevel, readAttempts) and eagerly takes
// write latches per (writeLevel, writeAttempts).
func NewLightweightHybrid(readLevel float32, readAttempts uint32, writeLevel float32, writeAttempts uint32) LockingStrategy {
	return LockingStrategy{
		Kind:          LightweightHybrid,
		ReadLevel:     readLevel,
		ReadAttempts:  readAttempts,
		WriteLevel:    writeLevel,
		WriteAttempts: writeAttempts,
	}
}

// cellMode returns the Latch Cell variant this strategy drives.
func (s LockingStrategy) cellMode() LatchMode {
	switch s.Kind {
	case MonoWriter:
		return LatchNone
	case LockCoupling:
		return LatchExclusive
	case ORWC:
		return LatchReadersWriter
	case OLC:
		return LatchOptimistic
	case LightweightHybrid:
		return LatchLightweightHybrid
	case HybridLocking:
		return LatchHybrid
	default:
		return LatchNone
	}
}

// additionalLockRequired reports whether the strategy's write path
// needs an eager exclusive-style latch beyond the one taken when first
// visiting a page. False only for MonoWriter and LockCoupling, which
// already hold an exclusive-equivalent latch on every page they touch.
func (s LockingStrategy) additionalLockRequired() bool {
	return s.Kind != MonoWriter && s.Kind != LockCoupling
}

// isLock decides whether to acquire an eager write-style latch at this
// depth, per spec.md §4.7:
//
//	currLevel >= height || currLevel >= maxLevel || attempt >= attempts || currLevel >= level*height
//
// attempts == 0 means the attempt-count clause is unconfigured, not
// "fire on the very first attempt" — NewOLC and NewHybridLocking both
// leave WriteAttempts at its zero value, and they rely on the eager
// write latch staying off until an actual restart narrows maxLevel;
// the level clause already gets the same treatment below.
func (s LockingStrategy) isLock(currLevel, maxLevel int, attempt uint32, height int) bool {
	level, attempts := s.WriteLevel, s.WriteAttempts
	if currLevel >= height {
		return true
	}
	if currLevel >= maxLevel {
		return true
	}
	if attempts > 0 && attempt >= attempts {
		return true
	}
	if level > 0 && float32(currLevel) >= level*float32(height) {
		return true
	}
	return false
}

// isReadFallback decides, for LightweightHybrid/HybridLocking, whether
// an optimistic read at this depth/attempt should fall back to the
// reader/writer latch rather than retry optimistically again.
func (s LockingStrategy) isReadFallback(currLevel, attempt uint32, height int) bool {
	switch s.Kind {
	case HybridLocking:
		return attempt >= s.ReadAttempts
	case LightweightHybrid:
		if attempt >= s.ReadAttempts {
			return true
		}
		if s.ReadLevel > 0 && float32(currLevel) >= s.ReadLevel*float32(height) {
			return true
		}
		return false
	default:
		return false
	}
}
