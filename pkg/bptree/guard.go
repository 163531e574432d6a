package bptree

// Guard is the scoped acquisition of a Cell's latch — the only legal
// means of accessing a Cell's page contents. Exactly one of the
// acquisition paths below produced it; Release returns it according to
// whichever path that was.
type Guard[K any, V any] struct {
	cell *Cell[K, V]

	writeHeld bool // holding (or upgraded to) a write-capable latch
	optimistic bool // acquired via version capture rather than a real lock
	usedFallback bool // Hybrid/LightweightHybrid: engaged the rw fallback latch
	version    uint64 // captured/assigned version, meaningful when optimistic
	released   bool
}

// acquireRead acquires a read-mode guard on c according to mode.
// For LatchHybrid it prefers the optimistic path, matching "readers
// may be either mode"; for LatchLightweightHybrid the caller decides
// (via strategy.isReadFallback) whether to call acquireRead or
// acquireReadFallback instead.
func acquireRead[K any, V any](c *Cell[K, V]) *Guard[K, V] {
	switch c.mode {
	case LatchNone:
		return &Guard[K, V]{cell: c, writeHeld: true}
	case LatchExclusive:
		c.mu.Lock()
		return &Guard[K, V]{cell: c, writeHeld: true}
	case LatchReadersWriter:
		c.rw.RLock()
		return &Guard[K, V]{cell: c}
	case LatchOptimistic, LatchHybrid, LatchLightweightHybrid:
		v, _ := c.acquireOptimisticRead()
		return &Guard[K, V]{cell: c, optimistic: true, version: v}
	default:
		return &Guard[K, V]{cell: c}
	}
}

// acquireReadFallback forces the reader/writer-latch path on cells
// whose mode supports one, used by HybridLocking/LightweightHybrid
// once the bounded optimistic-retry budget is spent.
func acquireReadFallback[K any, V any](c *Cell[K, V]) *Guard[K, V] {
	c.rw.RLock()
	return &Guard[K, V]{cell: c, usedFallback: true}
}

// acquireWrite makes a single attempt to acquire a write-capable
// guard. ok is false only when an optimistic-family CAS lost a race;
// the tree's retry loop decides whether to retry in place or restart.
func acquireWrite[K any, V any](c *Cell[K, V]) (*Guard[K, V], bool) {
	switch c.mode {
	case LatchNone:
		return &Guard[K, V]{cell: c, writeHeld: true}, true
	case LatchExclusive:
		c.mu.Lock()
		return &Guard[K, V]{cell: c, writeHeld: true}, true
	case LatchReadersWriter:
		c.rw.Lock()
		return &Guard[K, V]{cell: c, writeHeld: true, usedFallback: true}, true
	case LatchOptimistic:
		v, obsolete := c.acquireOptimisticRead()
		if obsolete {
			return nil, false
		}
		nv, ok := c.tryWriteLock(v)
		if !ok {
			return nil, false
		}
		return &Guard[K, V]{cell: c, writeHeld: true, optimistic: true, version: nv}, true
	case LatchHybrid, LatchLightweightHybrid:
		v, obsolete := c.acquireOptimisticRead()
		if !obsolete {
			if nv, ok := c.tryWriteLock(v); ok {
				return &Guard[K, V]{cell: c, writeHeld: true, optimistic: true, version: nv}, true
			}
		}
		// fall back to the pessimistic path rather than fail outright;
		// these two modes exist precisely to bound optimistic retries.
		c.rw.Lock()
		return &Guard[K, V]{cell: c, writeHeld: true, usedFallback: true}, true
	default:
		return &Guard[K, V]{cell: c, writeHeld: true}, true
	}
}

// acquireWriteFallback forces the pessimistic write path, skipping the
// optimistic CAS attempt. The tree's traversal does not call it:
// acquireForLevel takes eager write latches through acquireWrite.
func acquireWriteFallback[K any, V any](c *Cell[K, V]) *Guard[K, V] {
	switch c.mode {
	case LatchReadersWriter, LatchHybrid, LatchLightweightHybrid:
		c.rw.Lock()
		return &Guard[K, V]{cell: c, writeHeld: true, usedFallback: true}
	case LatchExclusive:
		c.mu.Lock()
		return &Guard[K, V]{cell: c, writeHeld: true}
	default:
		return &Guard[K, V]{cell: c, writeHeld: true}
	}
}

// Deref accesses the Page through the Block. It returns (nil, false)
// when the optimistic snapshot it was taken under has been
// invalidated; lock-based guards are always valid while held.
func (g *Guard[K, V]) Deref() (*Node[K, V], bool) {
	if g.optimistic && !g.writeHeld {
		if !g.cell.isReadValid(g.version) {
			return nil, false
		}
		return &g.cell.node, true
	}
	return &g.cell.node, true
}

// DerefUnsafe returns the page pointer unconditionally; callers must
// follow every read with IsValid (or a later Deref) before trusting it.
func (g *Guard[K, V]) DerefUnsafe() *Node[K, V] {
	return &g.cell.node
}

// IsValid reports whether an optimistic snapshot still matches the
// cell; always true for lock-based guards.
func (g *Guard[K, V]) IsValid() bool {
	if g.optimistic && !g.writeHeld {
		return g.cell.isReadValid(g.version)
	}
	return true
}

// UpgradeWriteLock attempts to transition a reader snapshot into a
// write latch, returning false on contention. Guards already holding a
// write latch trivially succeed. Guards acquired via a real reader
// lock (RLock) cannot be upgraded in place — Go's RWMutex offers no
// atomic share-to-exclusive transition — so those report false and the
// caller must restart with an explicit write acquisition.
func (g *Guard[K, V]) UpgradeWriteLock() bool {
	if g.writeHeld {
		return true
	}
	if g.optimistic {
		nv, ok := g.cell.tryWriteLock(g.version)
		if !ok {
			return false
		}
		g.writeHeld = true
		g.version = nv
		return true
	}
	return false
}

// MarkObsolete sets the obsolete marker; only valid while holding a
// write latch.
func (g *Guard[K, V]) MarkObsolete() {
	if !g.writeHeld {
		panic("bptree: MarkObsolete called without a write latch")
	}
	if g.optimistic {
		g.version = g.cell.writeObsolete(g.version)
		return
	}
	g.cell.obsolete.Store(true)
}

// Release returns the guard's latch. Write latches are released,
// obsolete marks persist, and reader snapshots simply evaporate (there
// was never a real lock to give back).
func (g *Guard[K, V]) Release() {
	if g.released {
		return
	}
	g.released = true

	switch g.cell.mode {
	case LatchNone:
		return
	case LatchExclusive:
		g.cell.mu.Unlock()
	case LatchReadersWriter:
		if g.writeHeld {
			g.cell.rw.Unlock()
		} else {
			g.cell.rw.RUnlock()
		}
	case LatchOptimistic:
		if g.writeHeld {
			g.cell.writeUnlock(g.version)
		}
	case LatchHybrid, LatchLightweightHybrid:
		if g.writeHeld {
			if g.usedFallback {
				g.cell.rw.Unlock()
			} else {
				g.cell.writeUnlock(g.version)
			}
		} else if g.usedFallback {
			g.cell.rw.RUnlock()
		}
	}
}
