package bptree

import (
	"sync/atomic"

	"github.com/dbkit/ccbptree/internal/sysinfo"
)

// BlockManager allocates fresh Blocks with monotonically increasing
// identifiers, sized by a leaf capacity N and fan-out F chosen to fit
// a target byte budget. It is invoked by the Tree Core on splits (and
// at construction, for the first root) and holds no other state.
type BlockManager[K any, V any] struct {
	nextID    atomic.Uint64
	fanOut    int
	leafCap   int
	blockByte int
	mode      LatchMode
}

// BlockManagerOptions configures capacity sizing. A zero value picks
// capacities from the host's cache line size via internal/sysinfo.
type BlockManagerOptions struct {
	FanOut        int
	LeafCapacity  int
	BlockBytes    int
	KeySize       int
	PointerSize   int
	RecordSize    int
}

func newBlockManager[K any, V any](mode LatchMode, opts BlockManagerOptions) *BlockManager[K, V] {
	bm := &BlockManager[K, V]{mode: mode}

	blockBytes := opts.BlockBytes
	if blockBytes <= 0 {
		blockBytes = sysinfo.DefaultBlockBytes()
	}
	bm.blockByte = blockBytes

	fanOut := opts.FanOut
	if fanOut <= 0 {
		fanOut = sysinfo.FanOutForByteBudget(blockBytes, opts.KeySize, opts.PointerSize)
	}
	if fanOut < 3 {
		fanOut = 3
	}
	bm.fanOut = fanOut

	leafCap := opts.LeafCapacity
	if leafCap <= 0 {
		leafCap = sysinfo.LeafCapacityForByteBudget(blockBytes, opts.RecordSize)
	}
	if leafCap < 2 {
		leafCap = 2
	}
	bm.leafCap = leafCap

	return bm
}

func (bm *BlockManager[K, V]) FanOut() int       { return bm.fanOut }
func (bm *BlockManager[K, V]) LeafCapacity() int { return bm.leafCap }
func (bm *BlockManager[K, V]) BlockBytes() int   { return bm.blockByte }

func (bm *BlockManager[K, V]) allocID() uint64 {
	return bm.nextID.Add(1) - 1
}

// newLeafBlock allocates an empty leaf Block wrapped in a Latch Cell
// of the manager's configured variant.
func (bm *BlockManager[K, V]) newLeafBlock() *Cell[K, V] {
	return newCell[K, V](bm.allocID(), bm.mode, leafNode[K, V](bm.leafCap))
}

// newInternalBlock allocates an empty internal Block wrapped in a
// Latch Cell of the manager's configured variant.
func (bm *BlockManager[K, V]) newInternalBlock() *Cell[K, V] {
	return newCell[K, V](bm.allocID(), bm.mode, internalNode[K, V](bm.fanOut))
}
