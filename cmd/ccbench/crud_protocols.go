package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/dbkit/ccbptree/internal/randgen"
	"github.com/dbkit/ccbptree/pkg/bptree"
)

// runCrudProtocols runs an updater-only form of the update_read
// workload (no reader goroutines) once per LockingStrategy variant,
// emitting one CSV line per run to stdout so
// the results can be piped into a spreadsheet or plotting script. Each
// invocation gets its own run identifier on stderr, mirroring the
// teacher's use of uuid.NewV7 for traceable run bookkeeping.
func runCrudProtocols(args []string) error {
	fs := flag.NewFlagSet("crud_protocols", flag.ContinueOnError)
	fanOut := fs.Int("fanout", 0, "internal page fan-out (0: size from cache line)")
	leafCap := fs.Int("leafcap", 0, "leaf record capacity (0: size from cache line)")
	count := fs.Int("count", 10_000, "number of records preloaded before each run")
	writers := fs.Int("writers", 4, "concurrent updater goroutines per run")
	duration := fs.Duration("duration", 500*time.Millisecond, "how long each run lasts")
	seed := fs.Uint64("seed", 1, "PRNG seed for the preload order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	fmt.Fprintf(os.Stderr, "ccbench crud_protocols run=%s\n", runID)

	fmt.Fprintln(os.Stdout, "operation_count,threads,strategy,time_ms,fan_out,leaf_capacity,block_bytes")
	for _, name := range allStrategyNames() {
		strategy, err := parseStrategy(name)
		if err != nil {
			return err
		}

		tree := bptree.New[int, string](minKey, maxKey, cmpInt, incInt, decInt, strategy,
			bptree.BlockManagerOptions{FanOut: *fanOut, LeafCapacity: *leafCap})

		records := randgen.Shuffled(*seed, *count)
		for _, rec := range records {
			if _, err := tree.Insert(rec.Key, rec.Payload); err != nil {
				return fmt.Errorf("preload insert %d: %w", rec.Key, err)
			}
		}

		var ops int64
		var done atomic.Bool
		var wg sync.WaitGroup
		start := time.Now()
		for w := 0; w < *writers; w++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				i := 0
				for !done.Load() {
					key := records[i%len(records)].Key
					if _, _, err := tree.Update(key, fmt.Sprintf("v%d-%d", id, i)); err == nil {
						atomic.AddInt64(&ops, 1)
					}
					i++
				}
			}(w)
		}
		time.Sleep(*duration)
		done.Store(true)
		wg.Wait()
		elapsed := time.Since(start)

		fmt.Fprintf(os.Stdout, "%d,%d,%s,%d,%d,%d,%d\n",
			ops, *writers, strategy.Kind, elapsed.Milliseconds(),
			tree.FanOut(), tree.LeafCapacity(), tree.BlockBytes())
	}
	return nil
}
