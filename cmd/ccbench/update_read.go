package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/dbkit/ccbptree/internal/randgen"
	"github.com/dbkit/ccbptree/pkg/bptree"
)

// runUpdateRead mirrors the teacher's concurrent_access walkthrough:
// a pool of writer goroutines hammering Update against a
// shared tree while a pool of readers polls Point, counting
// completions under a WaitGroup rather than asserting correctness
// (that's concurrency_test.go's job).
func runUpdateRead(args []string) error {
	fs := flag.NewFlagSet("update_read", flag.ContinueOnError)
	strategyName := fs.StringP("strategy", "s", "olc", "locking strategy: "+joinNames(allStrategyNames()))
	fanOut := fs.Int("fanout", 0, "internal page fan-out (0: size from cache line)")
	leafCap := fs.Int("leafcap", 0, "leaf record capacity (0: size from cache line)")
	count := fs.Int("count", 10_000, "number of records preloaded before the workload runs")
	writers := fs.Int("writers", 4, "concurrent updater goroutines")
	readers := fs.Int("readers", 4, "concurrent reader goroutines")
	duration := fs.Duration("duration", 500*time.Millisecond, "how long the workload runs")
	seed := fs.Uint64("seed", 1, "PRNG seed for the preload order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	strategy, err := parseStrategy(*strategyName)
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

	var updatesOK, pointsOK int64
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
				if _, _, err := tree.Update(key, fmt.Sprintf("writer%d-v%d", id, i)); err == nil {
					atomic.AddInt64(&updatesOK, 1)
				}
				i++
			}
		}(w)
	}
	for r := 0; r < *readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			i := 0
			for !done.Load() {
				key := records[i%len(records)].Key
				if _, found, _ := tree.Point(key); found {
					atomic.AddInt64(&pointsOK, 1)
				}
				i++
			}
		}()
	}

	time.Sleep(*duration)
	done.Store(true)
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Fprintf(os.Stdout, "strategy=%s updates=%d points=%d elapsed=%s height=%d\n",
		strategy.Kind, updatesOK, pointsOK, elapsed, tree.Height())
	return nil
}
