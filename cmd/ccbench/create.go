package main

import (
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/dbkit/ccbptree/internal/randgen"
	"github.com/dbkit/ccbptree/pkg/bptree"
)

func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	strategyName := fs.StringP("strategy", "s", "olc", "locking strategy: "+joinNames(allStrategyNames()))
	fanOut := fs.Int("fanout", 0, "internal page fan-out (0: size from cache line)")
	leafCap := fs.Int("leafcap", 0, "leaf record capacity (0: size from cache line)")
	count := fs.Int("count", 10_000, "number of records to insert")
	seed := fs.Uint64("seed", 1, "PRNG seed for the insertion order")
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
	totalVisits := 0
	start := time.Now()
	for _, rec := range records {
		visits, err := tree.Insert(rec.Key, rec.Payload)
		if err != nil {
			return fmt.Errorf("insert %d: %w", rec.Key, err)
		}
		totalVisits += visits
	}
	elapsed := time.Since(start)

	fmt.Fprintf(os.Stdout, "strategy=%s count=%d height=%d total_node_visits=%d elapsed=%s\n",
		strategy.Kind, *count, tree.Height(), totalVisits, elapsed)
	return nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += "|"
		}
		out += n
	}
	return out
}
