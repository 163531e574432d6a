package main

import (
	"bufio"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/dbkit/ccbptree/internal/randgen"
)

// runGen emits a synthetic shuffled key/payload workload as CSV so it
// can be captured once and replayed identically across strategies.
func runGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	count := fs.Int("count", 10_000, "number of records to generate")
	seed := fs.Uint64("seed", 1, "PRNG seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	fmt.Fprintln(w, "key,payload")
	for _, rec := range randgen.Shuffled(*seed, *count) {
		fmt.Fprintf(w, "%d,%s\n", rec.Key, rec.Payload)
	}
	return nil
}
