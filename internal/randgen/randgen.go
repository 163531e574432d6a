// Package randgen generates synthetic key/payload workloads for the
// ccbench "gen" subcommand. It is the out-of-scope "randomized data
// generation" collaborator named in spec.md's scope section: the core
// tree never imports it. No third-party generator appears anywhere in
// the retrieval pack, so this deliberately stays on math/rand/v2.
package randgen

import (
	"fmt"
	"math/rand/v2"
)

// IntRecord is one synthetic (key, payload) pair over int keys.
type IntRecord struct {
	Key     int
	Payload string
}

// Shuffled returns n records with keys 1..n permuted into a random
// insertion order, and a payload string derived from the key. Using a
// permutation rather than independent draws guarantees no duplicate
// keys, matching the uniqueness tests expect of S5/S6-style workloads.
func Shuffled(seed uint64, n int) []IntRecord {
	if n <= 0 {
		return nil
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	keys := make([]int, n)
	for i := range keys {
		keys[i] = i + 1
	}
	r.Shuffle(n, func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	records := make([]IntRecord, n)
	for i, k := range keys {
		records[i] = IntRecord{Key: k, Payload: fmt.Sprintf("payload-%d", k)}
	}
	return records
}

// Partition splits records into `parts` roughly equal contiguous
// slices, for handing one slice to each benchmark worker goroutine.
func Partition(records []IntRecord, parts int) [][]IntRecord {
	if parts <= 0 {
		parts = 1
	}
	out := make([][]IntRecord, 0, parts)
	n := len(records)
	base := n / parts
	rem := n % parts
	start := 0
	for i := 0; i < parts; i++ {
		size := base
		if i < rem {
			size++
		}
		out = append(out, records[start:start+size])
		start += size
	}
	return out
}
