package main

import (
	"fmt"
	"strings"

	"github.com/dbkit/ccbptree/pkg/bptree"
)

// parseStrategy resolves a --strategy flag value into a LockingStrategy,
// using the parameter defaults spec.md leaves up to the caller.
func parseStrategy(name string) (bptree.LockingStrategy, error) {
	switch strings.ToLower(name) {
	case "mono", "monowriter":
		return bptree.NewMonoWriter(), nil
	case "lockcoupling", "exclusive":
		return bptree.NewLockCoupling(), nil
	case "orwc":
		return bptree.NewORWC(0.5, 2), nil
	case "olc", "optimistic":
		return bptree.NewOLC(), nil
	case "lighthybrid", "lightweighthybrid":
		return bptree.NewLightweightHybrid(0.5, 2, 0.5, 2), nil
	case "hybrid", "hybridlocking":
		return bptree.NewHybridLocking(2), nil
	default:
		return bptree.LockingStrategy{}, fmt.Errorf("unknown strategy %q", name)
	}
}

func allStrategyNames() []string {
	return []string{"mono", "lockcoupling", "orwc", "olc", "lighthybrid", "hybrid"}
}
