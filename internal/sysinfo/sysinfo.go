// Package sysinfo reports host characteristics used to pick default
// page-sizing constants for pkg/bptree's block manager. It is an
// external collaborator invoked through a narrow contract: the core
// tree never imports runtime/CPU-detection packages directly.
package sysinfo

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Report summarizes the host for a benchmark CSV line or block-manager
// default.
type Report struct {
	NumCPU        int
	CacheLineSize int
}

// Current reports the running host's CPU count and cache line size.
func Current() Report {
	return Report{
		NumCPU:        runtime.NumCPU(),
		CacheLineSize: CacheLineSize(),
	}
}

// CacheLineSize returns the host's cache line size in bytes, falling
// back to 64 (the common case on amd64/arm64) when the platform value
// is unavailable.
func CacheLineSize() int {
	if cpu.CacheLinePadSize > 0 {
		return cpu.CacheLinePadSize
	}
	return 64
}

// FanOutForByteBudget returns the largest fan-out F such that an
// internal page holding F-1 keys of keySize bytes plus F child handles
// of pointerSize bytes fits within budgetBytes, bounded below by a
// minimum usable fan-out of 4.
func FanOutForByteBudget(budgetBytes, keySize, pointerSize int) int {
	if keySize <= 0 {
		keySize = 8
	}
	if pointerSize <= 0 {
		pointerSize = 8
	}
	f := (budgetBytes + keySize) / (keySize + pointerSize)
	if f < 4 {
		f = 4
	}
	return f
}

// LeafCapacityForByteBudget returns the largest record count N such
// that a leaf page holding N records of recordSize bytes fits within
// budgetBytes, bounded below by a minimum usable capacity of 4.
func LeafCapacityForByteBudget(budgetBytes, recordSize int) int {
	if recordSize <= 0 {
		recordSize = 16
	}
	n := budgetBytes / recordSize
	if n < 4 {
		n = 4
	}
	return n
}

// DefaultBlockBytes is the byte budget used when the caller does not
// specify one: a small multiple of the host cache line size, rounded
// up toward the conventional 4 KiB page.
func DefaultBlockBytes() int {
	line := CacheLineSize()
	budget := line * 64
	if budget < 4096 {
		budget = 4096
	}
	return budget
}
