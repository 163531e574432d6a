package main

const (
	minKey = -1 << 31
	maxKey = 1<<31 - 1
)

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func incInt(k int) int {
	if k >= maxKey {
		return maxKey
	}
	return k + 1
}

func decInt(k int) int {
	if k <= minKey {
		return minKey
	}
	return k - 1
}
