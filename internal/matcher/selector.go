package matcher

import "math/rand/v2"

// Selector chooses one of n candidate templates.
type Selector interface {
	Pick(n int) int
}

// RandomSelector picks uniformly. Safe for concurrent use.
type RandomSelector struct{}

func (RandomSelector) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return rand.IntN(n)
}

// FixedSelector always picks Index, clamped to the last candidate.
type FixedSelector struct {
	Index int
}

func (s FixedSelector) Pick(n int) int {
	if n <= 0 || s.Index < 0 {
		return 0
	}
	if s.Index >= n {
		return n - 1
	}
	return s.Index
}
