package viral

import "math/rand/v2"

const (
	DefaultFallbackMin = 30
	DefaultFallbackMax = 70
	breakdownJitter    = 10
)

// FallbackStrategy produces scores when the prediction service is unavailable.
type FallbackStrategy interface {
	// Score returns an overall score.
	Score() int
	// Jitter returns an offset in [-n, n].
	Jitter(n int) int
}

// RandomFallback draws uniformly from [Min, Max].
type RandomFallback struct {
	Min int
	Max int
}

func DefaultFallback() RandomFallback {
	return RandomFallback{Min: DefaultFallbackMin, Max: DefaultFallbackMax}
}

func (f RandomFallback) Score() int {
	if f.Max <= f.Min {
		return f.Min
	}
	return f.Min + rand.IntN(f.Max-f.Min+1)
}

func (f RandomFallback) Jitter(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(2*n+1) - n
}

// FixedFallback always returns Value and shifts every sub-score by Offset.
type FixedFallback struct {
	Value  int
	Offset int
}

func (f FixedFallback) Score() int { return f.Value }

func (f FixedFallback) Jitter(n int) int {
	if n < 0 {
		n = -n
	}
	return max(-n, min(n, f.Offset))
}
