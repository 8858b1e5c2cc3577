package stego

import "math/rand"

// GeneratePN returns length chips drawn from {-1, +1} by a math/rand source
// seeded with seed. The seeded stream is stable across Go releases, so the
// same (seed, length) always yields the same sequence; embedder and
// extractor rely on that as their shared key.
func GeneratePN(seed int64, length int) []int8 {
	if length <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	pn := make([]int8, length)
	for i := range pn {
		if rng.Intn(2) == 0 {
			pn[i] = -1
		} else {
			pn[i] = 1
		}
	}
	return pn
}
