package core

import "math/rand"

// splitByHypergeometric distributes k individuals, drawn without replacement
// from a population stratified into the given counts, across those strata,
// preserving Σcounts as the total population size. It implements the
// sequential-conditional-Bernoulli construction of a multivariate
// hypergeometric draw: each stratum in turn draws a hypergeometric number
// of successes out of what's left, then is removed from the remaining
// population.
func splitByHypergeometric(counts []int64, k int64, rng *rand.Rand) []int64 {
	result := make([]int64, len(counts))
	if len(counts) == 0 {
		return result
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	if k > total {
		k = total
	}
	if k <= 0 {
		return result
	}

	remainingPop := total
	remainingNeed := k
	for i := 0; i < len(counts)-1 && remainingNeed > 0; i++ {
		x := hypergeometricDraw(remainingPop, counts[i], remainingNeed, rng)
		result[i] = x
		remainingNeed -= x
		remainingPop -= counts[i]
	}
	if remainingNeed > 0 {
		last := len(counts) - 1
		if remainingNeed > counts[last] {
			remainingNeed = counts[last]
		}
		result[last] = remainingNeed
	}
	return result
}

// hypergeometricDraw returns the number of successes when drawing n items
// without replacement from a population of size pop containing K successes.
// It's implemented as a direct sequence of conditional Bernoulli trials
// rather than an inversion-sampling shortcut, which keeps it exact for any
// population size at the cost of O(n) draws per call — acceptable here
// since n is bounded by a single event's individual count.
func hypergeometricDraw(pop, successes, n int64, rng *rand.Rand) int64 {
	if n <= 0 || successes <= 0 || pop <= 0 {
		return 0
	}
	if n > pop {
		n = pop
	}

	var drawn int64
	remainingPop := pop
	remainingSuccesses := successes
	for i := int64(0); i < n; i++ {
		if remainingPop <= 0 {
			break
		}
		p := float64(remainingSuccesses) / float64(remainingPop)
		if rng.Float64() < p {
			drawn++
			remainingSuccesses--
		}
		remainingPop--
	}
	return drawn
}
