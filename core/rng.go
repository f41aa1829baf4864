package core

import (
	"math/rand"
	"time"
)

// RNGService derives one independent random stream per worker from a
// single master seed. The master generator is consumed exactly once, to
// draw Nthread child seeds, up front — this is what makes results depend
// only on the master seed and the thread count, never on goroutine
// scheduling. Each worker gets its own math/rand.Rand over a dedicated
// source rather than sharing the global source.
type RNGService struct {
	streams []*rand.Rand
}

// NewRNGService builds Nthread child streams. If seed is nil, the master is
// seeded from the wall clock.
func NewRNGService(nThreads int, seed *uint64) *RNGService {
	var masterSeed uint64
	if seed != nil {
		masterSeed = *seed
	} else {
		masterSeed = uint64(time.Now().UnixNano())
	}

	master := rand.New(newMT19937(masterSeed))
	streams := make([]*rand.Rand, nThreads)
	for i := 0; i < nThreads; i++ {
		childSeed := master.Uint64()
		streams[i] = rand.New(newMT19937(childSeed))
	}
	return &RNGService{streams: streams}
}

// Stream returns the RNG owned by worker i. It must never be shared across
// workers.
func (s *RNGService) Stream(i int) *rand.Rand {
	return s.streams[i]
}

// Uniform01Open draws a uniform variate in the open interval (0,1), matching
// gsl_rng_uniform_pos's exclusion of zero so that -log(U) in the SSA kernel's
// waiting-time draw never diverges.
func Uniform01Open(r *rand.Rand) float64 {
	for {
		u := r.Float64()
		if u > 0 {
			return u
		}
	}
}
