// Package rng derives reproducible random streams from a single master seed.
//
// Every consumer of randomness in a run (the orchestrator, each engine, each
// exploration task) owns a private stream whose seed is derived from the master
// seed and a stream path. Results therefore depend only on the master seed and
// never on goroutine scheduling.
package rng

import "golang.org/x/exp/rand"

const golden = 0x9e3779b97f4a7c15

// mix is the splitmix64 finaliser.
func mix(z uint64) uint64 {
	z += golden
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Derive returns the seed of the sub-stream identified by path below master.
// Derive(m) differs from m, and for a non-empty path
// Derive(m, a, b) == Derive(Derive(m, a), b).
func Derive(master uint64, path ...uint64) uint64 {
	if len(path) == 0 {
		return mix(master)
	}
	h := master
	for _, p := range path {
		h = step(h, p)
	}
	return h
}

func step(h, p uint64) uint64 {
	return mix(h ^ mix(p+golden))
}

// New returns a generator seeded with seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Stream returns a generator on the sub-stream path of master.
func Stream(master uint64, path ...uint64) *rand.Rand {
	return New(Derive(master, path...))
}
