// Package entropy provides the arena's random source: deterministic when
// seeded for reproducible runs, crypto/rand-seeded otherwise.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// Source wraps a math/rand generator so arena runs replay exactly from a seed.
type Source struct {
	rng *rand.Rand
}

// NewSource creates a source from a seed. Seed 0 draws a random seed from
// crypto/rand, for runs that should differ each launch.
func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = cryptoSeed()
	}
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Float returns a float64 in [0, 1).
func (s *Source) Float() float64 {
	return s.rng.Float64()
}

// Intn returns an int in [0, n).
func (s *Source) Intn(n int) int {
	return s.rng.Intn(n)
}

// Chance returns true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.rng.Float64() < p
}

// cryptoSeed derives a seed from crypto/rand.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		// Should never happen; fall back to a fixed seed rather than panic.
		return 1
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}
