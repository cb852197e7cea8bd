package dice

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand"
	"sync"
	"time"
)

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// seededSource implements Source using a seeded math/rand generator,
// serialized by a mutex. Two seededSources created with the same seed
// produce identical draw sequences.
type seededSource struct {
	mu   sync.Mutex
	rng  *mathrand.Rand
	seed int64
}

// NewSeeded returns a reproducible Source for the given seed.
// A zero seed is replaced with a time-derived value; call Seed() to learn
// the effective seed for later replay.
//
// Postcondition: Seed() returns a nonzero value.
func NewSeeded(seed int64) *seededSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &seededSource{
		rng:  mathrand.New(mathrand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the effective seed backing this source.
func (s *seededSource) Seed() int64 {
	return s.seed
}

// Intn returns a random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" otherwise.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// cryptoSource implements Source using crypto/rand, for play sessions that
// do not need replayability.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}
