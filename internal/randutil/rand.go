// Package randutil seeds math/rand/v2 generators from a single int64 so
// shuffles, reference ranks and fatal chambers can be replayed: the same
// seed deals the same game.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand whose sequence is fully determined by seed. The
// PCG source wants two 64-bit seeds; both are derived here so every call
// site gets the same derivation.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// mix is a splitmix64-style finalizer, spreading nearby seeds (0, 1, 2...)
// across the full state space.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
