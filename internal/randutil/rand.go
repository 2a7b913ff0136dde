// Package randutil centralises how seeded PRNGs are built, so every deck and
// strategy draws from a reproducible sequence when a game is seeded.
package randutil

import (
	"crypto/rand"
	"encoding/binary"
	randv2 "math/rand/v2"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The two 64-bit PCG seeds are derived with a splitmix finalizer so nearby
// seeds produce unrelated streams.
func New(seed int64) *randv2.Rand {
	u := uint64(seed)
	return randv2.New(randv2.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns a fresh random seed from the OS entropy pool, for games that
// did not configure one.
func Seed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Entropy exhaustion is not survivable in any useful way.
		panic("randutil: reading random seed: " + err.Error())
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
