// Package shuffle provides the deterministic seating shuffle.
//
// The raffle assigns each participant a visible seat number ("1", "2", ...)
// by shuffling the alphabetical name list once with a fixed seed. Everyone
// who computes the seating from the same seed gets the same numbers; that is
// the whole point: the printed tickets, the wheel client, and this server all
// agree without coordinating.
//
// WHY A HAND-ROLLED LCG?
// Seed determinism only has to hold within this implementation, but the
// generator is deliberately the classic Lehmer-style recurrence
//
//	state = (state*1103515245 + 12345) mod 2^31
//
// (the ANSI C rand constants) because it is trivial to reproduce in any
// language the ticket-printing side might use. math/rand's generator is a
// different, much longer algorithm and would tie the seating to Go.
package shuffle

// LCG is a tiny deterministic pseudorandom generator.
type LCG struct {
	state int64
}

// NewLCG returns a generator seeded with the given value.
func NewLCG(seed int64) *LCG {
	return &LCG{state: seed}
}

// Float64 returns the next value in [0, 1).
func (g *LCG) Float64() float64 {
	g.state = (g.state*1103515245 + 12345) & 0x7fffffff
	return float64(g.state) / float64(0x80000000)
}

// Intn returns a value in [0, n). Panics if n <= 0.
func (g *LCG) Intn(n int) int {
	if n <= 0 {
		panic("shuffle: Intn with non-positive n")
	}
	return int(g.Float64() * float64(n))
}

// Strings returns a seeded Fisher-Yates shuffle of names. The input slice is
// not modified.
func Strings(names []string, seed int64) []string {
	out := make([]string, len(names))
	copy(out, names)

	g := NewLCG(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := g.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
