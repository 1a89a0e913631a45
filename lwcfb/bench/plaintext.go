package bench

import (
	"math/rand/v2"
)

// Alphabet is the character set of generated plaintexts.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

// textSource produces reproducible alphanumeric plaintexts.
type textSource struct {
	rng *rand.Rand
}

func newTextSource(seed uint64) *textSource {
	return &textSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *textSource) next(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = Alphabet[s.rng.IntN(len(Alphabet))]
	}
	return string(b)
}
