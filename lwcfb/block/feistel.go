package block

import "math/bits"

// z drives the key schedule, one constant per round.
var z = [Rounds]uint32{
	1, 1, 1, 1, 1, 0, 1, 0, 0, 0, 1, 0, 0, 1, 0, 1,
	0, 0, 1, 1, 0, 0, 1, 1, 1, 1, 0, 0, 0, 1, 1, 0,
}

// FeistelCipher is a Simeck-style 64-bit Feistel network with 32 rounds.
type FeistelCipher struct {
	roundKeys [Rounds]uint32
}

// NewFeistel expands the master key. Only its low 64 bits enter the schedule,
// as four 16-bit words, most significant first.
func NewFeistel(key []byte) (*FeistelCipher, error) {
	if !ValidKeySize(len(key)) {
		return nil, KeySizeError(len(key))
	}
	m := low64(key)
	k := [4]uint32{
		uint32(m>>48) & 0xffff,
		uint32(m>>32) & 0xffff,
		uint32(m>>16) & 0xffff,
		uint32(m) & 0xffff,
	}

	c := &FeistelCipher{}
	for i := 0; i < Rounds; i++ {
		c.roundKeys[i] = k[0]
		tmp := k[1]
		k[1], k[2], k[3] = k[2], k[3], k[0]
		// Schedule words live in 32-bit lanes: the rotations may carry them past 16 bits.
		k[0], tmp = feistelRound(k[0], tmp, z[i])
		k[1] ^= tmp
	}
	return c, nil
}

// feistelRound returns (right, left ^ f(right) ^ key).
func feistelRound(left, right, key uint32) (uint32, uint32) {
	f := bits.RotateLeft32(right, 5) & bits.RotateLeft32(right, 1)
	return right, left ^ f ^ key
}

// RoundKeys returns a copy of the expanded schedule.
func (c *FeistelCipher) RoundKeys() [Rounds]uint32 {
	return c.roundKeys
}

func (c *FeistelCipher) Encrypt(state uint64) uint64 {
	l := uint32(state >> 32)
	r := uint32(state)
	for _, rk := range c.roundKeys {
		l, r = feistelRound(l, r, rk)
	}
	return uint64(l)<<32 | uint64(r)
}
