package block

// PlaceholderCipher repeats state = (state << 1) ^ key for Rounds rounds.
// It is a stand-in used for comparison and benchmarking, not a security primitive:
// every output bit is a fixed linear function of the input and the key.
type PlaceholderCipher struct {
	key uint64
}

// NewPlaceholder keeps the low 64 bits of the key; higher bytes shift out of the state anyway.
func NewPlaceholder(key []byte) (*PlaceholderCipher, error) {
	if !ValidKeySize(len(key)) {
		return nil, KeySizeError(len(key))
	}
	return &PlaceholderCipher{key: low64(key)}, nil
}

func (c *PlaceholderCipher) Encrypt(state uint64) uint64 {
	for i := 0; i < Rounds; i++ {
		state = state<<1 ^ c.key
	}
	return state
}
