package block

import (
	"crypto/cipher"
	"crypto/des"
	"encoding/binary"
	"math/bits"
)

// TripleDESCipher adapts crypto/des to the uint64 register interface.
type TripleDESCipher struct {
	b cipher.Block
}

// NewTripleDES accepts K1|K2|K3 (24 bytes), K1|K2 (16 bytes, used as K1|K2|K1)
// or K (8 bytes, used as K|K|K, which degenerates to single DES).
func NewTripleDES(key []byte) (*TripleDESCipher, error) {
	var full []byte
	switch len(key) {
	case 24:
		full = append([]byte(nil), key...)
	case 16:
		full = make([]byte, 0, 24)
		full = append(full, key...)
		full = append(full, key[:8]...)
	case 8:
		full = make([]byte, 0, 24)
		full = append(full, key...)
		full = append(full, key...)
		full = append(full, key...)
	default:
		return nil, KeySizeError(len(key))
	}
	AdjustParity(full)

	b, err := des.NewTripleDESCipher(full)
	if err != nil {
		return nil, err
	}
	return &TripleDESCipher{b: b}, nil
}

// AdjustParity sets the low bit of every byte so each byte has odd parity.
func AdjustParity(key []byte) {
	for i, b := range key {
		b &^= 1
		if bits.OnesCount8(b)%2 == 0 {
			b |= 1
		}
		key[i] = b
	}
}

func (c *TripleDESCipher) Encrypt(state uint64) uint64 {
	var in, out [Size]byte
	binary.BigEndian.PutUint64(in[:], state)
	c.b.Encrypt(out[:], in[:])
	return binary.BigEndian.Uint64(out[:])
}
