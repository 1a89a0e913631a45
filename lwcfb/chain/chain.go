// Package chain implements byte-wise cipher feedback (CFB-8) over a 64-bit block primitive.
//
// For every byte the primitive is applied to the 64-bit register, the most significant
// byte of the result is XORed with the input, and the ciphertext byte is shifted into
// the low end of the register. Encryption and decryption differ only in which side of
// the XOR is the ciphertext.
package chain

import (
	"crypto/cipher"

	"github.com/TheusHen/lwcfb/lwcfb/block"
)

// Stream is a CFB-8 keystream over a block.Primitive. It is not safe for concurrent use.
type Stream struct {
	p       block.Primitive
	reg     uint64
	decrypt bool
}

var _ cipher.Stream = (*Stream)(nil)

// NewEncrypter returns a Stream that encrypts, starting from register iv.
func NewEncrypter(p block.Primitive, iv uint64) *Stream {
	return &Stream{p: p, reg: iv}
}

// NewDecrypter returns a Stream that decrypts, starting from register iv.
func NewDecrypter(p block.Primitive, iv uint64) *Stream {
	return &Stream{p: p, reg: iv, decrypt: true}
}

// Reset rewinds the register to iv.
func (s *Stream) Reset(iv uint64) { s.reg = iv }

// Register returns the current chaining state.
func (s *Stream) Register() uint64 { return s.reg }

// XORKeyStream processes len(src) bytes into dst. dst and src may overlap entirely.
func (s *Stream) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("chain: output smaller than input")
	}
	for i, in := range src {
		ks := byte(s.p.Encrypt(s.reg) >> 56)
		out := in ^ ks
		fb := out
		if s.decrypt {
			fb = in
		}
		s.reg = s.reg<<8 | uint64(fb)
		dst[i] = out
	}
}
