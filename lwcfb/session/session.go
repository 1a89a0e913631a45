package session

import (
	"encoding/base64"
	"encoding/binary"
	"unicode/utf8"

	"github.com/TheusHen/lwcfb/lwcfb/block"
	"github.com/TheusHen/lwcfb/lwcfb/chain"
	"github.com/TheusHen/lwcfb/lwcfb/crypto"
)

// Session is immutable after New and safe for concurrent use.
type Session struct {
	variant block.Variant
	key     []byte
	iv      []byte
	ivWord  uint64
	prim    block.Primitive
}

// New builds a session for variant v. Key and IV are drawn from crypto/rand unless
// supplied with WithKey and WithIV. Malformed lengths are rejected here and never later.
func New(v block.Variant, opts ...Option) (*Session, error) {
	o := options{keySize: v.DefaultKeySize()}
	for _, opt := range opts {
		opt(&o)
	}

	key, iv := o.key, o.iv
	if !o.haveKey && !block.ValidKeySize(o.keySize) {
		return nil, block.KeySizeError(o.keySize)
	}
	switch {
	case !o.haveKey && !o.haveIV:
		var err error
		key, iv, err = crypto.GenerateKeyIV(o.keySize)
		if err != nil {
			return nil, err
		}
	case !o.haveKey:
		var err error
		key, err = crypto.RandomBytes(o.keySize)
		if err != nil {
			return nil, err
		}
	case !o.haveIV:
		var err error
		iv, err = crypto.RandomBytes(block.Size)
		if err != nil {
			return nil, err
		}
	}
	if len(iv) != block.Size {
		return nil, ErrInvalidIV
	}

	prim, err := block.New(v, key)
	if err != nil {
		return nil, err
	}
	return &Session{
		variant: v,
		key:     key,
		iv:      iv,
		ivWord:  binary.BigEndian.Uint64(iv),
		prim:    prim,
	}, nil
}

func (s *Session) Variant() block.Variant { return s.variant }

func (s *Session) KeySize() int { return len(s.key) }

func (s *Session) BlockSize() int { return block.Size }

// Rounds reports the primitive's round count; the Reference variant runs DES's own 3x16.
func (s *Session) Rounds() int {
	if s.variant == block.Reference {
		return 48
	}
	return block.Rounds
}

// Key returns a copy of the key, for handing to the other end out of band.
func (s *Session) Key() []byte { return append([]byte(nil), s.key...) }

// IV returns a copy of the IV.
func (s *Session) IV() []byte { return append([]byte(nil), s.iv...) }

// Encode encrypts text and returns standard base64. Empty input yields "".
func (s *Session) Encode(plaintext string) string {
	return s.EncodeBytes([]byte(plaintext))
}

// EncodeBytes encrypts arbitrary bytes and returns standard base64.
func (s *Session) EncodeBytes(plaintext []byte) string {
	if len(plaintext) == 0 {
		return ""
	}
	ct := make([]byte, len(plaintext))
	chain.NewEncrypter(s.prim, s.ivWord).XORKeyStream(ct, plaintext)
	return base64.StdEncoding.EncodeToString(ct)
}

// DecodeBytes reverses EncodeBytes without checking that the result is text.
func (s *Session) DecodeBytes(encoded string) ([]byte, error) {
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &DecodeError{Reason: "malformed base64", Err: err}
	}
	pt := make([]byte, len(ct))
	chain.NewDecrypter(s.prim, s.ivWord).XORKeyStream(pt, ct)
	return pt, nil
}

// Decode reverses Encode. The recovered bytes must be valid UTF-8.
func (s *Session) Decode(encoded string) (string, error) {
	pt, err := s.DecodeBytes(encoded)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(pt) {
		return "", &DecodeError{Reason: "plaintext is not valid UTF-8"}
	}
	return string(pt), nil
}
