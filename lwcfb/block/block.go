package block

import (
	"encoding/binary"
	"errors"
	"strconv"
	"strings"
)

const (
	// Size is the block width in bytes shared by every variant.
	Size = 8
	// Rounds is the round count of the Placeholder and Feistel variants.
	Rounds = 32
)

var (
	ErrUnknownVariant = errors.New("block: unknown variant")
)

// KeySizeError reports a key whose length no variant accepts.
type KeySizeError int

func (k KeySizeError) Error() string {
	return "block: invalid key size " + strconv.Itoa(int(k))
}

// ValidKeySize reports whether n is one of the supported key lengths (8, 16, 24).
func ValidKeySize(n int) bool {
	return n == 8 || n == 16 || n == 24
}

// Primitive is a keyed, deterministic transform on one 64-bit block.
type Primitive interface {
	Encrypt(state uint64) uint64
}

// Variant selects the primitive behind a session.
type Variant uint8

const (
	Reference Variant = iota + 1
	Placeholder
	Feistel
)

func (v Variant) String() string {
	switch v {
	case Reference:
		return "3des"
	case Placeholder:
		return "placeholder"
	case Feistel:
		return "feistel"
	default:
		return "unknown"
	}
}

// DefaultKeySize is the key length used when a session generates its own key.
func (v Variant) DefaultKeySize() int {
	switch v {
	case Reference:
		return 24
	default:
		return 16
	}
}

// ParseVariant accepts the String() names plus common aliases.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "3des", "tdes", "des3", "reference":
		return Reference, nil
	case "placeholder", "skinny":
		return Placeholder, nil
	case "feistel", "simeck":
		return Feistel, nil
	default:
		return 0, ErrUnknownVariant
	}
}

// New builds the primitive for v from key.
func New(v Variant, key []byte) (Primitive, error) {
	switch v {
	case Reference:
		return NewTripleDES(key)
	case Placeholder:
		return NewPlaceholder(key)
	case Feistel:
		return NewFeistel(key)
	default:
		return nil, ErrUnknownVariant
	}
}

// low64 returns the key's big-endian integer value truncated to 64 bits.
func low64(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
