package crypto

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/TheusHen/lwcfb/lwcfb/block"
)

var (
	ErrInvalidLength = errors.New("crypto: invalid length")
)

// RandomBytes reads n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrInvalidLength
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateKeyIV returns a fresh key of keySize bytes and a one-block IV.
func GenerateKeyIV(keySize int) (key, iv []byte, err error) {
	if !block.ValidKeySize(keySize) {
		return nil, nil, block.KeySizeError(keySize)
	}
	key, err = RandomBytes(keySize)
	if err != nil {
		return nil, nil, err
	}
	iv, err = RandomBytes(block.Size)
	if err != nil {
		return nil, nil, err
	}
	return key, iv, nil
}
