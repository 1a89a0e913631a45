package crypto

import (
	"crypto/sha256"
	"io"

	"github.com/TheusHen/lwcfb/lwcfb/block"
	"golang.org/x/crypto/hkdf"
)

const keyIVInfo = "lwcfb-session-key-iv"

// DeriveKey derives a key of the specified length using HKDF-SHA256.
// salt can be nil (uses zero salt), info provides context binding.
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	hk := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)
	if _, err := io.ReadFull(hk, key); err != nil {
		return nil, err
	}
	return key, nil
}

// DeriveKeyIV expands a shared secret into a key of keySize bytes followed by an IV.
// Both ends of a relay topic must use the same secret, salt and key size.
func DeriveKeyIV(secret, salt []byte, keySize int) (key, iv []byte, err error) {
	if !block.ValidKeySize(keySize) {
		return nil, nil, block.KeySizeError(keySize)
	}
	if len(secret) == 0 {
		return nil, nil, ErrInvalidLength
	}
	info := make([]byte, 0, len(keyIVInfo)+1)
	info = append(info, keyIVInfo...)
	info = append(info, byte(keySize))

	material, err := DeriveKey(secret, salt, info, keySize+block.Size)
	if err != nil {
		return nil, nil, err
	}
	return material[:keySize], material[keySize:], nil
}
