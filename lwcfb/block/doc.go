// Package block provides the 64-bit block primitives that the chainer turns into stream ciphers.
//
// Variants:
//   - Reference: Triple DES from crypto/des, keyed with a parity-adjusted 8, 16 or 24 byte key
//   - Placeholder: 32 rounds of (state<<1) ^ key; a demo stand-in with no diffusion guarantees
//   - Feistel: 32-round Feistel network on 32-bit halves with an LFSR-driven key schedule
//
// Only the forward direction is needed: under cipher feedback the same transform
// produces the keystream for both encryption and decryption.
package block
