// Package session holds the cipher session: one variant, one key and one IV for the
// lifetime of a process, exposing base64 Encode/Decode over the CFB-8 chainer.
//
// Every Encode and Decode call restarts the chaining register from the same IV.
// Two messages therefore share keystream bytes until their ciphertexts first differ.
// This matches the deployed wire format, which carries no per-message IV, and is a
// known weakness rather than a property to rely on.
package session
