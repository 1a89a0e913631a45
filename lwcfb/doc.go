// Package lwcfb provides lightweight 64-bit block ciphers run in 8-bit cipher feedback
// mode, a benchmark harness for them, and the plumbing to carry encrypted sensor
// readings over a publish/subscribe relay.
//
// The building blocks live in subpackages: block (primitives), chain (CFB-8),
// session (key, IV and base64 encoding), bench, sensor, relay, protocol and config.
// Node ties a session to a relay transport for the common producer/listener setup.
//
// The Placeholder and Feistel variants are demonstration-grade. Every message under a
// session starts from the same IV, so equal plaintext prefixes produce equal ciphertext
// prefixes and there is no integrity check.
package lwcfb
