// Package crypto provides key material for cipher sessions.
//
// Keys and IVs are either drawn fresh from crypto/rand or derived with HKDF-SHA256
// from a secret that producer and consumer share out of band. Nothing here is
// persisted or transmitted.
package crypto
