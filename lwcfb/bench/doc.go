// Package bench measures and verifies cipher sessions over a grid of key sizes and
// plaintext lengths.
//
// Each cell gets a fresh session. Every sample is encoded and decoded with separate
// monotonic timings and must round-trip exactly; a mismatch aborts the run with a
// RoundTripError instead of being reported as a timing.
package bench
