// Package protocol defines the relay wire format: length-prefixed frames carrying
// JSON control messages, with optional LZ4 compression of large payloads.
package protocol
