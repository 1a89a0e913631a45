// Package sensor moves temperature readings through a cipher session and a relay.
//
// A Producer canonicalizes a reading, encodes it and publishes the base64 text under a
// topic. A Listener subscribes to the same topic and decodes whatever arrives, logging
// failures and carrying on. Handler exposes the producer over HTTP.
package sensor
