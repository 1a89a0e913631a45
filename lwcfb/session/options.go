package session

// Option configures New.
type Option func(*options)

type options struct {
	keySize int
	key     []byte
	iv      []byte
	haveKey bool
	haveIV  bool
}

// WithKeySize sets the length of the generated key (8, 16 or 24 bytes).
func WithKeySize(n int) Option {
	return func(o *options) { o.keySize = n }
}

// WithKey uses the given key instead of generating one.
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = append([]byte(nil), key...)
		o.haveKey = true
	}
}

// WithIV uses the given IV instead of generating one.
func WithIV(iv []byte) Option {
	return func(o *options) {
		o.iv = append([]byte(nil), iv...)
		o.haveIV = true
	}
}
