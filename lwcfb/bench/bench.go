package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TheusHen/lwcfb/lwcfb/block"
	"github.com/TheusHen/lwcfb/lwcfb/session"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyGrid = errors.New("bench: empty parameter grid")
	ErrSamples   = errors.New("bench: sample count must be positive")
)

// RoundTripError reports a sample whose decode did not reproduce the plaintext.
// It indicates a correctness bug, never a performance data point.
type RoundTripError struct {
	Variant   block.Variant
	KeyBits   int
	Length    int
	Plaintext string
	Got       string
	Err       error
}

func (e *RoundTripError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bench: %s/%d-bit round trip failed for length %d: %v", e.Variant, e.KeyBits, e.Length, e.Err)
	}
	return fmt.Sprintf("bench: %s/%d-bit round trip mismatch for length %d: %q != %q", e.Variant, e.KeyBits, e.Length, e.Got, e.Plaintext)
}

func (e *RoundTripError) Unwrap() error { return e.Err }

// Config describes the grid. Key sizes are in bytes.
type Config struct {
	Variant        block.Variant
	KeySizes       []int
	PlaintextSizes []int
	Samples        int
	// Seed makes the generated plaintexts reproducible; keys are always fresh.
	Seed uint64
}

// DefaultConfig is the 64/128/192-bit by 50..250 byte grid with 100 samples per cell.
func DefaultConfig(v block.Variant) Config {
	return Config{
		Variant:        v,
		KeySizes:       []int{8, 16, 24},
		PlaintextSizes: []int{50, 100, 150, 200, 250},
		Samples:        100,
		Seed:           1,
	}
}

func (c Config) validate() error {
	if len(c.KeySizes) == 0 || len(c.PlaintextSizes) == 0 {
		return ErrEmptyGrid
	}
	if c.Samples <= 0 {
		return ErrSamples
	}
	for _, k := range c.KeySizes {
		if !block.ValidKeySize(k) {
			return block.KeySizeError(k)
		}
	}
	for _, n := range c.PlaintextSizes {
		if n < 0 {
			return fmt.Errorf("bench: negative plaintext size %d", n)
		}
	}
	return nil
}

// Result is one grid cell.
type Result struct {
	Variant      string        `json:"variant" yaml:"variant"`
	KeyBits      int           `json:"key_bits" yaml:"key_bits"`
	PlaintextLen int           `json:"plaintext_len" yaml:"plaintext_len"`
	Samples      int           `json:"samples" yaml:"samples"`
	AvgEncode    time.Duration `json:"avg_encode_ns" yaml:"avg_encode_ns"`
	AvgDecode    time.Duration `json:"avg_decode_ns" yaml:"avg_decode_ns"`
}

// EncodeMillis is the mean encode latency in milliseconds.
func (r Result) EncodeMillis() float64 { return float64(r.AvgEncode) / float64(time.Millisecond) }

// DecodeMillis is the mean decode latency in milliseconds.
func (r Result) DecodeMillis() float64 { return float64(r.AvgDecode) / float64(time.Millisecond) }

// newSession builds the session for one cell.
var newSession = session.New

// Run walks the grid sequentially. Cancellation is checked between cells.
func Run(ctx context.Context, cfg Config, logger zerolog.Logger) ([]Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	src := newTextSource(cfg.Seed)
	results := make([]Result, 0, len(cfg.KeySizes)*len(cfg.PlaintextSizes))

	for _, keySize := range cfg.KeySizes {
		for _, n := range cfg.PlaintextSizes {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			// Every cell gets its own key and IV.
			sess, err := newSession(cfg.Variant, session.WithKeySize(keySize))
			if err != nil {
				return results, err
			}
			r, err := runCell(sess, src, n, cfg.Samples)
			if err != nil {
				return results, err
			}
			logger.Debug().
				Str("variant", r.Variant).
				Int("key_bits", r.KeyBits).
				Int("plaintext_len", n).
				Dur("avg_encode", r.AvgEncode).
				Dur("avg_decode", r.AvgDecode).
				Msg("cell complete")
			results = append(results, r)
		}
	}
	return results, nil
}

func runCell(sess *session.Session, src *textSource, n, samples int) (Result, error) {
	keyBits := sess.KeySize() * 8
	var totalEnc, totalDec time.Duration
	for i := 0; i < samples; i++ {
		msg := src.next(n)

		start := time.Now()
		enc := sess.Encode(msg)
		totalEnc += time.Since(start)

		start = time.Now()
		dec, err := sess.Decode(enc)
		totalDec += time.Since(start)

		if err != nil || dec != msg {
			return Result{}, &RoundTripError{
				Variant:   sess.Variant(),
				KeyBits:   keyBits,
				Length:    n,
				Plaintext: msg,
				Got:       dec,
				Err:       err,
			}
		}
	}
	return Result{
		Variant:      sess.Variant().String(),
		KeyBits:      keyBits,
		PlaintextLen: n,
		Samples:      samples,
		AvgEncode:    totalEnc / time.Duration(samples),
		AvgDecode:    totalDec / time.Duration(samples),
	}, nil
}
