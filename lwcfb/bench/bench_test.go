package bench

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/TheusHen/lwcfb/lwcfb/block"
	"github.com/TheusHen/lwcfb/lwcfb/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func smallConfig(v block.Variant) Config {
	return Config{
		Variant:        v,
		KeySizes:       []int{8, 16, 24},
		PlaintextSizes: []int{0, 50, 250},
		Samples:        5,
		Seed:           7,
	}
}

func TestRunGrid(t *testing.T) {
	for _, v := range []block.Variant{block.Reference, block.Placeholder, block.Feistel} {
		results, err := Run(context.Background(), smallConfig(v), zerolog.Nop())
		require.NoError(t, err)
		require.Len(t, results, 9)

		i := 0
		for _, keyBits := range []int{64, 128, 192} {
			for _, n := range []int{0, 50, 250} {
				r := results[i]
				assert.Equal(t, v.String(), r.Variant)
				assert.Equal(t, keyBits, r.KeyBits)
				assert.Equal(t, n, r.PlaintextLen)
				assert.Equal(t, 5, r.Samples)
				assert.GreaterOrEqual(t, r.AvgEncode, time.Duration(0))
				i++
			}
		}
	}
}

func TestRunFreshKeyPerCell(t *testing.T) {
	var created []*session.Session
	orig := newSession
	newSession = func(v block.Variant, opts ...session.Option) (*session.Session, error) {
		s, err := orig(v, opts...)
		if err == nil {
			created = append(created, s)
		}
		return s, err
	}
	t.Cleanup(func() { newSession = orig })

	cfg := smallConfig(block.Feistel)
	results, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, created, len(results))
	require.Len(t, created, len(cfg.KeySizes)*len(cfg.PlaintextSizes))

	keys := make(map[string]struct{}, len(created))
	for i, s := range created {
		assert.Equal(t, results[i].KeyBits, s.KeySize()*8)
		keys[hex.EncodeToString(s.Key())+hex.EncodeToString(s.IV())] = struct{}{}
	}
	assert.Len(t, keys, len(created), "cells must not share key material")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(block.Feistel)
	assert.Equal(t, []int{8, 16, 24}, cfg.KeySizes)
	assert.Equal(t, []int{50, 100, 150, 200, 250}, cfg.PlaintextSizes)
	assert.Equal(t, 100, cfg.Samples)
	require.NoError(t, cfg.validate())
}

func TestRunValidation(t *testing.T) {
	ctx := context.Background()

	cfg := smallConfig(block.Feistel)
	cfg.KeySizes = nil
	_, err := Run(ctx, cfg, zerolog.Nop())
	require.ErrorIs(t, err, ErrEmptyGrid)

	cfg = smallConfig(block.Feistel)
	cfg.Samples = 0
	_, err = Run(ctx, cfg, zerolog.Nop())
	require.ErrorIs(t, err, ErrSamples)

	cfg = smallConfig(block.Feistel)
	cfg.KeySizes = []int{32}
	_, err = Run(ctx, cfg, zerolog.Nop())
	var kse block.KeySizeError
	require.ErrorAs(t, err, &kse)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := Run(ctx, smallConfig(block.Feistel), zerolog.Nop())
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, results)
}

func TestEncodeLatencyGrowsWithLength(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	cfg := Config{
		Variant:        block.Feistel,
		KeySizes:       []int{16},
		PlaintextSizes: []int{50, 250},
		Samples:        400,
		Seed:           3,
	}
	results, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[1].AvgEncode, results[0].AvgEncode,
		"len 250 encode %v faster than len 50 encode %v", results[1].AvgEncode, results[0].AvgEncode)
}

func TestTextSource(t *testing.T) {
	a := newTextSource(42)
	b := newTextSource(42)
	for _, n := range []int{0, 1, 50, 250} {
		s := a.next(n)
		require.Len(t, s, n)
		require.Equal(t, s, b.next(n))
		for _, c := range s {
			require.True(t, strings.ContainsRune(Alphabet, c), "unexpected rune %q", c)
		}
	}
}

func TestRoundTripErrorMessage(t *testing.T) {
	base := errors.New("boom")
	e := &RoundTripError{Variant: block.Feistel, KeyBits: 128, Length: 4, Plaintext: "ABCD", Err: base}
	assert.ErrorIs(t, e, base)
	assert.Contains(t, e.Error(), "feistel/128-bit")

	m := &RoundTripError{Variant: block.Placeholder, KeyBits: 64, Length: 2, Plaintext: "AB", Got: "AC"}
	assert.Contains(t, m.Error(), "mismatch")
}

func sampleResults() []Result {
	return []Result{
		{Variant: "feistel", KeyBits: 64, PlaintextLen: 50, Samples: 100, AvgEncode: 1500 * time.Microsecond, AvgDecode: 250 * time.Microsecond},
		{Variant: "feistel", KeyBits: 192, PlaintextLen: 250, Samples: 100, AvgEncode: 2 * time.Millisecond, AvgDecode: 3 * time.Millisecond},
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleResults()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Key Size")
	assert.Contains(t, lines[0], "Dec Delay (ms)")
	assert.Equal(t, []string{"64", "50", "1.500", "0.250"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"192", "250", "2.000", "3.000"}, strings.Fields(lines[2]))
}

func TestWriteReportFormats(t *testing.T) {
	results := sampleResults()

	var js bytes.Buffer
	require.NoError(t, WriteReport(&js, "json", results))
	var fromJSON []Result
	require.NoError(t, json.Unmarshal(js.Bytes(), &fromJSON))
	assert.Equal(t, results, fromJSON)

	var ym bytes.Buffer
	require.NoError(t, WriteReport(&ym, "YAML", results))
	assert.Contains(t, ym.String(), "key_bits: 192")
	var fromYAML []map[string]any
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 2)

	var tbl bytes.Buffer
	require.NoError(t, WriteReport(&tbl, "", results))
	assert.Contains(t, tbl.String(), "Plaintext Size")

	err := WriteReport(&tbl, "csv", results)
	require.ErrorIs(t, err, ErrUnknownFormat)
}
