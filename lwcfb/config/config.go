// Package config loads lwcfb settings from defaults, an optional file, LWCFB_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/TheusHen/lwcfb/lwcfb/bench"
	"github.com/TheusHen/lwcfb/lwcfb/block"
	"github.com/TheusHen/lwcfb/lwcfb/crypto"
	"github.com/TheusHen/lwcfb/lwcfb/sensor"
	"github.com/TheusHen/lwcfb/lwcfb/session"
)

const EnvPrefix = "LWCFB"

var (
	ErrNoConfigFile = errors.New("config: no config file in use")
	ErrInvalid      = errors.New("config: invalid value")
)

type Config struct {
	Cipher CipherConfig `mapstructure:"cipher"`
	Relay  RelayConfig  `mapstructure:"relay"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Log    LogConfig    `mapstructure:"log"`
	Bench  BenchConfig  `mapstructure:"bench"`

	v *viper.Viper
}

// CipherConfig selects the variant and where key material comes from: hex Key and IV,
// else a shared Secret expanded with HKDF, else fresh random bytes.
type CipherConfig struct {
	Variant string `mapstructure:"variant"`
	KeySize int    `mapstructure:"key_size"`
	Key     string `mapstructure:"key"`
	IV      string `mapstructure:"iv"`
	Secret  string `mapstructure:"secret"`
	Salt    string `mapstructure:"salt"`
}

// Generated reports which parts of the key material Session draws at random.
// Other processes need those logged to decode.
func (c CipherConfig) Generated() (key, iv bool) {
	// Secret is only consulted when no hex Key is set.
	derived := c.Key == "" && c.Secret != ""
	return c.Key == "" && !derived, c.IV == "" && !derived
}

// RelayConfig points at a QUIC broker. An empty Addr means the in-process bus.
type RelayConfig struct {
	Addr     string `mapstructure:"addr"`
	Listen   string `mapstructure:"listen"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type BenchConfig struct {
	Samples        int    `mapstructure:"samples"`
	Seed           uint64 `mapstructure:"seed"`
	Format         string `mapstructure:"format"`
	KeySizes       []int  `mapstructure:"key_sizes"`
	PlaintextSizes []int  `mapstructure:"plaintext_sizes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cipher.variant", block.Feistel.String())
	v.SetDefault("cipher.key_size", 0)
	v.SetDefault("cipher.key", "")
	v.SetDefault("cipher.iv", "")
	v.SetDefault("cipher.secret", "")
	v.SetDefault("cipher.salt", "")
	v.SetDefault("relay.addr", "")
	v.SetDefault("relay.listen", "[::]:4242")
	v.SetDefault("relay.topic", sensor.DefaultTopic)
	v.SetDefault("relay.client_id", "")
	v.SetDefault("http.addr", ":5000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("bench.samples", 100)
	v.SetDefault("bench.seed", 1)
	v.SetDefault("bench.format", bench.FormatTable)
	v.SetDefault("bench.key_sizes", []int{8, 16, 24})
	v.SetDefault("bench.plaintext_sizes", []int{50, 100, 150, 200, 250})
}

// flagKeys maps the flags registered by RegisterFlags to their config keys.
var flagKeys = map[string]string{
	"variant":    "cipher.variant",
	"key-size":   "cipher.key_size",
	"key":        "cipher.key",
	"iv":         "cipher.iv",
	"secret":     "cipher.secret",
	"salt":       "cipher.salt",
	"relay":      "relay.addr",
	"listen":     "relay.listen",
	"topic":      "relay.topic",
	"client-id":  "relay.client_id",
	"http":       "http.addr",
	"log-level":  "log.level",
	"log-pretty": "log.pretty",
	"samples":    "bench.samples",
	"seed":       "bench.seed",
	"format":     "bench.format",
}

// RegisterFlags adds the standard flags to fs. Programs register only what they use
// by passing the flag names; with none, every flag is added.
func RegisterFlags(fs *pflag.FlagSet, names ...string) {
	want := func(n string) bool {
		if len(names) == 0 {
			return true
		}
		for _, x := range names {
			if x == n {
				return true
			}
		}
		return false
	}
	fs.StringP("config", "c", "", "config file (yaml, toml or json)")
	if want("variant") {
		fs.StringP("variant", "v", block.Feistel.String(), "cipher variant: 3des, placeholder or feistel")
	}
	if want("key-size") {
		fs.Int("key-size", 0, "key size in bytes (8, 16 or 24); 0 picks the variant default")
	}
	if want("key") {
		fs.String("key", "", "hex key shared with the other end")
	}
	if want("iv") {
		fs.String("iv", "", "hex 8-byte IV shared with the other end")
	}
	if want("secret") {
		fs.String("secret", "", "shared secret to derive key and IV from")
	}
	if want("salt") {
		fs.String("salt", "", "salt for secret derivation")
	}
	if want("relay") {
		fs.String("relay", "", "QUIC broker address; empty uses the in-process bus")
	}
	if want("listen") {
		fs.String("listen", "[::]:4242", "broker listen address")
	}
	if want("topic") {
		fs.String("topic", sensor.DefaultTopic, "relay topic")
	}
	if want("client-id") {
		fs.String("client-id", "", "relay client id")
	}
	if want("http") {
		fs.String("http", ":5000", "HTTP listen address")
	}
	if want("log-level") {
		fs.String("log-level", "info", "log level")
	}
	if want("log-pretty") {
		fs.Bool("log-pretty", true, "human-readable console logs")
	}
	if want("samples") {
		fs.Int("samples", 100, "samples per benchmark cell")
	}
	if want("seed") {
		fs.Uint64("seed", 1, "plaintext generator seed")
	}
	if want("format") {
		fs.String("format", bench.FormatTable, "report format: table, json or yaml")
	}
}

// Load resolves the configuration. path may be empty; flags may be nil. When path is
// empty and flags carries a "config" flag, its value is used.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(key, f)
		})
		if bindErr != nil {
			return nil, bindErr
		}
		if path == "" {
			if f := flags.Lookup("config"); f != nil {
				path = f.Value.String()
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.v = v
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// File reports the config file in use, if any.
func (c *Config) File() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Validate checks every field that can be checked without touching the network.
func (c *Config) Validate() error {
	v, err := block.ParseVariant(c.Cipher.Variant)
	if err != nil {
		return fmt.Errorf("%w: cipher.variant %q: %w", ErrInvalid, c.Cipher.Variant, err)
	}
	if c.Cipher.KeySize != 0 && !block.ValidKeySize(c.Cipher.KeySize) {
		return fmt.Errorf("%w: cipher.key_size: %w", ErrInvalid, block.KeySizeError(c.Cipher.KeySize))
	}
	if c.Cipher.Key != "" {
		key, err := hex.DecodeString(c.Cipher.Key)
		if err != nil {
			return fmt.Errorf("%w: cipher.key: %w", ErrInvalid, err)
		}
		if _, err := block.New(v, key); err != nil {
			return fmt.Errorf("%w: cipher.key: %w", ErrInvalid, err)
		}
	}
	if c.Cipher.IV != "" {
		iv, err := hex.DecodeString(c.Cipher.IV)
		if err != nil {
			return fmt.Errorf("%w: cipher.iv: %w", ErrInvalid, err)
		}
		if len(iv) != block.Size {
			return fmt.Errorf("%w: cipher.iv: %w", ErrInvalid, session.ErrInvalidIV)
		}
	}
	if c.Relay.Topic == "" {
		return fmt.Errorf("%w: relay.topic is empty", ErrInvalid)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Bench.Format) {
	case "", bench.FormatTable, bench.FormatJSON, bench.FormatYAML, "yml":
	default:
		return fmt.Errorf("%w: bench.format %q", ErrInvalid, c.Bench.Format)
	}
	if c.Bench.Samples <= 0 {
		return fmt.Errorf("%w: bench.samples must be positive", ErrInvalid)
	}
	return nil
}

func (c *Config) Variant() block.Variant {
	v, _ := block.ParseVariant(c.Cipher.Variant)
	return v
}

// Session builds the cipher session described by c.Cipher.
func (c *Config) Session() (*session.Session, error) {
	v, err := block.ParseVariant(c.Cipher.Variant)
	if err != nil {
		return nil, err
	}
	var opts []session.Option
	switch {
	case c.Cipher.Key != "":
		key, err := hex.DecodeString(c.Cipher.Key)
		if err != nil {
			return nil, fmt.Errorf("config: cipher.key: %w", err)
		}
		opts = append(opts, session.WithKey(key))
	case c.Cipher.Secret != "":
		keySize := c.Cipher.KeySize
		if keySize == 0 {
			keySize = v.DefaultKeySize()
		}
		key, iv, err := crypto.DeriveKeyIV([]byte(c.Cipher.Secret), []byte(c.Cipher.Salt), keySize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithKey(key))
		if c.Cipher.IV == "" {
			opts = append(opts, session.WithIV(iv))
		}
	case c.Cipher.KeySize != 0:
		opts = append(opts, session.WithKeySize(c.Cipher.KeySize))
	}
	if c.Cipher.IV != "" {
		iv, err := hex.DecodeString(c.Cipher.IV)
		if err != nil {
			return nil, fmt.Errorf("config: cipher.iv: %w", err)
		}
		opts = append(opts, session.WithIV(iv))
	}
	return session.New(v, opts...)
}

// BenchConfig returns the harness grid for the configured variant.
func (c *Config) BenchConfig() bench.Config {
	bc := bench.DefaultConfig(c.Variant())
	bc.Samples = c.Bench.Samples
	bc.Seed = c.Bench.Seed
	if len(c.Bench.KeySizes) > 0 {
		bc.KeySizes = c.Bench.KeySizes
	}
	if len(c.Bench.PlaintextSizes) > 0 {
		bc.PlaintextSizes = c.Bench.PlaintextSizes
	}
	return bc
}
