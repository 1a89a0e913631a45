package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch re-reads the config file whenever it changes and applies the new log level.
// onChange, if set, receives each configuration that validates; invalid edits are
// logged and ignored. Cipher settings are never swapped on a running process.
func (c *Config) Watch(logger zerolog.Logger, onChange func(*Config)) error {
	if c.File() == "" {
		return ErrNoConfigFile
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		c.reload(e, logger, onChange)
	})
	c.v.WatchConfig()
	logger.Debug().Str("file", c.File()).Msg("watching config")
	return nil
}

func (c *Config) reload(e fsnotify.Event, logger zerolog.Logger, onChange func(*Config)) {
	log := logger.With().Str("file", e.Name).Str("op", e.Op.String()).Logger()
	next, err := decode(c.v)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring invalid config change")
		return
	}
	next.v = c.v

	level, _ := parseLevel(next.Log.Level)
	if level != zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(level)
		log.Info().Stringer("level", level).Msg("log level changed")
	}
	if onChange != nil {
		onChange(next)
	}
}
