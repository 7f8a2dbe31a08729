package config

import (
	"fmt"
	"strconv"

	"github.com/peekproxy/peek/pkg/format"
)

// Config represents the persistent peek configuration stored as config.toml
// in the .peek/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Proxy   ProxyConfig  `toml:"proxy"`
	Format  FormatConfig `toml:"format"`
	Log     LogConfig    `toml:"log"`
}

// ProxyConfig holds proxy transport settings.
type ProxyConfig struct {
	Listen   string `toml:"listen,omitempty"`
	Upstream string `toml:"upstream,omitempty"`
}

// FormatConfig holds rendering settings for the exchange formatter.
// These are hot-reloadable: see Configer.Watch.
type FormatConfig struct {
	Raw   bool   `toml:"raw,omitempty"`
	Tools string `toml:"tools,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Debug bool `toml:"debug,omitempty"`
}

// Options converts the format section into the formatter's options,
// validating the tools mode.
func (c *Config) Options() (format.Options, error) {
	tools, err := format.ParseToolsMode(c.Format.Tools)
	if err != nil {
		return format.Options{}, err
	}
	return format.Options{Raw: c.Format.Raw, Tools: tools}, nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"proxy.listen": {
		get: func(c *Config) string { return c.Proxy.Listen },
		set: func(c *Config, v string) error { c.Proxy.Listen = v; return nil },
	},
	"proxy.upstream": {
		get: func(c *Config) string { return c.Proxy.Upstream },
		set: func(c *Config, v string) error { c.Proxy.Upstream = v; return nil },
	},
	"format.raw": {
		get: func(c *Config) string { return strconv.FormatBool(c.Format.Raw) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for format.raw: %w", err)
			}
			c.Format.Raw = b
			return nil
		},
	},
	"format.tools": {
		get: func(c *Config) string { return c.Format.Tools },
		set: func(c *Config, v string) error {
			if _, err := format.ParseToolsMode(v); err != nil {
				return err
			}
			c.Format.Tools = v
			return nil
		},
	},
	"log.debug": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.Debug) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for log.debug: %w", err)
			}
			c.Log.Debug = b
			return nil
		},
	},
}
