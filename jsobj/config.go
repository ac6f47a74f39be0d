package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/dop251/jsobj"
)

// Config is the jsobj.toml file.
type Config struct {
	Runtime  RuntimeConfig  `toml:"runtime"`
	Log      LogConfig      `toml:"log"`
	Scenario ScenarioConfig `toml:"scenario"`
}

type RuntimeConfig struct {
	MegamorphicThreshold int `toml:"megamorphic-threshold"`
	DictionaryThreshold  int `toml:"dictionary-threshold"`
	MaxPrototypeDepth    int `toml:"max-prototype-depth"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

type ScenarioConfig struct {
	Dirs       []string `toml:"dirs"`
	Crosscheck bool     `toml:"crosscheck"`
}

func defaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			MegamorphicThreshold: jsobj.DefaultMegamorphicThreshold,
			DictionaryThreshold:  jsobj.DefaultDictionaryThreshold,
			MaxPrototypeDepth:    jsobj.DefaultMaxPrototypeDepth,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Scenario: ScenarioConfig{
			Dirs: []string{"scenarios"},
		},
	}
}

// loadConfig reads a config file. Settings missing from the file keep their
// default values.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c := defaultConfig()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown setting %s", path, undecoded[0])
	}
	if len(c.Scenario.Dirs) == 0 {
		c.Scenario.Dirs = []string{"scenarios"}
	}
	return c, nil
}

func (c *Config) options() []jsobj.Option {
	return []jsobj.Option{
		jsobj.WithMegamorphicThreshold(c.Runtime.MegamorphicThreshold),
		jsobj.WithDictionaryThreshold(c.Runtime.DictionaryThreshold),
		jsobj.WithMaxPrototypeDepth(c.Runtime.MaxPrototypeDepth),
	}
}

func (c *Config) logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.Logger{}, err
	}
	switch c.Log.Format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	case "json":
	default:
		return zerolog.Logger{}, fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
