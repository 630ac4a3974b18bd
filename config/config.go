// Package config loads dsrt settings from a TOML file.
//
//	base_location = "https://cdn.example.com/dsrt/v1/"
//	log_level = "info"
//
//	[engine]
//	frame_rate = 60
//
// Environment variables DSRT_BASE_LOCATION and DSRT_LOG_LEVEL override the
// file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dsrt-dev/dsrt"
	"github.com/dsrt-dev/dsrt/engine"
	"github.com/dsrt-dev/dsrt/loader"
)

// Environment variables that override values read from a file.
const (
	EnvBaseLocation = "DSRT_BASE_LOCATION"
	EnvLogLevel     = "DSRT_LOG_LEVEL"
)

// Config holds the settings used to initialise dsrt and run its engine.
type Config struct {
	BaseLocation string       `toml:"base_location"`
	GlueName     string       `toml:"glue_name"`
	ModuleName   string       `toml:"module_name"`
	LogLevel     string       `toml:"log_level"`
	Engine       EngineConfig `toml:"engine"`
}

// EngineConfig is the [engine] table.
type EngineConfig struct {
	FrameRate int `toml:"frame_rate"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		BaseLocation: dsrt.DefaultBaseLocation,
		GlueName:     loader.DefaultGlueName,
		ModuleName:   loader.DefaultModuleName,
		LogLevel:     "warn",
		Engine:       EngineConfig{FrameRate: engine.DefaultFrameRate},
	}
}

// Load reads path, fills unset fields with defaults and applies environment
// overrides. An empty path yields Default with overrides applied.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		applyEnvOverrides(&cfg)
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text. Unknown keys are rejected.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvBaseLocation)); v != "" {
		cfg.BaseLocation = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseLocation) == "" {
		return fmt.Errorf("base_location is required")
	}
	if strings.TrimSpace(c.ModuleName) == "" {
		return fmt.Errorf("module_name is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Engine.FrameRate < 0 {
		return fmt.Errorf("engine.frame_rate must not be negative, got %d", c.Engine.FrameRate)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return l, nil
}

// Level returns the configured log level, or warn if it cannot be parsed.
func (c Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return l
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// InitOptions converts the configuration to dsrt.Init options.
func (c Config) InitOptions() []dsrt.InitOption {
	return []dsrt.InitOption{
		dsrt.WithBaseLocation(c.BaseLocation),
		dsrt.WithLoaderOptions(
			loader.WithGlueName(c.GlueName),
			loader.WithModuleName(c.ModuleName),
		),
	}
}

// EngineOptions converts the configuration to engine options.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{engine.WithFrameRate(c.Engine.FrameRate)}
}
