package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("invalid renderer config")

// BloomConfig controls the clamp, blur and add passes.
type BloomConfig struct {
	Enabled bool `toml:"enabled"`
	// Min and Max bound the luminance kept by the clamp pass.
	Min        float32 `toml:"min"`
	Max        float32 `toml:"max"`
	Iterations int     `toml:"iterations"`
}

// Config is the renderer configuration, usually read from a TOML file.
type Config struct {
	Width           int         `toml:"width"`
	Height          int         `toml:"height"`
	EnvironmentSize int         `toml:"environment_size"`
	ShadowSize      int         `toml:"shadow_size"`
	Skybox          bool        `toml:"skybox"`
	Exposure        float32     `toml:"exposure"`
	Gamma           float32     `toml:"gamma"`
	Bloom           BloomConfig `toml:"bloom"`
	LogLevel        string      `toml:"log_level"`
	Scene           string      `toml:"scene"`
	HDR             string      `toml:"hdr"`
}

func DefaultConfig() Config {
	return Config{
		Width:           1280,
		Height:          720,
		EnvironmentSize: DefaultEnvironmentSize,
		ShadowSize:      1024,
		Skybox:          true,
		Exposure:        0,
		Gamma:           2.2,
		Bloom: BloomConfig{
			Enabled:    true,
			Min:        1,
			Max:        100,
			Iterations: 5,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a TOML file over DefaultConfig. Keys missing from the
// file keep their defaults; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as TOML.
func SaveConfig(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.Width < 1 || c.Height < 1:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.EnvironmentSize < 1:
		return fmt.Errorf("%w: environment_size %d", ErrInvalidConfig, c.EnvironmentSize)
	case c.ShadowSize < 1:
		return fmt.Errorf("%w: shadow_size %d", ErrInvalidConfig, c.ShadowSize)
	case c.Gamma <= 0:
		return fmt.Errorf("%w: gamma %g", ErrInvalidConfig, c.Gamma)
	case c.Bloom.Enabled && c.Bloom.Iterations < 1:
		return fmt.Errorf("%w: bloom iterations %d", ErrInvalidConfig, c.Bloom.Iterations)
	case c.Bloom.Min > c.Bloom.Max:
		return fmt.Errorf("%w: bloom range [%g, %g]", ErrInvalidConfig, c.Bloom.Min, c.Bloom.Max)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Level parses LogLevel. An empty level means info.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}
