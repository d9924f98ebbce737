package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dshills/luaseri/internal/buffer"
	"github.com/dshills/luaseri/internal/config/loader"
	"github.com/dshills/luaseri/internal/encoder"
	"github.com/dshills/luaseri/internal/logging"
)

// MaxIncludeDepth bounds nested @include directives in config files.
const MaxIncludeDepth = 8

// MaxChunkSize is the largest accepted encoder.chunkSize.
const MaxChunkSize = 1 << 20

// Input formats.
const (
	FormatAuto = "auto"
	FormatLua  = "lua"
	FormatJSON = "json"
)

// Config is the decoded, validated configuration.
type Config struct {
	Encoder EncoderConfig `mapstructure:"encoder"`
	Input   InputConfig   `mapstructure:"input"`
	Log     LogConfig     `mapstructure:"log"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// EncoderConfig controls serialization.
type EncoderConfig struct {
	// Buffer names the buffer strategy ("chunked" or "fragments").
	Buffer string `mapstructure:"buffer"`

	// ChunkSize is the block size of the chunked buffer.
	ChunkSize int `mapstructure:"chunkSize"`

	// MaxDepth limits composite nesting; 0 disables the limit.
	MaxDepth int `mapstructure:"maxDepth"`

	// IntegerKeys rejects fractional numeric keys.
	IntegerKeys bool `mapstructure:"integerKeys"`

	// Positional writes 1..n runs without explicit keys.
	Positional bool `mapstructure:"positional"`
}

// InputConfig controls how input files are read.
type InputConfig struct {
	// Format is "auto", "lua" or "json". Auto picks by file extension.
	Format string `mapstructure:"format"`

	// Timeout bounds evaluation of a single Lua input.
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// Debounce coalesces bursts of file events.
	Debounce time.Duration `mapstructure:"debounce"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Encoder: EncoderConfig{
			Buffer:    string(buffer.StrategyChunked),
			ChunkSize: buffer.DefaultChunkSize,
			MaxDepth:  encoder.DefaultMaxDepth,
		},
		Input: InputConfig{
			Format:  FormatAuto,
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
	}
}

// defaultMap is Default as a layer for merging.
func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"encoder": map[string]any{
			"buffer":      d.Encoder.Buffer,
			"chunkSize":   d.Encoder.ChunkSize,
			"maxDepth":    d.Encoder.MaxDepth,
			"integerKeys": d.Encoder.IntegerKeys,
			"positional":  d.Encoder.Positional,
		},
		"input": map[string]any{
			"format":  d.Input.Format,
			"timeout": d.Input.Timeout,
		},
		"log": map[string]any{
			"level": d.Log.Level,
		},
		"watch": map[string]any{
			"debounce": d.Watch.Debounce,
		},
	}
}

// DefaultPath returns the user config file location, or "" if the user
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "luaseri", "config.toml")
}

// Load builds a Config from defaults, the TOML file at path, LUASERI_*
// environment variables and overrides, in increasing priority.
//
// An empty path reads DefaultPath if it exists. A non-empty path must exist.
// Overrides are keyed by dotted setting path, for example "encoder.maxDepth".
func Load(fsys afero.Fs, path string, overrides map[string]any) (*Config, error) {
	if fsys == nil {
		fsys = loader.DefaultFS()
	}

	merged := defaultMap()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		fileCfg, err := loader.LoadTOML(fsys, path, MaxIncludeDepth)
		if err != nil {
			return nil, err
		}
		if fileCfg == nil && explicit {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		merged = loader.DeepMerge(merged, fileCfg)
	}

	envCfg, err := loader.NewEnvLoader(loader.DefaultEnvPrefix).Load()
	if err != nil {
		return nil, err
	}
	merged = loader.DeepMerge(merged, envCfg)

	flagCfg := make(map[string]any, len(overrides))
	for p, v := range overrides {
		loader.SetByPath(flagCfg, p, v)
	}
	merged = loader.DeepMerge(merged, flagCfg)

	cfg, err := decode(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode converts a merged tree into a Config.
func decode(m map[string]any) (*Config, error) {
	cfg := &Config{}
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	}
	if len(md.Unused) > 0 {
		slices.Sort(md.Unused)
		return nil, &ValidationError{
			Path:    md.Unused[0],
			Message: "unknown setting",
			Value:   strings.Join(md.Unused, ", "),
			Code:    ErrCodeUnknownSetting,
		}
	}
	return cfg, nil
}

// Validate checks every setting and returns the first failure.
func (c *Config) Validate() error {
	if _, err := buffer.ParseStrategy(c.Encoder.Buffer); err != nil {
		return &ValidationError{
			Path:    "encoder.buffer",
			Message: "must be chunked or fragments",
			Value:   c.Encoder.Buffer,
			Code:    ErrCodeInvalidEnum,
		}
	}
	if c.Encoder.ChunkSize < 1 || c.Encoder.ChunkSize > MaxChunkSize {
		return &ValidationError{
			Path:    "encoder.chunkSize",
			Message: fmt.Sprintf("must be between 1 and %d", MaxChunkSize),
			Value:   c.Encoder.ChunkSize,
			Code:    ErrCodeOutOfRange,
		}
	}
	if c.Encoder.MaxDepth < 0 {
		return &ValidationError{
			Path:    "encoder.maxDepth",
			Message: "must not be negative",
			Value:   c.Encoder.MaxDepth,
			Code:    ErrCodeOutOfRange,
		}
	}
	switch strings.ToLower(c.Input.Format) {
	case "", FormatAuto, FormatLua, FormatJSON:
	default:
		return &ValidationError{
			Path:    "input.format",
			Message: "must be auto, lua or json",
			Value:   c.Input.Format,
			Code:    ErrCodeInvalidEnum,
		}
	}
	if c.Input.Timeout <= 0 {
		return &ValidationError{
			Path:    "input.timeout",
			Message: "must be positive",
			Value:   c.Input.Timeout,
			Code:    ErrCodeOutOfRange,
		}
	}
	if !logging.ValidLevel(c.Log.Level) {
		return &ValidationError{
			Path:    "log.level",
			Message: "must be debug, info, warn or error",
			Value:   c.Log.Level,
			Code:    ErrCodeInvalidEnum,
		}
	}
	if c.Watch.Debounce < 0 {
		return &ValidationError{
			Path:    "watch.debounce",
			Message: "must not be negative",
			Value:   c.Watch.Debounce,
			Code:    ErrCodeOutOfRange,
		}
	}
	return nil
}

// EncoderOptions translates the encoder section into encoder options.
func (c *Config) EncoderOptions(logger *zap.Logger) []encoder.Option {
	strategy, err := buffer.ParseStrategy(c.Encoder.Buffer)
	if err != nil {
		strategy = buffer.StrategyChunked
	}
	opts := []encoder.Option{
		encoder.WithStrategy(strategy),
		encoder.WithChunkSize(c.Encoder.ChunkSize),
		encoder.WithMaxDepth(c.Encoder.MaxDepth),
		encoder.WithLogger(logger),
	}
	if c.Encoder.IntegerKeys {
		opts = append(opts, encoder.WithIntegerKeys())
	}
	if c.Encoder.Positional {
		opts = append(opts, encoder.WithPositional())
	}
	return opts
}

// Logging returns the logger configuration for this Config.
func (c *Config) Logging() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLogLevel(c.Log.Level)
	return lc
}

// IsNotFound reports whether err means an explicit config file is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}
