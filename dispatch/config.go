package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the dispatcher thresholds.
type Config struct {
	// MinDataSize is the estimated input size in bytes at which the
	// accelerated backend is preferred.
	MinDataSize int `json:"minDataSize" yaml:"minDataSize" toml:"min_data_size"`
	// ComplexityThreshold is the descriptor node count at which the
	// accelerated backend is preferred.
	ComplexityThreshold int `json:"complexityThreshold" yaml:"complexityThreshold" toml:"complexity_threshold"`
	// BatchSizeThreshold is the item count at which a batch runs accelerated.
	BatchSizeThreshold int  `json:"batchSizeThreshold" yaml:"batchSizeThreshold" toml:"batch_size_threshold"`
	PreferAccelerated  bool `json:"preferAccelerated" yaml:"preferAccelerated" toml:"prefer_accelerated"`
	AutoFallback       bool `json:"autoFallback" yaml:"autoFallback" toml:"auto_fallback"`
	// InitTimeout bounds the asynchronous initialization of the accelerated
	// backend.
	InitTimeout Duration `json:"initTimeout" yaml:"initTimeout" toml:"init_timeout"`

	Optimizer OptimizerConfig `json:"optimizer" yaml:"optimizer" toml:"optimizer"`
	Batch     BatchConfig     `json:"batch" yaml:"batch" toml:"batch"`
}

// OptimizerConfig configures the default RollingOptimizer.
type OptimizerConfig struct {
	Enabled    bool `json:"enabled" yaml:"enabled" toml:"enabled"`
	Window     int  `json:"window" yaml:"window" toml:"window"`
	MinSamples int  `json:"minSamples" yaml:"minSamples" toml:"min_samples"`
}

// BatchConfig is forwarded to the batch package.
type BatchConfig struct {
	ChunkSize int `json:"chunkSize" yaml:"chunkSize" toml:"chunk_size"`
	Workers   int `json:"workers" yaml:"workers" toml:"workers"`
}

// DefaultConfig returns the defaults used by New.
func DefaultConfig() Config {
	return Config{
		MinDataSize:         1024,
		ComplexityThreshold: 10,
		BatchSizeThreshold:  100,
		AutoFallback:        true,
		InitTimeout:         Duration(5 * time.Second),
		Optimizer:           OptimizerConfig{Enabled: true, Window: 100, MinSamples: 10},
		Batch:               BatchConfig{ChunkSize: 1000, Workers: 1},
	}
}

// Validate reports nonsensical settings.
func (c Config) Validate() error {
	switch {
	case c.MinDataSize < 0:
		return fmt.Errorf("dispatch: minDataSize must be >= 0, got %d", c.MinDataSize)
	case c.ComplexityThreshold < 0:
		return fmt.Errorf("dispatch: complexityThreshold must be >= 0, got %d", c.ComplexityThreshold)
	case c.BatchSizeThreshold < 0:
		return fmt.Errorf("dispatch: batchSizeThreshold must be >= 0, got %d", c.BatchSizeThreshold)
	case c.InitTimeout < 0:
		return fmt.Errorf("dispatch: initTimeout must be >= 0, got %s", c.InitTimeout)
	case c.Optimizer.Enabled && (c.Optimizer.Window < 1 || c.Optimizer.MinSamples < 1):
		return fmt.Errorf("dispatch: optimizer window and minSamples must be positive")
	case c.Optimizer.MinSamples > c.Optimizer.Window && c.Optimizer.Enabled:
		return fmt.Errorf("dispatch: optimizer minSamples (%d) exceeds window (%d)", c.Optimizer.MinSamples, c.Optimizer.Window)
	}
	return nil
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file over
// DefaultConfig. Fields absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("dispatch: read config: %w", err)
	}
	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return Config{}, fmt.Errorf("dispatch: unsupported config extension %q", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("dispatch: decode %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Duration is a time.Duration that reads "250ms"-style strings from YAML,
// TOML and JSON.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
