// Package config loads the venuebed command configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andreiashu/venuebed"
)

// Config holds the command's settings. Zero values take the engine defaults.
type Config struct {
	Env      string         `yaml:"env"`
	Logging  LoggingConfig  `yaml:"logging"`
	Engine   EngineConfig   `yaml:"engine"`
	Viewport ViewportConfig `yaml:"viewport"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// EngineConfig overrides the engine thresholds.
type EngineConfig struct {
	DuplicateDistanceMeters float64  `yaml:"duplicate_distance_meters"`
	LegacyConflictMeters    float64  `yaml:"legacy_conflict_meters"`
	DedupBucketDegrees      float64  `yaml:"dedup_bucket_degrees"`
	LegacySource            string   `yaml:"legacy_source"`
	TopN                    int      `yaml:"top_n"`
	FallbackCap             int      `yaml:"fallback_cap"`
	TablesPath              string   `yaml:"tables_path"`
	Blocklist               []string `yaml:"blocklist"`
}

// ViewportConfig overrides the slice cache thresholds.
type ViewportConfig struct {
	CellSpanDegrees float64 `yaml:"cell_span_degrees"`
	IndexThreshold  int     `yaml:"index_threshold"`
	PaddingFactor   float64 `yaml:"padding_factor"`
	MaxResults      int     `yaml:"max_results"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// Load reads a YAML configuration file, expanding ${VAR} and
// ${VAR:-default} references from the environment.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills empty fields.
func (c *Config) ApplyDefaults() {
	def := venuebed.DefaultConfig()
	if c.Env == "" {
		c.Env = "local"
	}
	if c.Engine.DuplicateDistanceMeters <= 0 {
		c.Engine.DuplicateDistanceMeters = def.DuplicateDistanceMeters
	}
	if c.Engine.LegacyConflictMeters <= 0 {
		c.Engine.LegacyConflictMeters = def.LegacyConflictMeters
	}
	if c.Engine.DedupBucketDegrees <= 0 {
		c.Engine.DedupBucketDegrees = def.DedupBucketDegrees
	}
	if c.Engine.LegacySource == "" {
		c.Engine.LegacySource = def.LegacySource
	}
	if c.Engine.TopN <= 0 {
		c.Engine.TopN = def.TopN
	}
	if c.Engine.FallbackCap <= 0 {
		c.Engine.FallbackCap = def.FallbackCap
	}

	vdef := venuebed.DefaultViewportConfig()
	if c.Viewport.CellSpanDegrees <= 0 {
		c.Viewport.CellSpanDegrees = vdef.CellSpanDegrees
	}
	if c.Viewport.IndexThreshold <= 0 {
		c.Viewport.IndexThreshold = vdef.IndexThreshold
	}
	if c.Viewport.PaddingFactor <= 0 {
		c.Viewport.PaddingFactor = vdef.PaddingFactor
	}
	if c.Viewport.MaxResults <= 0 {
		c.Viewport.MaxResults = vdef.MaxResults
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("env must be local, dev or prod, got %q", c.Env)
	}
	if c.Viewport.PaddingFactor < 1 {
		return fmt.Errorf("viewport.padding_factor must be at least 1, got %v", c.Viewport.PaddingFactor)
	}
	return c.engineConfig().Validate()
}

func (c *Config) engineConfig() venuebed.Config {
	ec := venuebed.DefaultConfig()
	ec.DuplicateDistanceMeters = c.Engine.DuplicateDistanceMeters
	ec.LegacyConflictMeters = c.Engine.LegacyConflictMeters
	ec.DedupBucketDegrees = c.Engine.DedupBucketDegrees
	ec.LegacySource = c.Engine.LegacySource
	ec.TopN = c.Engine.TopN
	ec.FallbackCap = c.Engine.FallbackCap
	return ec
}

// EngineOptions converts the engine section into venuebed options. Tables
// are read from TablesPath when set.
func (c *Config) EngineOptions() ([]venuebed.Option, error) {
	opts := []venuebed.Option{
		venuebed.WithDuplicateDistance(c.Engine.DuplicateDistanceMeters),
		venuebed.WithLegacyConflictDistance(c.Engine.LegacyConflictMeters),
		venuebed.WithDedupBucket(c.Engine.DedupBucketDegrees),
		venuebed.WithLegacySource(c.Engine.LegacySource),
		venuebed.WithTopN(c.Engine.TopN),
		venuebed.WithFallbackCap(c.Engine.FallbackCap),
	}
	if c.Engine.TablesPath != "" {
		f, err := os.Open(filepath.Clean(c.Engine.TablesPath))
		if err != nil {
			return nil, fmt.Errorf("opening tables: %w", err)
		}
		defer f.Close()
		t, err := venuebed.LoadTables(f)
		if err != nil {
			return nil, err
		}
		opts = append(opts, venuebed.WithTables(t))
	}
	return opts, nil
}

// SliceConfig converts the viewport section.
func (c *Config) SliceConfig() venuebed.ViewportConfig {
	vc := venuebed.DefaultViewportConfig()
	vc.CellSpanDegrees = c.Viewport.CellSpanDegrees
	vc.IndexThreshold = c.Viewport.IndexThreshold
	vc.PaddingFactor = c.Viewport.PaddingFactor
	vc.MaxResults = c.Viewport.MaxResults
	return vc
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
}
