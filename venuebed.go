// Package venuebed resolves overlapping venue records from several data
// sources into one clean pool and derives the ranked views built on it:
// per-region "top rated" lists and viewport-bounded map slices.
//
// The engine's operations are pure: inputs are snapshots, outputs are
// freshly allocated slices, and no call mutates a Venue. An Engine is safe
// for concurrent use.
//
//	e, err := venuebed.NewEngine(venuebed.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pool := e.ApplyOverrides(venuebed.NewVenues(records), nil)
//	lists := e.ComputeRegionalTopLists(pool, e.Tables().Curated, pool)
package venuebed

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the engine's tuned thresholds. The values are empirical;
// DefaultConfig carries the ones the venue views were tuned against.
type Config struct {
	DuplicateDistanceMeters float64 // proximity for two compatible names to be one venue
	LegacyConflictMeters    float64 // proximity for a legacy record to yield to a trusted one
	DedupBucketDegrees      float64 // grid cell for the duplicate lookup
	LegacySource            string  // source tag whose records yield to everything else
	LegacyGeohashPrecision  int     // geohash length for the legacy conflict lookup
	TopN                    int     // length of each region's list
	FallbackCap             int     // how much of a region's fallback slice is considered
	MaxSuggestionDistance   int     // edit distance cap for curated-name suggestions

	Tables *Tables
	Logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Config)

// WithDuplicateDistance sets the duplicate proximity threshold in meters.
func WithDuplicateDistance(m float64) Option {
	return func(c *Config) { c.DuplicateDistanceMeters = m }
}

// WithLegacyConflictDistance sets the legacy conflict threshold in meters.
func WithLegacyConflictDistance(m float64) Option {
	return func(c *Config) { c.LegacyConflictMeters = m }
}

// WithDedupBucket sets the duplicate lookup cell size in degrees.
func WithDedupBucket(deg float64) Option {
	return func(c *Config) { c.DedupBucketDegrees = deg }
}

// WithLegacySource sets the source tag treated as the legacy import.
func WithLegacySource(tag string) Option {
	return func(c *Config) { c.LegacySource = tag }
}

// WithTopN sets the per-region list length.
func WithTopN(n int) Option {
	return func(c *Config) { c.TopN = n }
}

// WithFallbackCap sets how many fallback venues per region are considered.
func WithFallbackCap(n int) Option {
	return func(c *Config) { c.FallbackCap = n }
}

// WithTables replaces the embedded tables.
func WithTables(t *Tables) Option {
	return func(c *Config) { c.Tables = t }
}

// WithLogger sets the logger. The engine only logs at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the tuned defaults without tables or logger.
func DefaultConfig() Config {
	return Config{
		DuplicateDistanceMeters: 55,
		LegacyConflictMeters:    65,
		DedupBucketDegrees:      0.0005,
		LegacySource:            "osm",
		LegacyGeohashPrecision:  7,
		TopN:                    5,
		FallbackCap:             20,
		MaxSuggestionDistance:   3,
	}
}

// Validate checks the thresholds for values the algorithms cannot use.
func (c Config) Validate() error {
	switch {
	case c.DuplicateDistanceMeters <= 0:
		return fmt.Errorf("%w: duplicate distance must be positive, got %v", ErrInvalidConfig, c.DuplicateDistanceMeters)
	case c.LegacyConflictMeters <= 0:
		return fmt.Errorf("%w: legacy conflict distance must be positive, got %v", ErrInvalidConfig, c.LegacyConflictMeters)
	case c.DedupBucketDegrees <= 0:
		return fmt.Errorf("%w: dedup bucket must be positive, got %v", ErrInvalidConfig, c.DedupBucketDegrees)
	case NormalizeSource(c.LegacySource) == "":
		return fmt.Errorf("%w: legacy source is required", ErrInvalidConfig)
	case c.LegacyGeohashPrecision < 1 || c.LegacyGeohashPrecision > 12:
		return fmt.Errorf("%w: geohash precision must be in 1..12, got %d", ErrInvalidConfig, c.LegacyGeohashPrecision)
	case c.TopN <= 0:
		return fmt.Errorf("%w: top N must be positive, got %d", ErrInvalidConfig, c.TopN)
	case c.FallbackCap < c.TopN:
		return fmt.Errorf("%w: fallback cap %d is below top N %d", ErrInvalidConfig, c.FallbackCap, c.TopN)
	case c.MaxSuggestionDistance < 0:
		return fmt.Errorf("%w: suggestion distance must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Engine runs deduplication, overrides, region classification and regional
// ranking against one configuration.
type Engine struct {
	cfg        Config
	legacy     string
	classifier *RegionClassifier
	logger     *zap.Logger
}

// NewEngine creates an engine from DefaultConfig and the embedded tables,
// adjusted by opts.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Tables == nil {
		t, err := DefaultTables()
		if err != nil {
			return nil, fmt.Errorf("loading embedded tables: %w", err)
		}
		cfg.Tables = t
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		legacy:     NormalizeSource(cfg.LegacySource),
		classifier: ClassifierFromTables(cfg.Tables),
		logger:     cfg.Logger,
	}, nil
}

// Singleton for the default engine.
var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
	defaultEngineErr  error
)

// GetDefaultEngine returns a shared engine with the default configuration,
// initializing it on first call.
func GetDefaultEngine() (*Engine, error) {
	defaultEngineOnce.Do(func() {
		defaultEngine, defaultEngineErr = NewEngine()
	})
	return defaultEngine, defaultEngineErr
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Tables returns the engine's static tables.
func (e *Engine) Tables() *Tables { return e.cfg.Tables }

// Classifier returns the region classifier built from the engine's tables.
func (e *Engine) Classifier() *RegionClassifier { return e.classifier }

// RegionFor classifies v; see RegionClassifier.RegionFor.
func (e *Engine) RegionFor(v Venue) (Region, bool) { return e.classifier.RegionFor(v) }

// Matches reports whether v belongs to r; see RegionClassifier.Matches.
func (e *Engine) Matches(v Venue, r Region) bool { return e.classifier.Matches(v, r) }

func (e *Engine) isLegacy(v Venue) bool {
	return NormalizeSource(v.Source) == e.legacy
}
