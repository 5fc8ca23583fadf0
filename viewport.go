package venuebed

import (
	"cmp"
	"math"
	"slices"

	"github.com/paulmach/orb"

	"github.com/andreiashu/venuebed/internal/metrics"
)

// Viewport is the visible map region: a center and the full latitude and
// longitude spans in degrees.
type Viewport struct {
	CenterLat float64
	CenterLng float64
	LatSpan   float64
	LngSpan   float64
}

// Bound returns the viewport's bounding box.
func (vp Viewport) Bound() orb.Bound {
	return vp.Padded(1)
}

// Padded returns the bounding box with each span multiplied by factor.
func (vp Viewport) Padded(factor float64) orb.Bound {
	halfLat := math.Abs(vp.LatSpan) * factor / 2
	halfLng := math.Abs(vp.LngSpan) * factor / 2
	return orb.Bound{
		Min: orb.Point{vp.CenterLng - halfLng, vp.CenterLat - halfLat},
		Max: orb.Point{vp.CenterLng + halfLng, vp.CenterLat + halfLat},
	}
}

// closeTo reports whether vp is near enough to prev for prev's result to be
// reused: the center moved by at most centerFrac of the larger span and the
// spans changed by at most spanFrac of the larger span, on both axes.
func (vp Viewport) closeTo(prev Viewport, centerFrac, spanFrac float64) bool {
	latSpan := math.Max(math.Abs(vp.LatSpan), math.Abs(prev.LatSpan))
	lngSpan := math.Max(math.Abs(vp.LngSpan), math.Abs(prev.LngSpan))
	if math.Abs(vp.CenterLat-prev.CenterLat) > latSpan*centerFrac {
		return false
	}
	if math.Abs(vp.CenterLng-prev.CenterLng) > lngSpan*centerFrac {
		return false
	}
	if math.Abs(math.Abs(vp.LatSpan)-math.Abs(prev.LatSpan)) > latSpan*spanFrac {
		return false
	}
	return math.Abs(math.Abs(vp.LngSpan)-math.Abs(prev.LngSpan)) <= lngSpan*spanFrac
}

// ViewportConfig holds the slice cache's tuned thresholds.
type ViewportConfig struct {
	CellSpanDegrees float64 // grid cell for the viewport index
	IndexThreshold  int     // pools at or below this size are scanned linearly
	PaddingFactor   float64 // candidate search area relative to the viewport
	MaxResults      int     // cap on venues returned for one viewport
	CenterFraction  float64 // allowed center drift for memo reuse
	SpanFraction    float64 // allowed zoom change for memo reuse
}

// DefaultViewportConfig returns the tuned viewport thresholds.
func DefaultViewportConfig() ViewportConfig {
	return ViewportConfig{
		CellSpanDegrees: 0.01,
		IndexThreshold:  200,
		PaddingFactor:   1.3,
		MaxResults:      600,
		CenterFraction:  1.0 / 3.0,
		SpanFraction:    1.0 / 4.0,
	}
}

// SliceCache returns the part of a venue pool shown for a viewport. Small
// pans and zooms reuse the previous result. It is meant for a single caller
// making sequential calls and is not safe for concurrent use.
type SliceCache struct {
	cfg ViewportConfig

	hasVersion bool
	version    uint64
	index      *SpatialIndex

	hasLast      bool
	lastViewport Viewport
	lastResult   []Venue
}

// NewSliceCache returns an empty cache. Zero fields in cfg take defaults.
func NewSliceCache(cfg ViewportConfig) *SliceCache {
	def := DefaultViewportConfig()
	if cfg.CellSpanDegrees <= 0 {
		cfg.CellSpanDegrees = def.CellSpanDegrees
	}
	if cfg.IndexThreshold <= 0 {
		cfg.IndexThreshold = def.IndexThreshold
	}
	if cfg.PaddingFactor < 1 {
		cfg.PaddingFactor = def.PaddingFactor
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.CenterFraction <= 0 {
		cfg.CenterFraction = def.CenterFraction
	}
	if cfg.SpanFraction <= 0 {
		cfg.SpanFraction = def.SpanFraction
	}
	return &SliceCache{cfg: cfg}
}

// Slice returns the venues of pool inside vp, at most MaxResults of them,
// keeping the ones nearest the center. version identifies the pool; when
// it changes the index and memo are rebuilt. Calls with the same version and
// a viewport close to the last one return the previous slice unchanged.
//
// The returned slice is shared with the cache and with every later call that
// reuses it, so callers must treat it as read-only. It never aliases pool.
func (c *SliceCache) Slice(vp Viewport, version uint64, pool []Venue) []Venue {
	if !c.hasVersion || version != c.version {
		c.version, c.hasVersion = version, true
		c.hasLast, c.lastResult = false, nil
		c.index = nil
		if len(pool) > c.cfg.IndexThreshold {
			c.index = BuildIndex(pool, c.cfg.CellSpanDegrees)
		}
	}

	if c.hasLast && vp.closeTo(c.lastViewport, c.cfg.CenterFraction, c.cfg.SpanFraction) {
		metrics.ViewportSlices.WithLabelValues("hit").Inc()
		return c.lastResult
	}
	metrics.ViewportSlices.WithLabelValues("miss").Inc()

	var candidates []Venue
	if c.index != nil {
		candidates = c.index.Query(vp, c.cfg.PaddingFactor)
	} else {
		candidates = pool
	}

	bound := vp.Bound()
	seen := make(map[string]struct{}, len(candidates))
	result := make([]Venue, 0, min(len(candidates), c.cfg.MaxResults))
	for _, v := range candidates {
		if !v.HasCoordinate() || !bound.Contains(orb.Point{v.Longitude, v.Latitude}) {
			continue
		}
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		result = append(result, v)
	}

	if len(result) > c.cfg.MaxResults {
		result = nearestTo(result, vp.CenterLat, vp.CenterLng, c.cfg.MaxResults)
	}

	c.lastViewport, c.lastResult, c.hasLast = vp, result, true
	return result
}

// nearestTo returns the n venues closest to (lat, lng) by squared degree
// distance, nearest first.
func nearestTo(venues []Venue, lat, lng float64, n int) []Venue {
	type ranked struct {
		v    Venue
		dist float64
	}
	rs := make([]ranked, len(venues))
	for i, v := range venues {
		dLat, dLng := v.Latitude-lat, v.Longitude-lng
		rs[i] = ranked{v: v, dist: dLat*dLat + dLng*dLng}
	}
	slices.SortStableFunc(rs, func(a, b ranked) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		return cmp.Compare(a.v.ID, b.v.ID)
	})
	out := make([]Venue, n)
	for i := range out {
		out[i] = rs[i].v
	}
	return out
}
