package venuebed

import (
	"cmp"
	"math"
	"slices"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"go.uber.org/zap"

	"github.com/andreiashu/venuebed/internal/metrics"
)

// Halal status contributions to the priority score. They stay well inside
// one source tier (10000) so trust always dominates.
var halalBonus = map[HalalStatus]float64{
	HalalFull:    600,
	HalalPartial: 400,
	HalalNot:     -500,
}

// PriorityScore ranks a venue among records for the same real venue:
// sourceTier*10000 + halal bonus + confidence*100 + rating*10 + sqrt(ratingCount).
func PriorityScore(v Venue) float64 {
	score := float64(SourceTierOf(v.Source)) * 10000
	score += halalBonus[v.Halal]
	if c, ok := v.ConfidenceValue(); ok {
		score += c * 100
	}
	if r, ok := v.RatingValue(); ok {
		score += r * 10
	}
	if v.RatingCount != nil && *v.RatingCount > 0 {
		score += math.Sqrt(float64(*v.RatingCount))
	}
	return score
}

// displayKey caches what the display comparator needs so sorting does not
// renormalize names on every comparison.
type displayKey struct {
	venue Venue
	name  string
}

func newDisplayKey(v Venue) displayKey {
	return displayKey{venue: v, name: NormalizedName(v.Name)}
}

// compareOptionalDesc orders present values high to low, absent values last.
func compareOptionalDesc(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a)
}

// compareDisplay is the final display order: rating desc, confidence desc,
// normalized name asc, ID asc. Distinct IDs never compare equal.
func compareDisplay(a, b displayKey) int {
	if c := compareOptionalDesc(a.venue.Rating, b.venue.Rating); c != 0 {
		return c
	}
	if c := compareOptionalDesc(a.venue.Confidence, b.venue.Confidence); c != 0 {
		return c
	}
	if c := cmp.Compare(a.name, b.name); c != 0 {
		return c
	}
	return cmp.Compare(a.venue.ID, b.venue.ID)
}

// Sorted returns venues in display order. The input is not modified.
func Sorted(venues []Venue) []Venue {
	keys := make([]displayKey, len(venues))
	for i, v := range venues {
		keys[i] = newDisplayKey(v)
	}
	slices.SortStableFunc(keys, compareDisplay)
	out := make([]Venue, len(keys))
	for i, k := range keys {
		out[i] = k.venue
	}
	return out
}

// scoredVenue is a venue with its priority score and comparison keys.
type scoredVenue struct {
	displayKey
	score   float64
	address string
}

// rankByPriority scores venues and orders them best first, breaking score
// ties by display order.
func rankByPriority(venues []Venue) []scoredVenue {
	ranked := make([]scoredVenue, len(venues))
	for i, v := range venues {
		ranked[i] = scoredVenue{
			displayKey: newDisplayKey(v),
			score:      PriorityScore(v),
			address:    NormalizedName(v.Address),
		}
	}
	slices.SortStableFunc(ranked, func(a, b scoredVenue) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return compareDisplay(a.displayKey, b.displayKey)
	})
	return ranked
}

// keptSet indexes the venues kept so far by normalized address and by grid
// cell, so each candidate is compared only with plausible duplicates.
type keptSet struct {
	maxMeters float64
	ids       map[string]struct{}
	byAddress map[string][]Venue
	spatial   *SpatialIndex
}

func newKeptSet(bucketDegrees, maxMeters float64) *keptSet {
	return &keptSet{
		maxMeters: maxMeters,
		ids:       make(map[string]struct{}),
		byAddress: make(map[string][]Venue),
		spatial:   NewSpatialIndex(bucketDegrees),
	}
}

func (k *keptSet) add(s scoredVenue) {
	k.ids[s.venue.ID] = struct{}{}
	if s.address != "" {
		k.byAddress[s.address] = append(k.byAddress[s.address], s.venue)
	}
	k.spatial.Insert(s.venue)
}

// duplicateOf returns the kept venue s duplicates, if any.
func (k *keptSet) duplicateOf(s scoredVenue) (Venue, bool) {
	if s.address != "" {
		for _, other := range k.byAddress[s.address] {
			if NamesCompatible(s.venue.Name, other.Name) {
				return other, true
			}
		}
	}
	if s.venue.HasCoordinate() {
		for _, other := range k.spatial.Neighbors(s.venue.Latitude, s.venue.Longitude, k.maxMeters) {
			if distanceMeters(s.venue, other) <= k.maxMeters && NamesCompatible(s.venue.Name, other.Name) {
				return other, true
			}
		}
	}
	return Venue{}, false
}

// suppressDuplicates walks ranked venues best first and keeps each one that
// is not a duplicate of a venue already kept. Repeated IDs are dropped.
func (e *Engine) suppressDuplicates(ranked []scoredVenue) []Venue {
	kept := newKeptSet(e.cfg.DedupBucketDegrees, e.cfg.DuplicateDistanceMeters)
	out := make([]Venue, 0, len(ranked))
	for _, s := range ranked {
		if _, seen := kept.ids[s.venue.ID]; seen {
			continue
		}
		if winner, dup := kept.duplicateOf(s); dup {
			metrics.VenuesDropped.WithLabelValues("duplicate").Inc()
			e.logger.Debug("Dropping duplicate venue",
				zap.String("id", s.venue.ID),
				zap.String("name", s.venue.Name),
				zap.String("kept_id", winner.ID),
			)
			continue
		}
		kept.add(s)
		out = append(out, s.venue)
	}
	return out
}

// Deduplicate collapses records that describe the same venue, keeping the
// one with the highest priority score. The result is in priority order.
func (e *Engine) Deduplicate(venues []Venue) []Venue {
	out := e.suppressDuplicates(rankByPriority(venues))
	e.logger.Debug("Deduplicated venue pool",
		zap.Int("in", len(venues)),
		zap.Int("out", len(out)),
	)
	return out
}

// geohashIndex buckets venues by geohash for the legacy conflict lookup.
type geohashIndex struct {
	precision int
	cells     map[string][]Venue
}

func newGeohashIndex(precision int) *geohashIndex {
	return &geohashIndex{precision: precision, cells: make(map[string][]Venue)}
}

func (g *geohashIndex) add(v Venue) {
	h := geohash.EncodeWithPrecision(v.Latitude, v.Longitude, g.precision)
	g.cells[h] = append(g.cells[h], v)
}

// near returns venues in the geohash cell of v and its eight neighbours.
func (g *geohashIndex) near(v Venue) []Venue {
	h := geohash.EncodeWithPrecision(v.Latitude, v.Longitude, g.precision)
	out := append([]Venue(nil), g.cells[h]...)
	for _, adj := range geohash.CalculateAllAdjacent(h) {
		out = append(out, g.cells[adj]...)
	}
	return out
}

// RemoveOutdatedLowTrustDuplicates drops every legacy-source venue lying
// within LegacyConflictMeters of a higher-trust venue that shares at least
// one significant name token. This is stricter than NamesCompatible and
// will occasionally drop a genuine neighbour; other venues pass through in
// input order.
func (e *Engine) RemoveOutdatedLowTrustDuplicates(venues []Venue) []Venue {
	trusted := newGeohashIndex(e.cfg.LegacyGeohashPrecision)
	for _, v := range venues {
		if !e.isLegacy(v) && v.HasCoordinate() {
			trusted.add(v)
		}
	}

	out := make([]Venue, 0, len(venues))
	for _, v := range venues {
		if e.isLegacy(v) && v.HasCoordinate() {
			if other, ok := e.legacyConflict(v, trusted); ok {
				metrics.VenuesDropped.WithLabelValues("legacy_conflict").Inc()
				e.logger.Debug("Dropping legacy venue superseded by trusted source",
					zap.String("id", v.ID),
					zap.String("name", v.Name),
					zap.String("trusted_id", other.ID),
					zap.String("trusted_source", other.Source),
				)
				continue
			}
		}
		out = append(out, v)
	}
	return out
}

func (e *Engine) legacyConflict(v Venue, trusted *geohashIndex) (Venue, bool) {
	tier := SourceTierOf(v.Source)
	tokens := SignificantTokens(v.Name)
	if len(tokens) == 0 {
		return Venue{}, false
	}
	for _, other := range trusted.near(v) {
		if SourceTierOf(other.Source) <= tier {
			continue
		}
		if distanceMeters(v, other) > e.cfg.LegacyConflictMeters {
			continue
		}
		if sharedTokenCount(tokens, SignificantTokens(other.Name)) > 0 {
			return other, true
		}
	}
	return Venue{}, false
}

// closedPhrases mark a venue name as permanently closed wherever they occur.
var closedPhrases = []string{"permanently closed", "closed permanently"}

// isClosed reports whether v is known to be permanently closed.
func isClosed(v Venue, blocked map[string]struct{}) bool {
	if _, ok := blocked[NormalizedName(v.Name)]; ok {
		return true
	}
	lower := strings.ToLower(v.Name)
	for _, p := range closedPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ApplyOverrides removes permanently closed venues (the table's closed names,
// nameBlocklist, and names carrying a "permanently closed" marker), resolves
// legacy conflicts, deduplicates and returns the pool in display order.
func (e *Engine) ApplyOverrides(venues []Venue, nameBlocklist []string) []Venue {
	blocked := make(map[string]struct{}, len(e.cfg.Tables.ClosedNames)+len(nameBlocklist))
	for _, lists := range [][]string{e.cfg.Tables.ClosedNames, nameBlocklist} {
		for _, n := range lists {
			if key := NormalizedName(n); key != "" {
				blocked[key] = struct{}{}
			}
		}
	}

	open := make([]Venue, 0, len(venues))
	for _, v := range venues {
		if isClosed(v, blocked) {
			metrics.VenuesDropped.WithLabelValues("closed").Inc()
			continue
		}
		open = append(open, v)
	}
	return Sorted(e.Deduplicate(e.RemoveOutdatedLowTrustDuplicates(open)))
}
