package venuebed

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/golang/geo/s2"
)

// Region is one of the fixed geographic groupings used for "top rated
// nearby". RegionAll is the synthetic aggregate of every named region.
type Region uint8

const (
	RegionManhattan Region = iota
	RegionBrooklyn
	RegionQueens
	RegionBronx
	RegionStatenIsland
	RegionLongIsland
	RegionAll

	regionCount = int(RegionAll) + 1
)

var regionKeys = [regionCount]string{
	RegionManhattan:    "manhattan",
	RegionBrooklyn:     "brooklyn",
	RegionQueens:       "queens",
	RegionBronx:        "bronx",
	RegionStatenIsland: "staten_island",
	RegionLongIsland:   "long_island",
	RegionAll:          "all",
}

var regionDisplayNames = [regionCount]string{
	RegionManhattan:    "Manhattan",
	RegionBrooklyn:     "Brooklyn",
	RegionQueens:       "Queens",
	RegionBronx:        "The Bronx",
	RegionStatenIsland: "Staten Island",
	RegionLongIsland:   "Long Island",
	RegionAll:          "All",
}

func (r Region) String() string {
	if int(r) < regionCount {
		return regionKeys[r]
	}
	return fmt.Sprintf("region(%d)", r)
}

// DisplayName returns the user-facing region name.
func (r Region) DisplayName() string {
	if int(r) < regionCount {
		return regionDisplayNames[r]
	}
	return r.String()
}

// ParseRegion parses a region key such as "staten_island". Spaces, dashes
// and case are ignored.
func ParseRegion(s string) (Region, error) {
	key := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	for i, k := range regionKeys {
		if k == key {
			return Region(i), nil
		}
	}
	return 0, fmt.Errorf("unknown region %q", s)
}

// NamedRegions returns every region except RegionAll, in the fixed order
// used for round-robin interleaving.
func NamedRegions() []Region {
	return []Region{RegionManhattan, RegionBrooklyn, RegionQueens, RegionBronx, RegionStatenIsland, RegionLongIsland}
}

// RegionStrategy is one step of the classification chain.
type RegionStrategy interface {
	Classify(v Venue) (Region, bool)
}

// postalCodeRegex finds US ZIP codes, with optional +4 suffix.
var postalCodeRegex = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)

// PostalStrategy classifies by the 3-digit prefix of the address ZIP code.
// The last 5-digit group wins so house numbers are not mistaken for ZIPs.
type PostalStrategy struct {
	Prefixes map[string]Region
}

func (s PostalStrategy) Classify(v Venue) (Region, bool) {
	matches := postalCodeRegex.FindAllStringSubmatch(v.Address, -1)
	if len(matches) == 0 {
		return 0, false
	}
	zip := matches[len(matches)-1][1]
	r, ok := s.Prefixes[zip[:3]]
	return r, ok
}

// AddressKeyword maps an address substring to a region. Exclude lists longer
// phrases containing Keyword that must not count ("long island city").
type AddressKeyword struct {
	Keyword string
	Region  Region
	Exclude []string
}

// KeywordStrategy scans the lowercased address for known borough and
// neighborhood names. First keyword in list order wins.
type KeywordStrategy struct {
	Keywords []AddressKeyword
}

func (s KeywordStrategy) Classify(v Venue) (Region, bool) {
	addr := strings.ToLower(foldDiacritics(v.Address))
	if strings.TrimSpace(addr) == "" {
		return 0, false
	}
	for _, kw := range s.Keywords {
		if kw.Keyword == "" || !strings.Contains(addr, kw.Keyword) {
			continue
		}
		if containsOutsideExclusions(addr, kw.Keyword, kw.Exclude) {
			return kw.Region, true
		}
	}
	return 0, false
}

// containsOutsideExclusions reports whether keyword occurs in addr at least
// once where it is not part of one of the excluded phrases.
func containsOutsideExclusions(addr, keyword string, exclude []string) bool {
	if len(exclude) == 0 {
		return true
	}
	masked := addr
	for _, ex := range exclude {
		if ex != "" {
			masked = strings.ReplaceAll(masked, ex, strings.Repeat("#", len(ex)))
		}
	}
	return strings.Contains(masked, keyword)
}

// RegionBox is a named bounding box.
type RegionBox struct {
	Region Region
	Rect   s2.Rect
}

// NewRegionBox builds a box from its south-west and north-east corners.
func NewRegionBox(r Region, south, west, north, east float64) RegionBox {
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(south, west)).
		AddPoint(s2.LatLngFromDegrees(north, east))
	return RegionBox{Region: r, Rect: rect}
}

// BoundsStrategy classifies by coordinate. Overlapping boxes are resolved by
// the nearest box centroid; a point in no box is tested against Fallback.
type BoundsStrategy struct {
	Boxes    []RegionBox
	Fallback *RegionBox
}

func (s BoundsStrategy) Classify(v Venue) (Region, bool) {
	if !v.HasCoordinate() {
		return 0, false
	}
	ll := s2.LatLngFromDegrees(v.Latitude, v.Longitude)

	var (
		best     Region
		bestDist float64
		hits     int
	)
	for _, b := range s.Boxes {
		if !b.Rect.ContainsLatLng(ll) {
			continue
		}
		// Squared planar distance on degrees is enough for a tie-break
		// between neighbouring boroughs.
		c := b.Rect.Center()
		dLat := v.Latitude - c.Lat.Degrees()
		dLng := v.Longitude - c.Lng.Degrees()
		d := dLat*dLat + dLng*dLng
		if hits == 0 || d < bestDist {
			best, bestDist = b.Region, d
		}
		hits++
	}
	if hits > 0 {
		return best, true
	}
	if s.Fallback != nil && s.Fallback.Rect.ContainsLatLng(ll) {
		return s.Fallback.Region, true
	}
	return 0, false
}

// RegionClassifier tries its strategies in order; the first hit wins.
// Address-based strategies come before the coordinate strategy because some
// legacy sources have imprecise coordinates.
type RegionClassifier struct {
	strategies []RegionStrategy
}

// NewRegionClassifier returns a classifier running strategies in order.
func NewRegionClassifier(strategies ...RegionStrategy) *RegionClassifier {
	return &RegionClassifier{strategies: strategies}
}

// ClassifierFromTables builds the postal → keyword → bounds chain.
func ClassifierFromTables(t *Tables) *RegionClassifier {
	return NewRegionClassifier(
		PostalStrategy{Prefixes: t.PostalPrefixes},
		KeywordStrategy{Keywords: t.Keywords},
		BoundsStrategy{Boxes: t.Boxes, Fallback: t.FallbackBox},
	)
}

// RegionFor returns the region of v, or false when v is unclassified.
func (c *RegionClassifier) RegionFor(v Venue) (Region, bool) {
	for _, s := range c.strategies {
		if r, ok := s.Classify(v); ok {
			return r, true
		}
	}
	return 0, false
}

// Matches reports whether v belongs to r. Every venue matches RegionAll.
func (c *RegionClassifier) Matches(v Venue, r Region) bool {
	if r == RegionAll {
		return true
	}
	got, ok := c.RegionFor(v)
	return ok && got == r
}
