package venuebed

// SourceTier ranks how much a data source is trusted. Higher is better.
type SourceTier int

const (
	TierLegacy       SourceTier = iota // bulk open-data imports
	TierUnrecognized                   // any tag we do not know
	TierCommunity                      // user submissions
	TierAggregator                     // verified third-party listings
	TierCurated                        // hand-maintained records
)

func (t SourceTier) String() string {
	switch t {
	case TierLegacy:
		return "legacy"
	case TierCommunity:
		return "community"
	case TierAggregator:
		return "aggregator"
	case TierCurated:
		return "curated"
	}
	return "unrecognized"
}

// sourceAliases folds the spellings sources use for themselves onto one tag.
var sourceAliases = map[string]string{
	"openstreetmap":  "osm",
	"osmimport":      "osm",
	"applemaps":      "apple",
	"mapkit":         "apple",
	"googleplaces":   "google",
	"googlemaps":     "google",
	"yelpfusion":     "yelp",
	"communityfavs":  "favorites",
	"favourites":     "favorites",
	"usersubmitted":  "community",
	"usersubmission": "community",
}

var sourceTiers = map[string]SourceTier{
	"manual":     TierCurated,
	"curated":    TierCurated,
	"admin":      TierCurated,
	"favorites":  TierCurated,
	"yelp":       TierAggregator,
	"google":     TierAggregator,
	"apple":      TierAggregator,
	"foursquare": TierAggregator,
	"zabihah":    TierAggregator,
	"community":  TierCommunity,
	"user":       TierCommunity,
	"osm":        TierLegacy,
}

// NormalizeSource returns the canonical form of a source tag.
func NormalizeSource(tag string) string {
	key := NormalizedName(tag)
	if alias, ok := sourceAliases[key]; ok {
		return alias
	}
	return key
}

// SourceTierOf returns the trust tier of a source tag.
func SourceTierOf(tag string) SourceTier {
	if tier, ok := sourceTiers[NormalizeSource(tag)]; ok {
		return tier
	}
	return TierUnrecognized
}
