package venuebed

import "testing"

func TestNormalizeSource(t *testing.T) {
	tests := map[string]string{
		"Yelp":          "yelp",
		" OSM ":         "osm",
		"OpenStreetMap": "osm",
		"apple_maps":    "apple",
		"Google Places": "google",
		"favourites":    "favorites",
		"":              "",
		"Some Blog":     "someblog",
	}
	for in, want := range tests {
		if got := NormalizeSource(in); got != want {
			t.Errorf("NormalizeSource(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSourceTierOf(t *testing.T) {
	tests := []struct {
		source string
		want   SourceTier
	}{
		{"manual", TierCurated},
		{"Favorites", TierCurated},
		{"yelp", TierAggregator},
		{"Apple Maps", TierAggregator},
		{"community", TierCommunity},
		{"osm", TierLegacy},
		{"openstreetmap", TierLegacy},
		{"", TierUnrecognized},
		{"tiktok", TierUnrecognized},
	}
	for _, tt := range tests {
		if got := SourceTierOf(tt.source); got != tt.want {
			t.Errorf("SourceTierOf(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestSourceTierOrder(t *testing.T) {
	order := []SourceTier{TierLegacy, TierUnrecognized, TierCommunity, TierAggregator, TierCurated}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Errorf("%v should rank below %v", order[i-1], order[i])
		}
	}
}
