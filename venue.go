package venuebed

import (
	"maps"
	"math"
	"strings"
)

// Category classifies a venue for the discovery views.
type Category uint8

const (
	CategoryRestaurant Category = iota
	CategoryOther
)

func (c Category) String() string {
	if c == CategoryRestaurant {
		return "restaurant"
	}
	return "other"
}

// HalalStatus is the certification state reported by a source.
type HalalStatus uint8

const (
	HalalUnknown HalalStatus = iota
	HalalPartial
	HalalFull
	HalalNot
)

func (h HalalStatus) String() string {
	switch h {
	case HalalPartial:
		return "partial"
	case HalalFull:
		return "fully_halal"
	case HalalNot:
		return "not_halal"
	}
	return "unknown"
}

// ParseHalalStatus maps a backend status code onto HalalStatus.
// Unrecognized codes are HalalUnknown.
func ParseHalalStatus(code string) HalalStatus {
	switch NormalizedName(code) {
	case "full", "fully", "fullyhalal", "fullhalal", "halal", "yes", "only", "certified":
		return HalalFull
	case "partial", "partially", "partiallyhalal", "partialhalal", "some", "options":
		return HalalPartial
	case "no", "not", "nothalal", "nonhalal", "none", "haram":
		return HalalNot
	}
	return HalalUnknown
}

// worshipMarkers identify raw category text describing a place of worship.
var worshipMarkers = []string{"placeofworship", "worship", "mosque", "masjid", "church", "synagogue", "temple"}

// restaurantMarkers identify raw category text describing somewhere to eat.
var restaurantMarkers = []string{"restaurant", "food", "cafe", "coffee", "bakery", "deli", "diner", "eatery", "grill", "pizza", "cart", "truck", "dessert", "catering"}

// ParseCategory derives a Category from raw category text. The second return
// value is false when the text describes a place of worship, which is not a
// venue at all. Empty text is a restaurant.
func ParseCategory(raw string) (Category, bool) {
	key := NormalizedName(raw)
	if key == "" {
		return CategoryRestaurant, true
	}
	for _, m := range worshipMarkers {
		if strings.Contains(key, m) {
			return CategoryOther, false
		}
	}
	for _, m := range restaurantMarkers {
		if strings.Contains(key, m) {
			return CategoryRestaurant, true
		}
	}
	return CategoryOther, true
}

// Record is a venue as it arrives from a backend source. Everything except
// ID, Name and the coordinate may be absent.
type Record struct {
	ID              string            `yaml:"id" json:"id"`
	Name            string            `yaml:"name" json:"name"`
	Category        string            `yaml:"category" json:"category"`
	Latitude        *float64          `yaml:"lat" json:"lat"`
	Longitude       *float64          `yaml:"lng" json:"lng"`
	Address         string            `yaml:"address" json:"address"`
	HalalStatus     string            `yaml:"halal_status" json:"halal_status"`
	Rating          *float64          `yaml:"rating" json:"rating"`
	RatingCount     *int              `yaml:"rating_count" json:"rating_count"`
	Confidence      *float64          `yaml:"confidence" json:"confidence"`
	Source          string            `yaml:"source" json:"source"`
	ExternalIDs     map[string]string `yaml:"external_ids" json:"external_ids"`
	Note            string            `yaml:"note" json:"note"`
	DisplayLocation string            `yaml:"display_location" json:"display_location"`
}

// Venue is the canonical, immutable venue value the engine works on.
// The engine filters, selects and reorders venues but never modifies one.
type Venue struct {
	ID              string
	Name            string
	Latitude        float64 // NaN when the source had no usable coordinate
	Longitude       float64
	Category        Category
	Address         string
	Halal           HalalStatus
	Rating          *float64
	RatingCount     *int
	Confidence      *float64
	Source          string
	ExternalIDs     map[string]string
	Note            string
	DisplayLocation string
}

// NewVenue builds a Venue from a backend record. It reports false for records
// without an identifier or name and for places of worship.
func NewVenue(r Record) (Venue, bool) {
	id := strings.TrimSpace(r.ID)
	name := strings.TrimSpace(r.Name)
	if id == "" || name == "" {
		return Venue{}, false
	}
	cat, ok := ParseCategory(r.Category)
	if !ok {
		return Venue{}, false
	}

	v := Venue{
		ID:              id,
		Name:            name,
		Latitude:        math.NaN(),
		Longitude:       math.NaN(),
		Category:        cat,
		Address:         strings.TrimSpace(r.Address),
		Halal:           ParseHalalStatus(r.HalalStatus),
		Rating:          finiteOrNil(r.Rating),
		Confidence:      finiteOrNil(r.Confidence),
		Source:          strings.TrimSpace(r.Source),
		Note:            r.Note,
		DisplayLocation: r.DisplayLocation,
	}
	if r.RatingCount != nil && *r.RatingCount >= 0 {
		n := *r.RatingCount
		v.RatingCount = &n
	}
	if len(r.ExternalIDs) > 0 {
		v.ExternalIDs = maps.Clone(r.ExternalIDs)
	}
	if r.Latitude != nil && r.Longitude != nil && validCoordinate(*r.Latitude, *r.Longitude) {
		v.Latitude = *r.Latitude
		v.Longitude = *r.Longitude
	}
	return v, true
}

// NewVenues builds a pool from records, dropping the ones NewVenue rejects.
func NewVenues(records []Record) []Venue {
	out := make([]Venue, 0, len(records))
	for _, r := range records {
		if v, ok := NewVenue(r); ok {
			out = append(out, v)
		}
	}
	return out
}

// HasCoordinate reports whether the venue can take part in spatial lookups.
func (v Venue) HasCoordinate() bool {
	return validCoordinate(v.Latitude, v.Longitude)
}

// RatingValue returns the rating and whether one is present.
func (v Venue) RatingValue() (float64, bool) {
	if v.Rating == nil {
		return 0, false
	}
	return *v.Rating, true
}

// ConfidenceValue returns the confidence and whether one is present.
func (v Venue) ConfidenceValue() (float64, bool) {
	if v.Confidence == nil {
		return 0, false
	}
	return *v.Confidence, true
}

// validCoordinate rejects NaN/Inf, out-of-range values and "Null Island"
// (0,0), which sources emit for records they failed to geocode.
func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	return lat != 0 || lng != 0
}

func finiteOrNil(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	f := *p
	return &f
}
