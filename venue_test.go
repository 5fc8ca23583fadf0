package venuebed

import (
	"math"
	"testing"
)

func TestNewVenue(t *testing.T) {
	lat, lng := 40.7580, -73.9855
	tests := []struct {
		name      string
		rec       Record
		wantOK    bool
		wantCoord bool
	}{
		{
			name:      "complete record",
			rec:       Record{ID: "y1", Name: "Kwik Meal", Latitude: &lat, Longitude: &lng, Source: "yelp"},
			wantOK:    true,
			wantCoord: true,
		},
		{
			name:   "missing id",
			rec:    Record{Name: "Kwik Meal", Latitude: &lat, Longitude: &lng},
			wantOK: false,
		},
		{
			name:   "blank name",
			rec:    Record{ID: "y1", Name: "   "},
			wantOK: false,
		},
		{
			name:   "mosque",
			rec:    Record{ID: "o1", Name: "Masjid Al-Farooq", Category: "place_of_worship", Latitude: &lat, Longitude: &lng},
			wantOK: false,
		},
		{
			name:      "no coordinate",
			rec:       Record{ID: "m1", Name: "Kwik Meal", Address: "45th St & 6th Ave, New York, NY 10036"},
			wantOK:    true,
			wantCoord: false,
		},
		{
			name:      "null island",
			rec:       Record{ID: "m1", Name: "Kwik Meal", Latitude: fptr(0), Longitude: fptr(0)},
			wantOK:    true,
			wantCoord: false,
		},
		{
			name:      "latitude out of range",
			rec:       Record{ID: "m1", Name: "Kwik Meal", Latitude: fptr(140), Longitude: &lng},
			wantOK:    true,
			wantCoord: false,
		},
		{
			name:      "only latitude",
			rec:       Record{ID: "m1", Name: "Kwik Meal", Latitude: &lat},
			wantOK:    true,
			wantCoord: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := NewVenue(tt.rec)
			if ok != tt.wantOK {
				t.Fatalf("NewVenue ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got := v.HasCoordinate(); got != tt.wantCoord {
				t.Errorf("HasCoordinate = %v, want %v", got, tt.wantCoord)
			}
			if !tt.wantCoord && !math.IsNaN(v.Latitude) {
				t.Errorf("Latitude = %v, want NaN", v.Latitude)
			}
		})
	}
}

func TestNewVenueCopiesOptionalFields(t *testing.T) {
	rating, count := 4.5, 120
	rec := Record{
		ID:          " g1 ",
		Name:        " Tanoreen ",
		Rating:      &rating,
		RatingCount: &count,
		Confidence:  fptr(math.NaN()),
		HalalStatus: "Fully Halal",
		ExternalIDs: map[string]string{"google": "abc"},
	}
	v, ok := NewVenue(rec)
	if !ok {
		t.Fatal("NewVenue rejected a valid record")
	}
	if v.ID != "g1" || v.Name != "Tanoreen" {
		t.Errorf("got ID %q name %q, want trimmed values", v.ID, v.Name)
	}
	if v.Halal != HalalFull {
		t.Errorf("Halal = %v, want %v", v.Halal, HalalFull)
	}
	if v.Confidence != nil {
		t.Errorf("NaN confidence kept as %v", *v.Confidence)
	}

	rating = 1
	count = 0
	rec.ExternalIDs["google"] = "changed"
	if r, _ := v.RatingValue(); r != 4.5 {
		t.Errorf("rating aliased the record: %v", r)
	}
	if *v.RatingCount != 120 {
		t.Errorf("rating count aliased the record: %v", *v.RatingCount)
	}
	if v.ExternalIDs["google"] != "abc" {
		t.Errorf("external ids aliased the record: %v", v.ExternalIDs)
	}
}

func TestNewVenues(t *testing.T) {
	got := NewVenues([]Record{
		{ID: "1", Name: "Ayat"},
		{ID: "", Name: "Nameless"},
		{ID: "3", Name: "Islamic Center", Category: "Mosque"},
		{ID: "4", Name: "Balady", Category: "Middle Eastern Restaurant"},
	})
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "4" {
		t.Errorf("NewVenues kept %v, want [1 4]", ids(got))
	}
}

func TestParseHalalStatus(t *testing.T) {
	tests := map[string]HalalStatus{
		"fully_halal":     HalalFull,
		"FULL":            HalalFull,
		"partially-halal": HalalPartial,
		"partial":         HalalPartial,
		"not_halal":       HalalNot,
		"no":              HalalNot,
		"":                HalalUnknown,
		"maybe":           HalalUnknown,
	}
	for code, want := range tests {
		if got := ParseHalalStatus(code); got != want {
			t.Errorf("ParseHalalStatus(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw    string
		want   Category
		wantOK bool
	}{
		{raw: "", want: CategoryRestaurant, wantOK: true},
		{raw: "restaurant", want: CategoryRestaurant, wantOK: true},
		{raw: "Food Cart", want: CategoryRestaurant, wantOK: true},
		{raw: "Grocery", want: CategoryOther, wantOK: true},
		{raw: "place_of_worship", wantOK: false},
		{raw: "Masjid", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.raw)
		if ok != tt.wantOK {
			t.Errorf("ParseCategory(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseCategory(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
