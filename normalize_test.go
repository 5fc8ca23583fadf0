package venuebed

import (
	"slices"
	"testing"
)

func TestNormalizedName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "whitespace only", input: "   ", want: ""},
		{name: "spaces and digits", input: "Zaoq 100", want: "zaoq100"},
		{name: "punctuation", input: "Adel's Famous Halal Food!", want: "adelsfamoushalalfood"},
		{name: "diacritics", input: "  Café Rouge ", want: "caferouge"},
		{name: "uppercase accents", input: "ÇIĞ KÖFTE", want: "cigkofte"},
		{name: "non-latin letters kept", input: "東京 Ramen", want: "東京ramen"},
		{name: "dashes", input: "Ebe-Ye-Yie", want: "ebeyeyie"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizedName(tt.input); got != tt.want {
				t.Errorf("NormalizedName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizedNameIdempotent(t *testing.T) {
	for _, s := range []string{"The Halal Guys", "Café Rouge", "Sami's Kabab House", ""} {
		once := NormalizedName(s)
		if twice := NormalizedName(once); twice != once {
			t.Errorf("NormalizedName not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}

func TestSignificantTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "The Halal Guys", want: []string{"guys"}},
		{input: "Istanbul Grill", want: []string{"istanbul"}},
		{input: "Istanbul Kebab House", want: []string{"istanbul", "kebab"}},
		{input: "Zaoq 100", want: []string{"100", "zaoq"}},
		{input: "Zaoq100 Restaurant", want: []string{"zaoq100"}},
		{input: "A & B Cafe", want: []string{}},
		{input: "Kabab KING kabab", want: []string{"kabab", "king"}},
		{input: "Sami's Kabab", want: []string{"kabab", "sami"}},
		{input: "", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got []string
			for k := range SignificantTokens(tt.input) {
				got = append(got, k)
			}
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Errorf("SignificantTokens(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNamesCompatible(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "identical", a: "Kwik Meal", b: "Kwik Meal", want: true},
		{name: "case and spacing", a: "Zaoq 100", b: "ZAOQ100", want: true},
		{name: "containment", a: "Zaoq 100", b: "Zaoq100 Restaurant", want: true},
		{name: "single shared token covers smaller set", a: "Istanbul Grill", b: "Istanbul Kebab House", want: true},
		{name: "two shared tokens", a: "Afghan Kebab Palace", b: "Palace Afghan Kebab Grill", want: true},
		{name: "one shared of two each", a: "Mamoun's Falafel", b: "Falafel King", want: false},
		{name: "nothing shared", a: "Halal Munchies", b: "Bengal Tiger", want: false},
		{name: "only stopwords", a: "Halal Grill", b: "Halal Cafe", want: false},
		{name: "empty left", a: "", b: "Kwik Meal", want: false},
		{name: "empty both", a: "", b: "", want: false},
		{name: "punctuation only", a: "!!!", b: "???", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NamesCompatible(tt.a, tt.b); got != tt.want {
				t.Errorf("NamesCompatible(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := NamesCompatible(tt.b, tt.a); got != tt.want {
				t.Errorf("NamesCompatible(%q, %q) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestNamesCompatibleNotTransitive(t *testing.T) {
	a, b, c := "Kabab King", "King", "Burger King Express"
	if !NamesCompatible(a, b) || !NamesCompatible(b, c) {
		t.Fatalf("expected %q~%q and %q~%q", a, b, b, c)
	}
	if NamesCompatible(a, c) {
		t.Errorf("expected %q and %q to be incompatible", a, c)
	}
}
