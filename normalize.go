package venuebed

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are generic words that say nothing about which venue a name
// refers to. They are ignored when comparing significant tokens.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "at": {}, "on": {}, "in": {}, "by": {},
	"restaurant": {}, "restaurants": {}, "grill": {}, "grille": {}, "cafe": {},
	"kitchen": {}, "house": {}, "bar": {}, "halal": {}, "food": {}, "foods": {},
	"cuisine": {}, "eatery": {}, "express": {}, "place": {}, "spot": {},
	"shop": {}, "corner": {}, "market": {}, "inc": {}, "llc": {}, "co": {},
	"nyc": {}, "ny": {}, "authentic": {}, "famous": {},
	"original": {}, "best": {}, "fresh": {}, "cart": {}, "truck": {},
}

// foldDiacritics strips combining marks ("Café" → "Cafe"). A fresh
// transformer is built per call because transform chains carry state.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// NormalizedName canonicalizes a venue name (or address) into a comparison
// key: trimmed, diacritics folded, lowercased, alphanumerics only.
func NormalizedName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToLower(foldDiacritics(s))
	return strings.Map(func(r rune) rune {
		if isAlnum(r) {
			return r
		}
		return -1
	}, s)
}

// SignificantTokens splits s on non-alphanumeric boundaries and returns the
// lowercased tokens of two or more characters that are not stopwords.
func SignificantTokens(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	s = strings.ToLower(foldDiacritics(s))
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return !isAlnum(r) }) {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// NamesCompatible is a permissive "might be the same venue" test. Callers
// must pair it with a proximity or address check. The relation is symmetric
// but not transitive.
func NamesCompatible(a, b string) bool {
	na, nb := NormalizedName(a), NormalizedName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb || strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return tokensCompatible(SignificantTokens(a), SignificantTokens(b))
}

func tokensCompatible(ta, tb map[string]struct{}) bool {
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	shared := sharedTokenCount(ta, tb)
	if shared == 0 {
		return false
	}
	if shared >= min(2, min(len(ta), len(tb))) {
		return true
	}
	return shared == len(ta) || shared == len(tb)
}

func sharedTokenCount(ta, tb map[string]struct{}) int {
	if len(tb) < len(ta) {
		ta, tb = tb, ta
	}
	n := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			n++
		}
	}
	return n
}
