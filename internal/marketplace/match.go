package marketplace

import (
	"regexp"
)

var punctuation = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// StripPunctuation removes everything except ASCII letters, digits and spaces.
// Case is preserved.
func StripPunctuation(s string) string {
	return punctuation.ReplaceAllString(s, "")
}

// pickProduct applies the match policy: an exact name/line/set match wins, otherwise the
// highest-scoring candidate (first on ties). ok is false only for an empty list.
func pickProduct(products []SearchProduct, phrase, line, set string) (p SearchProduct, exact bool, ok bool) {
	if len(products) == 0 {
		return SearchProduct{}, false, false
	}

	target := StripPunctuation(phrase)
	for _, candidate := range products {
		if StripPunctuation(candidate.ProductName) == target &&
			candidate.LineName == line &&
			candidate.SetName == set {
			return candidate, true, true
		}
	}

	best := products[0]
	for _, candidate := range products[1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}
	return best, false, true
}
