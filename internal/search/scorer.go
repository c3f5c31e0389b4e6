package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the largest distance still considered a match. 0 is a
// perfect match and 1 matches anything.
const DefaultThreshold = 0.3

var folder = cases.Fold()

// normalize folds case and compatibility forms, then splits on anything
// that is not a letter or digit.
func normalize(s string) []string {
	s = folder.String(norm.NFKC.String(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tokenDistance is the normalized edit distance between a query token and
// a field token. A field token that starts with the query token is a perfect
// match so partially typed words still find their target.
func tokenDistance(query, field string) float64 {
	if strings.HasPrefix(field, query) {
		return 0
	}
	ql, fl := utf8.RuneCountInString(query), utf8.RuneCountInString(field)
	// Compare against the field prefix of similar length so a short typo'd
	// word can still match a long one.
	if fl > ql+1 {
		field = string([]rune(field)[:ql+1])
		fl = ql + 1
	}
	longest := max(ql, fl)
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(query, field)) / float64(longest)
}

// fieldDistance scores a tokenized query against a tokenized field: the mean
// over query tokens of their best match in the field.
func fieldDistance(query, field []string) float64 {
	if len(query) == 0 || len(field) == 0 {
		return 1
	}
	total := 0.0
	for _, q := range query {
		best := 1.0
		for _, f := range field {
			if d := tokenDistance(q, f); d < best {
				best = d
				if best == 0 {
					break
				}
			}
		}
		total += best
	}
	return total / float64(len(query))
}
