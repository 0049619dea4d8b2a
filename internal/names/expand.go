package names

import (
	"regexp"
	"strings"
)

// lastNameStopwords are split fragments too common to submit as standalone
// last-name variants. They only suppress fragments; the joined original form
// is always kept.
var lastNameStopwords = map[string]bool{
	"LA": true, "MC": true, "DE": true, "ST": true, "ST.": true,
	"DEL": true, "JR": true, "JR.": true, "A": true, "O": true,
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9 ]`)

// splitVariants expands every variant containing the delimiter into its
// first maxParts fragments, appended after the existing variants. The
// original variant has the delimiter removed when removeDelimiter is set;
// stopworded or blank fragments are dropped.
func splitVariants(variants []string, delimiter string, maxParts int, stopwords map[string]bool, removeDelimiter bool) []string {
	var fragments []string
	for _, v := range variants {
		if !strings.Contains(v, delimiter) {
			continue
		}
		parts := strings.Split(v, delimiter)
		if len(parts) > maxParts {
			parts = parts[:maxParts]
		}
		for _, p := range parts {
			if strings.TrimSpace(p) == "" {
				continue
			}
			if stopwords != nil && stopwords[p] {
				continue
			}
			fragments = append(fragments, p)
		}
	}

	if removeDelimiter {
		for i, v := range variants {
			variants[i] = strings.ReplaceAll(v, delimiter, "")
		}
	}
	return append(variants, fragments...)
}

// LastNameVariants expands a last name into every form it is matched under.
// "SMITH-JONES" yields SMITHJONES, SMITH, JONES; "DE LA CRUZ" yields DELACRUZ
// and CRUZ (particles are stopworded). Non-alphanumeric characters are
// stripped from every variant.
func LastNameVariants(last string) []string {
	variants := []string{strings.ToUpper(FoldDiacritics(last))}

	variants = splitVariants(variants, "-", 2, nil, true)
	variants = splitVariants(variants, " ", 5, lastNameStopwords, false)

	var out []string
	for _, v := range variants {
		v = nonAlphanumeric.ReplaceAllString(v, "")
		v = strings.ReplaceAll(v, " ", "")
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// FirstNameVariants expands a first name into every form it is matched
// under. "MARY-JANE" yields MARYJANE, MARY, JANE; "O'CONNOR" yields OCONNOR
// and CONNOR. Variants of two characters or fewer are dropped, including
// joined originals.
func FirstNameVariants(first string) []string {
	variants := []string{strings.ToUpper(FoldDiacritics(first))}

	variants = splitVariants(variants, "-", 2, nil, true)
	variants = splitVariants(variants, "'", 2, nil, true)
	variants = splitVariants(variants, " ", 3, nil, true)

	var out []string
	for _, v := range variants {
		if len(v) <= 2 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Pair is one (last, first) combination produced by expansion.
type Pair struct {
	Last  string
	First string
}

// Expand builds the cross product of last-name and first-name variants,
// with exact-duplicate pairs removed in first-seen order.
func Expand(last, first string) []Pair {
	lasts := LastNameVariants(last)
	firsts := FirstNameVariants(first)

	seen := make(map[Pair]bool)
	var out []Pair
	for _, l := range lasts {
		for _, f := range firsts {
			p := Pair{Last: l, First: f}
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
