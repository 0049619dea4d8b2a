// Package names holds the name normalization and variant expansion used on
// both sides of the identity join and in the outbound submission feed.
package names

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FoldDiacritics strips combining accent marks from a name, so "José" and
// "Jose" normalize to the same form. Input that fails to transform is
// returned unchanged.
func FoldDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize canonicalizes a name for matching: trim, remove every internal
// space, uppercase. Both sides of the join must pass through this before
// keys are compared.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "")
	return strings.ToUpper(name)
}

// MatchKey builds the composite identity key from a name and date of birth.
// A zero date of birth contributes an empty date component so records missing
// a birth date still group together deterministically.
func MatchKey(name string, dob time.Time) string {
	key := Normalize(name)
	if dob.IsZero() {
		return key + "|"
	}
	return key + "|" + dob.Format("2006-01-02")
}
