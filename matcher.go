package main

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks left behind by NFD decomposition,
// so "Côte" and "Cote" fold to the same bytes.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeAnswer reduces free-text input to a canonical key: diacritics
// folded, lower-cased, "&" spelled out, punctuation dropped, whitespace
// collapsed. Matching is exact over these keys; there is no fuzzy fallback.
func normalizeAnswer(text string) string {
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		folded = text
	}

	folded = strings.ToLower(folded)
	folded = strings.ReplaceAll(folded, "&", " and ")

	var b strings.Builder
	b.Grow(len(folded))

	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// Punctuation often glues words together ("d'Ivoire"),
			// so it becomes a space rather than vanishing outright.
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// resolve returns the first answer in the category whose display text or
// any alias normalizes to key, or nil when nothing matches.
func (c *Category) resolve(key string) *Answer {
	if key == "" {
		return nil
	}

	for i := range c.Answers {
		a := &c.Answers[i]
		if a.key == key {
			return a
		}
		for _, alias := range a.aliasKeys {
			if alias == key {
				return a
			}
		}
	}

	return nil
}
