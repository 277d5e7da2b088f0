// Package textutil implements the normalization rule shared by every
// classifier and filter: case-fold, strip diacritics, split on
// whitespace.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, removes combining marks, recomposes.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases the input, strips diacritics and collapses
// surrounding whitespace. "Satisfação" becomes "satisfacao".
func Normalize(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	out, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the
		// case-folded input so classification still proceeds.
		return lowered
	}
	return out
}

// Tokens returns the whitespace-separated tokens of the normalized
// input.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// IsNameLike reports whether a token could be part of a person's name:
// at least two runes with at least one letter.
func IsNameLike(token string) bool {
	if len([]rune(token)) < 2 {
		return false
	}
	for _, r := range token {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// NormalizeYesNo maps a stored opt-in value to "yes", "no" or ""
// (unset). The single source of the yes/no vocabulary for both the
// participation filter and the participation analysis.
func NormalizeYesNo(value string) string {
	switch Normalize(value) {
	case "sim", "yes", "s", "y", "true", "1":
		return "yes"
	case "nao", "no", "n", "false", "0":
		return "no"
	default:
		return ""
	}
}

// ContainsAny reports whether the normalized query contains any of the
// given normalized terms as a substring.
func ContainsAny(normalized string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(normalized, t) {
			return true
		}
	}
	return false
}
