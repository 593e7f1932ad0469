// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package names canonicalizes author-name spellings. A scholar profile
// lists the same person as "C. Sánchez Muñoz", "C S Munoz", or
// "C Sanchez Munoz" depending on how each paper was submitted; this
// package decides whether a candidate spelling names the target author
// and, if so, rewrites it to the canonical display form.
//
// See docs/ARCHITECTURE.md § Name Unification.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/scholar-cv/pkg/types"
)

// stripDiacritics decomposes to NFD, drops combining marks, and
// recomposes to NFC, turning "Muñoz" into "Munoz".
var stripDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize reduces a name to its comparison form: lowercase, no
// diacritics, no periods after initials, single internal spaces.
// Matching never looks at anything but this form, so "C. Sánchez Muñoz"
// and "c s munoz  " normalize identically.
func Normalize(name string) string {
	s, _, err := transform.String(stripDiacritics, name)
	if err != nil {
		// Transformation only fails on invalid UTF-8; fall back to the
		// raw input so matching degrades to exact comparison.
		s = name
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ".", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Matches reports whether candidate names the identity described by vs.
// Equality is checked against the canonical name and every pseudonym
// after Normalize; there is no substring or prefix matching, so a
// co-author sharing a surname never matches.
func Matches(candidate string, vs types.VariantSet) bool {
	c := Normalize(candidate)
	if c == "" {
		return false
	}
	if c == Normalize(vs.CanonicalName) {
		return true
	}
	for _, p := range vs.Pseudonyms {
		if c == Normalize(p) {
			return true
		}
	}
	return false
}

// Canonicalize returns vs.CanonicalName verbatim when candidate matches
// the identity, and candidate unchanged otherwise. Co-author names pass
// through untouched.
func Canonicalize(candidate string, vs types.VariantSet) string {
	if Matches(candidate, vs) {
		return vs.CanonicalName
	}
	return candidate
}

// UnifyList applies Canonicalize to every author in the list, returning
// a new slice in the same order.
func UnifyList(authors []string, vs types.VariantSet) []string {
	if len(authors) == 0 {
		return authors
	}
	out := make([]string, len(authors))
	for i, a := range authors {
		out[i] = Canonicalize(a, vs)
	}
	return out
}

// FormatInitials rewrites a full name into initials-plus-surname display
// form: "Carlos Sanchez Munoz" → "C. Sanchez Munoz", "cs Munoz" →
// "C.S. Munoz". A leading token of three or more letters is treated as a
// given name and reduced to its first letter; shorter tokens are taken
// as already-packed initials. Single-token names are returned unchanged.
func FormatInitials(name string) string {
	parts := strings.Fields(strings.TrimSpace(name))
	if len(parts) < 2 {
		return name
	}

	given := strings.ReplaceAll(parts[0], ".", "")
	surname := strings.Join(parts[1:], " ")
	if given == "" {
		return surname
	}

	if len([]rune(given)) >= 3 {
		given = string([]rune(given)[:1])
	}

	var b strings.Builder
	for _, r := range given {
		b.WriteRune(unicode.ToUpper(r))
		b.WriteByte('.')
	}
	return b.String() + " " + surname
}
