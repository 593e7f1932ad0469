// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract parses the raw text block of one profile-page entry
// into a structured Publication. Field policy: the title is required;
// venue, year, and citation count fall back to their zero values when
// the page does not show them.
//
// See docs/ARCHITECTURE.md § Record Extraction.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/scholar-cv/internal/names"
	"github.com/pdiddy/scholar-cv/pkg/types"
)

// ErrMissingTitle marks a block with no usable title line. Such a block
// cannot appear in a report; the caller skips it and continues.
var ErrMissingTitle = errors.New("block has no title line")

// minYear bounds the plausible publication-year range. Tokens outside
// [minYear, current year+1] are left in the venue text rather than
// parsed as years.
const minYear = 1900

// RawEntry is one publication entry as delivered by a page client.
type RawEntry struct {
	// ID is the entry's identifier on the profile page (the
	// citation_for_view token). May be empty for degraded sources.
	ID string

	// Text is the rendered text of the entry: title line, metadata
	// line(s), and optionally a citation line.
	Text string

	// URL links to the entry's detail page, when the client knows it.
	URL string
}

// Detail holds the fields read from an entry's detail page: the full
// author list (the profile row truncates long lists with an ellipsis)
// and the per-year citation histogram.
type Detail struct {
	Authors         []string
	CitationsByYear map[int]int
}

// yearToken matches a standalone 4-digit token.
var yearToken = regexp.MustCompile(`\b(\d{4})\b`)

// trailingInt matches the last integer on the citation line ("Cited by
// 42", "42", "42*").
var trailingInt = regexp.MustCompile(`(\d+)\*?\s*$`)

// authorSeparators splits an author list on commas, ampersands, and the
// word "and".
var authorSeparators = regexp.MustCompile(`\s*(?:,|&|\band\b)\s*`)

// Extract parses one raw block into a Publication, unifying the target
// author's spelling against vs. It fails only with ErrMissingTitle;
// every optional field degrades to its documented default.
func Extract(entry RawEntry, vs types.VariantSet) (types.Publication, error) {
	lines := nonEmptyLines(entry.Text)
	if len(lines) == 0 {
		return types.Publication{}, fmt.Errorf("entry %q: %w", entry.ID, ErrMissingTitle)
	}

	pub := types.Publication{
		SourceID: entry.ID,
		Title:    lines[0],
		URL:      entry.URL,
	}

	meta := lines[1:]

	// A trailing citation line is recognized by its "Cited by" label or
	// by being a bare count; it is not part of the metadata.
	if n := len(meta); n > 0 {
		if count, ok := parseCitationLine(meta[n-1]); ok {
			pub.Citations = count
			meta = meta[:n-1]
		}
	}

	var authorsPart, venuePart string
	switch len(meta) {
	case 0:
		// Title-only block; all optional fields stay at defaults.
	case 1:
		// Combined "authors - venue, year" line.
		authorsPart, venuePart = splitMetadataLine(meta[0])
	default:
		// Separate author and venue lines, as rendered in the profile
		// table's two gray rows.
		authorsPart = meta[0]
		venuePart = strings.Join(meta[1:], ", ")
	}

	venuePart, pub.Year = takeYear(venuePart)
	if pub.Year == 0 {
		// Some entries carry the year on the author line instead.
		authorsPart, pub.Year = takeYear(authorsPart)
	}

	pub.Authors = names.UnifyList(splitAuthors(authorsPart), vs)
	pub.Venue, pub.Preprint = normalizeVenue(venuePart)

	return pub, nil
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// parseCitationLine returns the count on a citation line and whether the
// line is one. "Cited by 42" and bare "42" both qualify; an asterisk
// suffix (upstream's "differs from the version cited" marker) is
// ignored.
func parseCitationLine(line string) (int, bool) {
	lower := strings.ToLower(line)
	isLabeled := strings.HasPrefix(lower, "cited by")
	isBare := trailingInt.MatchString(line) && len(trailingInt.FindString(line)) == len(line)

	if !isLabeled && !isBare {
		return 0, false
	}

	m := trailingInt.FindStringSubmatch(line)
	if m == nil {
		// "Cited by" with no number: a new entry, count unknown.
		return 0, isLabeled
	}
	count, err := strconv.Atoi(m[1])
	if err != nil || count < 0 {
		return 0, true
	}
	// An unlabeled number in the plausible year range is the entry's
	// year, not a count: page clients always label counts "Cited by",
	// while a venue-less entry ends with a bare year line.
	if !isLabeled && count >= minYear && count <= time.Now().Year()+1 {
		return 0, false
	}
	return count, true
}

// splitMetadataLine separates "authors - venue" on the first spaced
// hyphen. Without one the whole line is taken as authors.
func splitMetadataLine(line string) (authors, venue string) {
	if idx := strings.Index(line, " - "); idx >= 0 {
		return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+3:])
	}
	return strings.TrimSpace(line), ""
}

// takeYear removes the first plausible 4-digit year from s and returns
// the cleaned string and the year. Tokens outside the plausible range
// stay in place; absence yields year 0.
func takeYear(s string) (string, int) {
	maxYear := time.Now().Year() + 1
	for _, m := range yearToken.FindAllStringSubmatchIndex(s, -1) {
		year, _ := strconv.Atoi(s[m[2]:m[3]])
		if year < minYear || year > maxYear {
			continue
		}
		// A 4-digit run inside a decimal identifier (arXiv:1905.01234,
		// DOI suffixes) is not a year.
		if m[1] < len(s) && s[m[1]] == '.' && m[1]+1 < len(s) && isDigit(s[m[1]+1]) {
			continue
		}
		if m[0] > 0 && s[m[0]-1] == '.' && m[0] > 1 && isDigit(s[m[0]-2]) {
			continue
		}
		cleaned := s[:m[0]] + s[m[1]:]
		cleaned = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(cleaned), ",-"))
		return cleaned, year
	}
	return s, 0
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func splitAuthors(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var authors []string
	for _, tok := range authorSeparators.Split(s, -1) {
		if tok = strings.TrimSpace(tok); tok != "" {
			authors = append(authors, tok)
		}
	}
	return authors
}

// normalizeVenue trims the venue and flags arXiv preprints. An arXiv
// venue is reduced to its "arXiv:ID" form when the identifier is
// present, matching how the report lists preprints.
func normalizeVenue(venue string) (string, bool) {
	venue = strings.TrimSpace(strings.Trim(venue, ","))
	lower := strings.ToLower(venue)
	if !strings.Contains(lower, "arxiv") {
		return venue, false
	}
	if idx := strings.Index(lower, "arxiv:"); idx >= 0 {
		id := strings.Fields(venue[idx+len("arxiv:"):])
		if len(id) > 0 {
			return "arXiv:" + strings.Trim(id[0], ","), true
		}
	}
	return "arXiv", true
}
