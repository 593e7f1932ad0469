// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns an assembled record collection into a formatted
// document. Each renderer owns its escaping rules; input text arrives
// unescaped and is escaped exactly once here.
//
// See docs/ARCHITECTURE.md § Rendering.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/scholar-cv/internal/names"
	"github.com/pdiddy/scholar-cv/pkg/types"
)

// Renderer writes a publication report to w.
type Renderer interface {
	Render(w io.Writer, ordered []types.Publication, summary types.ReportSummary, vs types.VariantSet) error
}

// now is stubbed in tests for a stable report date.
var now = time.Now

// New returns the renderer for a format.
func New(cfg types.ReportConfig) (Renderer, error) {
	switch cfg.Format {
	case types.OutputLaTeX:
		return &latexRenderer{cfg: cfg}, nil
	case types.OutputMarkdown, "":
		return &markdownRenderer{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want latex or markdown)", cfg.Format)
	}
}

// reportData is the input structure shared by both templates.
type reportData struct {
	CanonicalName string
	Papers        []entryData
	Preprints     []entryData
	Summary       types.ReportSummary
	JournalLine   string
	Date          string
}

// entryData is one pre-escaped publication entry.
type entryData struct {
	Title   string
	Authors string
	Venue   string
	Year    string
	URL     string
	Cites   int
}

// buildData escapes every field once and splits papers from preprints.
func buildData(ordered []types.Publication, summary types.ReportSummary, vs types.VariantSet, cfg types.ReportConfig, escape func(string) string, bold func(string) string) reportData {
	data := reportData{
		CanonicalName: escape(vs.CanonicalName),
		Summary:       summary,
		JournalLine:   journalLine(summary, cfg),
		Date:          now().Format("January 2, 2006"),
	}

	for _, p := range ordered {
		e := entryData{
			Title:   escape(p.Title),
			Authors: authorLine(p.Authors, vs, escape, bold),
			Venue:   escape(p.Venue),
			Year:    yearString(p.Year),
			URL:     p.URL,
			Cites:   p.Citations,
		}
		if p.Preprint {
			data.Preprints = append(data.Preprints, e)
		} else {
			data.Papers = append(data.Papers, e)
		}
	}
	return data
}

// authorLine joins the author list in compact initials form,
// emphasising the target author.
func authorLine(authors []string, vs types.VariantSet, escape, bold func(string) string) string {
	parts := make([]string, len(authors))
	for i, a := range authors {
		display := escape(names.FormatInitials(a))
		if names.Matches(a, vs) {
			display = bold(display)
		}
		parts[i] = display
	}
	return strings.Join(parts, ", ")
}

func yearString(year int) string {
	if year == 0 {
		return "n.d."
	}
	return fmt.Sprintf("%d", year)
}

// journalLine formats the tracked-journal counts in their configured
// order: "2 Nature Photonics (1 first author), 1 PRX Quantum".
func journalLine(summary types.ReportSummary, cfg types.ReportConfig) string {
	order := cfg.TrackedJournals
	if len(order) == 0 {
		for j := range summary.JournalCounts {
			order = append(order, j)
		}
		sort.Strings(order)
	}

	var parts []string
	for _, j := range order {
		jc, ok := summary.JournalCounts[j]
		if !ok || jc.Count == 0 {
			continue
		}
		s := fmt.Sprintf("%d %s", jc.Count, j)
		switch {
		case jc.FirstAuthor > 0 && jc.LastAuthor > 0:
			s += fmt.Sprintf(" (%d first author, %d last author)", jc.FirstAuthor, jc.LastAuthor)
		case jc.FirstAuthor > 0:
			s += fmt.Sprintf(" (%d first author)", jc.FirstAuthor)
		case jc.LastAuthor > 0:
			s += fmt.Sprintf(" (%d last author)", jc.LastAuthor)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
