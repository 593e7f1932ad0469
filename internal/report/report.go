// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report orders the collected publications and computes the
// aggregate statistics shown in the rendered document.
//
// See docs/ARCHITECTURE.md § Report Assembly.
package report

import (
	"sort"
	"strings"

	"github.com/pdiddy/scholar-cv/internal/names"
	"github.com/pdiddy/scholar-cv/pkg/types"
)

// Assemble returns the publications in report order together with their
// summary statistics. Ordering is year descending, then citations
// descending, ties broken by encounter order (stable), so the same
// record set always renders the same document. The input slice is not
// modified.
func Assemble(records []types.Publication, vs types.VariantSet, cfg types.ReportConfig) ([]types.Publication, types.ReportSummary) {
	ordered := make([]types.Publication, len(records))
	copy(ordered, records)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Year != ordered[j].Year {
			return ordered[i].Year > ordered[j].Year
		}
		return ordered[i].Citations > ordered[j].Citations
	})

	return ordered, summarize(ordered, vs, cfg)
}

func summarize(records []types.Publication, vs types.VariantSet, cfg types.ReportConfig) types.ReportSummary {
	summary := types.ReportSummary{
		RecordCount:  len(records),
		CountsByYear: make(map[int]int),
	}

	journals := make(map[string]string, len(cfg.TrackedJournals)) // lowercase → display
	for _, j := range cfg.TrackedJournals {
		journals[strings.ToLower(j)] = j
	}
	if len(journals) > 0 {
		summary.JournalCounts = make(map[string]types.JournalCount)
	}

	var citations []int
	for _, r := range records {
		summary.TotalCitations += r.Citations
		summary.CountsByYear[r.Year]++
		citations = append(citations, r.Citations)

		if r.Preprint {
			continue
		}
		summary.PeerReviewed++

		// Authorship positions are counted for peer-reviewed entries,
		// matching what the statistics paragraph claims.
		first := names.Matches(r.FirstAuthor(), vs)
		last := len(r.Authors) > 1 && names.Matches(r.LastAuthor(), vs)
		if first {
			summary.FirstAuthor++
		}
		if last {
			summary.LastAuthor++
		}

		// Venue strings usually carry volume and page info after the
		// journal name, so tracked journals match on containment.
		venue := strings.ToLower(r.Venue)
		for key, display := range journals {
			if !strings.Contains(venue, key) {
				continue
			}
			jc := summary.JournalCounts[display]
			jc.Count++
			if first {
				jc.FirstAuthor++
			}
			if last {
				jc.LastAuthor++
			}
			summary.JournalCounts[display] = jc
		}
	}

	summary.HIndex = hIndex(citations)
	return summary
}

// hIndex returns the largest h such that h entries have at least h
// citations each.
func hIndex(citations []int) int {
	sorted := make([]int, len(citations))
	copy(sorted, citations)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	h := 0
	for i, c := range sorted {
		if c >= i+1 {
			h = i + 1
		} else {
			break
		}
	}
	return h
}
