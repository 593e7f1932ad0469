// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scholar-cv pipeline.
// See docs/ARCHITECTURE.md § Data Structures.
package types

// Publication holds the metadata extracted for one entry on a scholar
// profile page.
type Publication struct {
	// SourceID is the opaque identifier of the entry on the profile page
	// (the citation_for_view token). Unique within one scrape run; used
	// for deduplication across pagination batches.
	SourceID string `json:"source_id" yaml:"source_id"`

	// Title is the publication title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in source order, after pseudonym
	// unification against the run's VariantSet.
	Authors []string `json:"authors" yaml:"authors"`

	// Venue is the journal or source line; empty when the profile page
	// does not show one.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Year is the publication year, or 0 when the page shows none.
	Year int `json:"year" yaml:"year"`

	// Citations is the citation count, 0 when unavailable.
	Citations int `json:"citations" yaml:"citations"`

	// URL links to the entry's detail page, when known.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Preprint marks arXiv (and similar) entries so the report can list
	// them separately from peer-reviewed papers.
	Preprint bool `json:"preprint" yaml:"preprint"`

	// CitationsByYear maps year to citations received that year, from
	// the entry's detail-page histogram. Nil when the entry was not
	// enriched or has no citations.
	CitationsByYear map[int]int `json:"citations_by_year,omitempty" yaml:"citations_by_year,omitempty"`
}

// FirstAuthor returns the first listed author, or "" for an empty list.
func (p Publication) FirstAuthor() string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[0]
}

// LastAuthor returns the last listed author, or "" for an empty list.
func (p Publication) LastAuthor() string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[len(p.Authors)-1]
}

// VariantSet groups the spellings that identify the target author.
type VariantSet struct {
	// CanonicalName is the display form (original casing and diacritics)
	// that replaces any matched variant.
	CanonicalName string `json:"canonical_name" yaml:"canonical_name"`

	// Pseudonyms are alternate spellings recognized as the same identity.
	Pseudonyms []string `json:"pseudonyms,omitempty" yaml:"pseudonyms,omitempty"`
}

// ReportSummary holds the aggregate statistics computed for one report.
// Recomputed each run, never persisted.
type ReportSummary struct {
	// RecordCount is the number of retained publications.
	RecordCount int `json:"record_count" yaml:"record_count"`

	// PeerReviewed is the number of non-preprint publications.
	PeerReviewed int `json:"peer_reviewed" yaml:"peer_reviewed"`

	// TotalCitations sums Citations over all publications.
	TotalCitations int `json:"total_citations" yaml:"total_citations"`

	// HIndex is the largest h such that h publications have at least h
	// citations each.
	HIndex int `json:"h_index" yaml:"h_index"`

	// CountsByYear maps year to publication count. Year 0 collects
	// entries with no year on the profile page.
	CountsByYear map[int]int `json:"counts_by_year" yaml:"counts_by_year"`

	// FirstAuthor and LastAuthor count publications where the canonical
	// name appears in that position.
	FirstAuthor int `json:"first_author" yaml:"first_author"`
	LastAuthor  int `json:"last_author" yaml:"last_author"`

	// JournalCounts tracks per-journal totals for the configured journal
	// watch list, keyed by the configured (display) journal name.
	JournalCounts map[string]JournalCount `json:"journal_counts,omitempty" yaml:"journal_counts,omitempty"`
}

// JournalCount holds per-journal authorship statistics.
type JournalCount struct {
	Count       int `json:"count" yaml:"count"`
	FirstAuthor int `json:"first_author" yaml:"first_author"`
	LastAuthor  int `json:"last_author" yaml:"last_author"`
}
