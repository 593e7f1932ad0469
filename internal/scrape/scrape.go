// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape drives repeated batch fetches from a page client and
// accumulates deduplicated publications. One run owns its seen-set and
// accumulator; fetches are issued one at a time because upstream paging
// is stateful.
//
// See docs/ARCHITECTURE.md § Pagination.
package scrape

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/scholar-cv/internal/extract"
	"github.com/pdiddy/scholar-cv/internal/names"
	"github.com/pdiddy/scholar-cv/pkg/types"
)

// PageClient yields raw publication entries in page order, one batch per
// call. An empty batch signals the end of the profile. Implementations:
// internal/browser (headless Chrome) and internal/webclient (plain HTTP).
type PageClient interface {
	// FetchNextBatch returns the next batch of entries, or an empty
	// slice when the source is exhausted. A fetch in flight always
	// completes or fails before control returns.
	FetchNextBatch(ctx context.Context) ([]extract.RawEntry, error)
}

// DetailFetcher is implemented by page clients that can load an
// entry's detail page. Enrichment is best effort: a failed detail
// fetch keeps the row data and warns, it never aborts the run.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id string) (extract.Detail, error)
}

const (
	defaultStallLimit   = 3
	defaultFetchRetries = 3
)

// Stats holds counters from one collection run.
type Stats struct {
	// Batches is the number of successful batch fetches.
	Batches int

	// Duplicates counts entries skipped because their id was already
	// seen; batch overlap is expected, not an error.
	Duplicates int

	// Malformed counts blocks skipped by the extractor.
	Malformed int

	// FetchFailures counts failed fetch attempts.
	FetchFailures int

	// DetailFailures counts entries whose detail page could not be
	// loaded; those keep their row data.
	DetailFailures int

	// Stalled is true when the run ended via the stall guard rather
	// than an explicit empty batch.
	Stalled bool

	// Truncated is true when the run stopped at the max-records cap.
	Truncated bool
}

// Collect pulls batches from client until the source is exhausted, the
// stall guard trips, or cfg.MaxRecords is reached. Publications are
// returned in first-encountered (page) order. Per-block and per-batch
// problems are absorbed as warnings on w; only configuration errors are
// returned, and always before the first fetch.
func Collect(ctx context.Context, client PageClient, vs types.VariantSet, cfg types.ScrapeConfig, w io.Writer) ([]types.Publication, Stats, error) {
	if err := validate(vs, cfg); err != nil {
		return nil, Stats{}, err
	}

	stallLimit := cfg.StallLimit
	if stallLimit <= 0 {
		stallLimit = defaultStallLimit
	}
	retries := cfg.FetchRetries
	if retries <= 0 {
		retries = defaultFetchRetries
	}

	var (
		stats    Stats
		pubs     []types.Publication
		seen     = make(map[string]bool)
		stalled  = 0
		failures = 0
	)

	var detailer DetailFetcher
	if cfg.Details {
		detailer, _ = client.(DetailFetcher)
	}

	for {
		batch, err := client.FetchNextBatch(ctx)
		if err != nil {
			stats.FetchFailures++
			failures++
			if failures >= retries {
				fmt.Fprintf(w, "warning: giving up after %d failed fetches, keeping %d records: %v\n", failures, len(pubs), err)
				return pubs, stats, nil
			}
			fmt.Fprintf(w, "warning: batch fetch failed (attempt %d/%d): %v\n", failures, retries, err)
			continue
		}
		failures = 0

		if len(batch) == 0 {
			return pubs, stats, nil
		}
		stats.Batches++

		newInBatch := 0
		for _, entry := range batch {
			pub, err := extract.Extract(entry, vs)
			if err != nil {
				stats.Malformed++
				fmt.Fprintf(w, "warning: skipping malformed entry: %v\n", err)
				continue
			}

			key := dedupKey(pub)
			if seen[key] {
				stats.Duplicates++
				continue
			}
			seen[key] = true
			if detailer != nil && pub.SourceID != "" {
				enrich(ctx, detailer, &pub, vs, &stats, w)
			}
			pubs = append(pubs, pub)
			newInBatch++

			if cfg.MaxRecords > 0 && len(pubs) >= cfg.MaxRecords {
				stats.Truncated = true
				return pubs, stats, nil
			}
		}

		if newInBatch == 0 {
			stalled++
			if stalled >= stallLimit {
				stats.Stalled = true
				fmt.Fprintf(w, "warning: %d consecutive batches with no new entries, stopping\n", stalled)
				return pubs, stats, nil
			}
		} else {
			stalled = 0
		}

		if cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return pubs, stats, nil
			case <-time.After(cfg.BatchDelay):
			}
		}
	}
}

// enrich replaces row data with the entry's detail-page fields: the
// untruncated author list (re-unified against vs) and the per-year
// citation histogram.
func enrich(ctx context.Context, detailer DetailFetcher, pub *types.Publication, vs types.VariantSet, stats *Stats, w io.Writer) {
	d, err := detailer.FetchDetail(ctx, pub.SourceID)
	if err != nil {
		stats.DetailFailures++
		fmt.Fprintf(w, "warning: detail page for %s: %v\n", pub.SourceID, err)
		return
	}
	if len(d.Authors) > 0 {
		pub.Authors = names.UnifyList(d.Authors, vs)
	}
	if len(d.CitationsByYear) > 0 {
		pub.CitationsByYear = d.CitationsByYear
	}
}

// dedupKey prefers the page's entry id; entries without one fall back to
// the normalized title so degraded sources still deduplicate.
func dedupKey(pub types.Publication) string {
	if pub.SourceID != "" {
		return "id:" + pub.SourceID
	}
	return "title:" + normalizeTitle(pub.Title)
}

// normalizeTitle returns a lowercased, punctuation-stripped version of
// the title for fallback deduplication.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// validate rejects unusable configuration before any fetch begins.
func validate(vs types.VariantSet, cfg types.ScrapeConfig) error {
	if names.Normalize(vs.CanonicalName) == "" {
		return fmt.Errorf("config: canonical name is empty")
	}
	if cfg.UserID == "" {
		return fmt.Errorf("config: user id is empty")
	}
	if cfg.MaxRecords < 0 {
		return fmt.Errorf("config: max records must not be negative, got %d", cfg.MaxRecords)
	}
	return nil
}
