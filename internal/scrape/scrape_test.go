package scrape

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/scholar-cv/internal/extract"
	"github.com/pdiddy/scholar-cv/pkg/types"
)

// --- mock page client ---

type mockClient struct {
	batches [][]extract.RawEntry
	errs    []error
	calls   int
}

func (m *mockClient) FetchNextBatch(_ context.Context) ([]extract.RawEntry, error) {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.batches) {
		return nil, nil
	}
	return m.batches[i], nil
}

func entry(id, title string) extract.RawEntry {
	return extract.RawEntry{
		ID:   id,
		Text: title + "\nA. Smith - J. Phys., 2020\nCited by 1",
	}
}

func testVariants() types.VariantSet {
	return types.VariantSet{CanonicalName: "C. Sánchez Muñoz"}
}

func testCfg() types.ScrapeConfig {
	return types.ScrapeConfig{UserID: "user1"}
}

func TestCollectStopsOnEmptyBatch(t *testing.T) {
	client := &mockClient{batches: [][]extract.RawEntry{
		{entry("a", "Paper A"), entry("b", "Paper B")},
		{entry("c", "Paper C")},
	}}

	pubs, stats, err := Collect(context.Background(), client, testVariants(), testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pubs) != 3 {
		t.Fatalf("len(pubs) = %d, want 3", len(pubs))
	}
	if stats.Batches != 2 {
		t.Errorf("Batches = %d, want 2", stats.Batches)
	}
	// Page order must be preserved.
	want := []string{"Paper A", "Paper B", "Paper C"}
	for i, w := range want {
		if pubs[i].Title != w {
			t.Errorf("pubs[%d].Title = %q, want %q", i, pubs[i].Title, w)
		}
	}
}

func TestCollectDeduplicatesAcrossBatches(t *testing.T) {
	client := &mockClient{batches: [][]extract.RawEntry{
		{entry("abc123", "Paper A"), entry("b", "Paper B")},
		{entry("abc123", "Paper A again"), entry("c", "Paper C")},
	}}

	pubs, stats, err := Collect(context.Background(), client, testVariants(), testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pubs) != 3 {
		t.Fatalf("len(pubs) = %d, want 3", len(pubs))
	}
	if stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", stats.Duplicates)
	}
	// First occurrence wins, at its original position.
	if pubs[0].SourceID != "abc123" || pubs[0].Title != "Paper A" {
		t.Errorf("pubs[0] = %+v, want first-seen Paper A", pubs[0])
	}
}

func TestCollectSkipsMalformedBlocks(t *testing.T) {
	client := &mockClient{batches: [][]extract.RawEntry{
		{entry("a", "Paper A"), {ID: "bad", Text: "   \n  "}, entry("b", "Paper B")},
	}}

	var warnings bytes.Buffer
	pubs, stats, err := Collect(context.Background(), client, testVariants(), testCfg(), &warnings)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pubs) != 2 {
		t.Fatalf("len(pubs) = %d, want 2", len(pubs))
	}
	if stats.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", stats.Malformed)
	}
	if !strings.Contains(warnings.String(), "malformed") {
		t.Errorf("warnings = %q, want malformed-entry warning", warnings.String())
	}
}

func TestCollectStallGuard(t *testing.T) {
	// Batches keep returning the same already-seen id without an
	// explicit empty-batch signal.
	same := []extract.RawEntry{entry("a", "Paper A")}
	client := &mockClient{batches: [][]extract.RawEntry{same, same, same, same, same, same}}

	pubs, stats, err := Collect(context.Background(), client, testVariants(), testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("len(pubs) = %d, want 1", len(pubs))
	}
	if !stats.Stalled {
		t.Error("Stalled = false, want true")
	}
	// First batch is new, then 3 stalled batches trip the guard.
	if client.calls != 4 {
		t.Errorf("fetch calls = %d, want 4", client.calls)
	}
}

func TestCollectMaxRecordsCap(t *testing.T) {
	client := &mockClient{batches: [][]extract.RawEntry{
		{entry("a", "A"), entry("b", "B"), entry("c", "C"), entry("d", "D")},
	}}
	cfg := testCfg()
	cfg.MaxRecords = 2

	pubs, stats, err := Collect(context.Background(), client, testVariants(), cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pubs) != 2 {
		t.Fatalf("len(pubs) = %d, want 2", len(pubs))
	}
	if !stats.Truncated {
		t.Error("Truncated = false, want true")
	}
}

func TestCollectRetriesFetchFailures(t *testing.T) {
	client := &mockClient{
		errs:    []error{fmt.Errorf("net: timeout"), nil},
		batches: [][]extract.RawEntry{nil, {entry("a", "Paper A")}},
	}

	var warnings bytes.Buffer
	pubs, stats, err := Collect(context.Background(), client, testVariants(), testCfg(), &warnings)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("len(pubs) = %d, want 1", len(pubs))
	}
	if stats.FetchFailures != 1 {
		t.Errorf("FetchFailures = %d, want 1", stats.FetchFailures)
	}
	if !strings.Contains(warnings.String(), "batch fetch failed") {
		t.Errorf("warnings = %q, want retry warning", warnings.String())
	}
}

func TestCollectKeepsPartialResultsOnRetryExhaustion(t *testing.T) {
	boom := fmt.Errorf("net: refused")
	client := &mockClient{
		errs:    []error{nil, boom, boom, boom},
		batches: [][]extract.RawEntry{{entry("a", "Paper A")}},
	}

	var warnings bytes.Buffer
	pubs, stats, err := Collect(context.Background(), client, testVariants(), testCfg(), &warnings)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	// Prior results survive retry exhaustion.
	if len(pubs) != 1 {
		t.Fatalf("len(pubs) = %d, want 1", len(pubs))
	}
	if stats.FetchFailures != 3 {
		t.Errorf("FetchFailures = %d, want 3", stats.FetchFailures)
	}
	if !strings.Contains(warnings.String(), "giving up") {
		t.Errorf("warnings = %q, want giving-up warning", warnings.String())
	}
}

func TestCollectConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		vs   types.VariantSet
		cfg  types.ScrapeConfig
	}{
		{"empty canonical name", types.VariantSet{}, testCfg()},
		{"punctuation-only canonical name", types.VariantSet{CanonicalName: ". ."}, testCfg()},
		{"negative max records", testVariants(), types.ScrapeConfig{MaxRecords: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{}
			_, _, err := Collect(context.Background(), client, tt.vs, tt.cfg, &bytes.Buffer{})
			if err == nil {
				t.Fatal("Collect() error = nil, want config error")
			}
			// Config errors surface before any fetch.
			if client.calls != 0 {
				t.Errorf("fetch calls = %d, want 0", client.calls)
			}
		})
	}
}

func TestCollectFallsBackToTitleDedup(t *testing.T) {
	client := &mockClient{batches: [][]extract.RawEntry{
		{{Text: "Same Title\nA. Smith - J, 2020"}, {Text: "Same  title!\nA. Smith - J, 2020"}},
	}}
	pubs, _, err := Collect(context.Background(), client, testVariants(), testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pubs) != 1 {
		t.Errorf("len(pubs) = %d, want 1", len(pubs))
	}
}

// --- detail enrichment ---

type mockDetailClient struct {
	mockClient
	details     map[string]extract.Detail
	detailErr   error
	detailCalls int
}

func (m *mockDetailClient) FetchDetail(_ context.Context, id string) (extract.Detail, error) {
	m.detailCalls++
	if m.detailErr != nil {
		return extract.Detail{}, m.detailErr
	}
	return m.details[id], nil
}

func TestCollectEnrichesFromDetailPages(t *testing.T) {
	client := &mockDetailClient{
		mockClient: mockClient{batches: [][]extract.RawEntry{
			{entry("a", "Paper A")},
		}},
		details: map[string]extract.Detail{
			"a": {
				Authors:         []string{"C. Sanchez Munoz", "A. Smith", "B. Jones"},
				CitationsByYear: map[int]int{2019: 3, 2021: 8},
			},
		},
	}
	cfg := testCfg()
	cfg.Details = true

	pubs, stats, err := Collect(context.Background(), client, testVariants(), cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("len(pubs) = %d, want 1", len(pubs))
	}
	// The detail-page author list replaces the truncated row list, with
	// the profile owner's variant unified to the canonical name.
	want := []string{"C. Sánchez Muñoz", "A. Smith", "B. Jones"}
	if len(pubs[0].Authors) != len(want) {
		t.Fatalf("Authors = %v, want %v", pubs[0].Authors, want)
	}
	for i, a := range want {
		if pubs[0].Authors[i] != a {
			t.Errorf("Authors[%d] = %q, want %q", i, pubs[0].Authors[i], a)
		}
	}
	if pubs[0].CitationsByYear[2021] != 8 {
		t.Errorf("CitationsByYear = %v, want map[2019:3 2021:8]", pubs[0].CitationsByYear)
	}
	if stats.DetailFailures != 0 {
		t.Errorf("DetailFailures = %d, want 0", stats.DetailFailures)
	}
}

func TestCollectKeepsRowAuthorsOnDetailFailure(t *testing.T) {
	client := &mockDetailClient{
		mockClient: mockClient{batches: [][]extract.RawEntry{
			{entry("a", "Paper A")},
		}},
		detailErr: fmt.Errorf("HTTP 429"),
	}
	cfg := testCfg()
	cfg.Details = true

	var warnings bytes.Buffer
	pubs, stats, err := Collect(context.Background(), client, testVariants(), cfg, &warnings)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("len(pubs) = %d, want 1", len(pubs))
	}
	if len(pubs[0].Authors) != 1 || pubs[0].Authors[0] != "A. Smith" {
		t.Errorf("Authors = %v, want row authors kept", pubs[0].Authors)
	}
	if stats.DetailFailures != 1 {
		t.Errorf("DetailFailures = %d, want 1", stats.DetailFailures)
	}
	if !strings.Contains(warnings.String(), "detail page") {
		t.Errorf("warnings = %q, want detail page warning", warnings.String())
	}
}

func TestCollectSkipsDetailsWhenDisabled(t *testing.T) {
	client := &mockDetailClient{
		mockClient: mockClient{batches: [][]extract.RawEntry{
			{entry("a", "Paper A")},
		}},
		details: map[string]extract.Detail{"a": {Authors: []string{"B. Jones"}}},
	}
	cfg := testCfg() // Details left false

	pubs, _, err := Collect(context.Background(), client, testVariants(), cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if client.detailCalls != 0 {
		t.Errorf("detailCalls = %d, want 0", client.detailCalls)
	}
	if len(pubs) != 1 || pubs[0].Authors[0] != "A. Smith" {
		t.Errorf("pubs = %+v, want row authors untouched", pubs)
	}
}
