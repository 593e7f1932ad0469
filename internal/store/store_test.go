package store

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-cv/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{ArchiveDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePubs() []types.Publication {
	return []types.Publication{
		{
			SourceID:        "u1:AAA",
			Title:           "Quantum feedback control",
			Authors:         []string{"C. Sánchez Muñoz", "A. Smith"},
			Venue:           "Phys. Rev. A",
			Year:            2019,
			Citations:       42,
			CitationsByYear: map[int]int{2019: 3, 2021: 8},
			URL:             "https://example.org/a",
		},
		{
			SourceID: "u1:BBB",
			Title:    "A preprint",
			Authors:  []string{"C. Sánchez Muñoz"},
			Venue:    "arXiv:2301.00001",
			Year:     2023,
			Preprint: true,
		},
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	vs := types.VariantSet{CanonicalName: "C. Sánchez Muñoz"}

	runID, err := s.SaveRun(ctx, "u1", vs, samplePubs())
	require.NoError(t, err)

	got, err := s.LoadRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "u1:AAA", got[0].SourceID)
	assert.Equal(t, []string{"C. Sánchez Muñoz", "A. Smith"}, got[0].Authors)
	assert.Equal(t, 2019, got[0].Year)
	assert.Equal(t, 42, got[0].Citations)
	assert.Equal(t, map[int]int{2019: 3, 2021: 8}, got[0].CitationsByYear)
	assert.Nil(t, got[1].CitationsByYear)
	assert.True(t, got[1].Preprint)
}

func TestLoadRunPreservesOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	vs := types.VariantSet{CanonicalName: "X"}

	pubs := []types.Publication{
		{SourceID: "c", Title: "Third"},
		{SourceID: "a", Title: "First"},
		{SourceID: "b", Title: "Second"},
	}
	runID, err := s.SaveRun(ctx, "u1", vs, pubs)
	require.NoError(t, err)

	got, err := s.LoadRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Collected order, not source_id order.
	assert.Equal(t, "c", got[0].SourceID)
	assert.Equal(t, "a", got[1].SourceID)
	assert.Equal(t, "b", got[2].SourceID)
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	vs := types.VariantSet{CanonicalName: "C. Sánchez Muñoz"}

	first, err := s.SaveRun(ctx, "u1", vs, samplePubs())
	require.NoError(t, err)
	second, err := s.SaveRun(ctx, "u2", vs, samplePubs()[:1])
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, "u2", runs[0].UserID)
	assert.Equal(t, 1, runs[0].RecordCount)
	assert.Equal(t, first, runs[1].ID)
	assert.False(t, runs[0].ScrapedAt.IsZero())
}

func TestLoadMissingRun(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadRun(context.Background(), 999)
	assert.Error(t, err)
}

func TestExportYAML(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	vs := types.VariantSet{CanonicalName: "C. Sánchez Muñoz"}

	runID, err := s.SaveRun(ctx, "u1", vs, samplePubs())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, runID, &buf))

	out := buf.String()
	assert.True(t, strings.Contains(out, "Quantum feedback control"), out)
	assert.True(t, strings.Contains(out, "source_id: u1:AAA"), out)
}
