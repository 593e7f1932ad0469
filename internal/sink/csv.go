// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink persists scraped publications as CSV and reads them
// back, so a report can be rendered later without re-scraping.
package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/scholar-cv/pkg/types"
)

// columns is the fixed CSV schema, in column order.
var columns = []string{"source_id", "title", "authors", "venue", "year", "citations", "citations_by_year", "url", "preprint"}

// authorSep joins the multi-valued authors column.
const authorSep = "; "

// Write serialises publications as CSV with a header row.
func Write(w io.Writer, pubs []types.Publication) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, p := range pubs {
		row := []string{
			p.SourceID,
			p.Title,
			strings.Join(p.Authors, authorSep),
			p.Venue,
			strconv.Itoa(p.Year),
			strconv.Itoa(p.Citations),
			EncodeYearCounts(p.CitationsByYear),
			p.URL,
			strconv.FormatBool(p.Preprint),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WriteFile writes publications to a CSV file, creating or truncating it.
func WriteFile(path string, pubs []types.Publication) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, pubs); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Read parses publications from CSV produced by Write. The header row
// is required; unknown columns are rejected so schema drift is caught
// instead of silently dropping fields.
func Read(r io.Reader) ([]types.Publication, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		if !knownColumn(col) {
			return nil, fmt.Errorf("unknown CSV column %q", col)
		}
		idx[col] = i
	}
	if _, ok := idx["title"]; !ok {
		return nil, fmt.Errorf("CSV header missing title column")
	}

	var pubs []types.Publication
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		p := types.Publication{
			SourceID: field("source_id"),
			Title:    field("title"),
			Venue:    field("venue"),
			URL:      field("url"),
		}
		if a := field("authors"); a != "" {
			p.Authors = strings.Split(a, authorSep)
		}
		if y := field("year"); y != "" {
			if p.Year, err = strconv.Atoi(y); err != nil {
				return nil, fmt.Errorf("line %d: bad year %q", line, y)
			}
		}
		if c := field("citations"); c != "" {
			if p.Citations, err = strconv.Atoi(c); err != nil {
				return nil, fmt.Errorf("line %d: bad citation count %q", line, c)
			}
		}
		if cy := field("citations_by_year"); cy != "" {
			if p.CitationsByYear, err = DecodeYearCounts(cy); err != nil {
				return nil, fmt.Errorf("line %d: %v", line, err)
			}
		}
		p.Preprint = field("preprint") == "true"
		pubs = append(pubs, p)
	}
	return pubs, nil
}

// ReadFile reads publications from a CSV file.
func ReadFile(path string) ([]types.Publication, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// EncodeYearCounts serialises a per-year citation map as "year:count"
// pairs in ascending year order, e.g. "2019:3;2021:8". Shared with the
// run archive so both stores round-trip the same text.
func EncodeYearCounts(m map[int]int) string {
	if len(m) == 0 {
		return ""
	}
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)

	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = fmt.Sprintf("%d:%d", y, m[y])
	}
	return strings.Join(parts, ";")
}

// DecodeYearCounts parses the EncodeYearCounts format. The empty
// string decodes to a nil map.
func DecodeYearCounts(s string) (map[int]int, error) {
	if s == "" {
		return nil, nil
	}
	m := make(map[int]int)
	for _, pair := range strings.Split(s, ";") {
		year, count, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("bad year-count pair %q", pair)
		}
		y, err := strconv.Atoi(year)
		if err != nil {
			return nil, fmt.Errorf("bad year-count pair %q", pair)
		}
		c, err := strconv.Atoi(count)
		if err != nil {
			return nil, fmt.Errorf("bad year-count pair %q", pair)
		}
		m[y] = c
	}
	return m, nil
}

func knownColumn(col string) bool {
	for _, c := range columns {
		if c == col {
			return true
		}
	}
	return false
}
