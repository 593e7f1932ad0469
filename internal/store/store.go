// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store archives scrape runs in a SQLite database so earlier
// snapshots of a profile remain queryable after the page has changed.
//
// See docs/ARCHITECTURE.md § Run Archive.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-cv/internal/sink"
	"github.com/pdiddy/scholar-cv/pkg/types"
)

const (
	dbFile     = "scholar.db"
	defaultDir = "archive"

	// authorSep joins the authors column; matches the CSV sink.
	authorSep = "; "
)

// Store manages the run archive database.
type Store struct {
	db *sql.DB
}

// RunInfo describes one archived scrape run.
type RunInfo struct {
	ID            int64     `json:"id" yaml:"id"`
	UserID        string    `json:"user_id" yaml:"user_id"`
	CanonicalName string    `json:"canonical_name" yaml:"canonical_name"`
	ScrapedAt     time.Time `json:"scraped_at" yaml:"scraped_at"`
	RecordCount   int       `json:"record_count" yaml:"record_count"`
}

// Open opens or creates the archive database under cfg.ArchiveDir,
// creating the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.ArchiveDir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			canonical_name TEXT NOT NULL,
			scraped_at TEXT NOT NULL,
			record_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS publications (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			source_id TEXT NOT NULL,
			title TEXT NOT NULL,
			authors TEXT,
			venue TEXT,
			year INTEGER,
			citations INTEGER,
			citations_by_year TEXT,
			url TEXT,
			preprint INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_run ON publications(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun archives one scrape run and returns its id. Publications are
// stored in their collected (page) order.
func (s *Store) SaveRun(ctx context.Context, userID string, vs types.VariantSet, pubs []types.Publication) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (user_id, canonical_name, scraped_at, record_count) VALUES (?, ?, ?, ?)`,
		userID, vs.CanonicalName, time.Now().UTC().Format(time.RFC3339), len(pubs))
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO publications (run_id, position, source_id, title, authors, venue, year, citations, citations_by_year, url, preprint)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range pubs {
		if _, err := stmt.ExecContext(ctx, runID, i, p.SourceID, p.Title,
			strings.Join(p.Authors, authorSep), p.Venue, p.Year, p.Citations,
			sink.EncodeYearCounts(p.CitationsByYear), p.URL, p.Preprint); err != nil {
			return 0, fmt.Errorf("inserting publication %q: %w", p.SourceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// ListRuns returns archived runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, canonical_name, scraped_at, record_count FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var scrapedAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.CanonicalName, &scrapedAt, &r.RecordCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, scrapedAt); err == nil {
			r.ScrapedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadRun returns the publications of one archived run in their
// collected order.
func (s *Store) LoadRun(ctx context.Context, runID int64) ([]types.Publication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, title, authors, venue, year, citations, citations_by_year, url, preprint
		 FROM publications WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	var pubs []types.Publication
	for rows.Next() {
		var p types.Publication
		var authors, yearCounts string
		if err := rows.Scan(&p.SourceID, &p.Title, &authors, &p.Venue, &p.Year, &p.Citations, &yearCounts, &p.URL, &p.Preprint); err != nil {
			return nil, fmt.Errorf("scanning publication: %w", err)
		}
		if authors != "" {
			p.Authors = strings.Split(authors, authorSep)
		}
		if yearCounts != "" {
			if p.CitationsByYear, err = sink.DecodeYearCounts(yearCounts); err != nil {
				return nil, fmt.Errorf("publication %q: %w", p.SourceID, err)
			}
		}
		pubs = append(pubs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if pubs == nil {
		return nil, fmt.Errorf("run %d not found or empty", runID)
	}
	return pubs, nil
}

// ExportYAML writes one archived run as YAML to w.
func (s *Store) ExportYAML(ctx context.Context, runID int64, w io.Writer) error {
	pubs, err := s.LoadRun(ctx, runID)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(pubs)
}
