// CLAUDE:SUMMARY SQLite catalog of past captures: one row per report with status counters and the full report JSON.
// Package catalog records finished captures in SQLite so they can be
// listed, reopened and served later.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/pagesnap/capture/internal/dbopen"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

// ErrNotFound is returned by Get and Delete for unknown IDs.
var ErrNotFound = errors.New("catalog: capture not found")

// Schema is the catalog DDL.
const Schema = `
CREATE TABLE IF NOT EXISTS captures (
    id                    TEXT PRIMARY KEY,
    url                   TEXT NOT NULL,
    final_url             TEXT NOT NULL DEFAULT '',
    title                 TEXT NOT NULL DEFAULT '',
    output_dir            TEXT NOT NULL DEFAULT '',
    started_at            INTEGER NOT NULL,
    finished_at           INTEGER NOT NULL,
    status                TEXT NOT NULL,
    navigation_incomplete INTEGER NOT NULL DEFAULT 0,
    error                 TEXT NOT NULL DEFAULT '',
    asset_count           INTEGER NOT NULL DEFAULT 0,
    failed_count          INTEGER NOT NULL DEFAULT 0,
    entry_count           INTEGER NOT NULL DEFAULT 0,
    report_json           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captures_started ON captures(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_captures_url ON captures(url);
`

// Entry is one catalog row without the report body.
type Entry struct {
	ID                   string    `json:"id"`
	URL                  string    `json:"url"`
	FinalURL             string    `json:"final_url"`
	Title                string    `json:"title"`
	OutputDir            string    `json:"output_dir"`
	StartedAt            time.Time `json:"started_at"`
	FinishedAt           time.Time `json:"finished_at"`
	Status               string    `json:"status"`
	NavigationIncomplete bool      `json:"navigation_incomplete"`
	Error                string    `json:"error,omitempty"`
	AssetCount           int       `json:"asset_count"`
	FailedCount          int       `json:"failed_count"`
	EntryCount           int       `json:"entry_count"`
}

// Catalog is the capture catalog handle.
type Catalog struct {
	DB *sql.DB
}

// Open opens (or creates) the catalog at path.
func Open(path string) (*Catalog, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return &Catalog{DB: db}, nil
}

// New wraps an already open database and applies the schema.
func New(db *sql.DB) (*Catalog, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("catalog: schema: %w", err)
	}
	return &Catalog{DB: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.DB.Close()
}

// Insert stores a report. Re-inserting an ID replaces the row.
func (c *Catalog) Insert(ctx context.Context, r *snapshot.CaptureReport, finishedAt time.Time) error {
	raw, err := snapshot.MarshalReport(r)
	if err != nil {
		return fmt.Errorf("catalog: marshal: %w", err)
	}
	incomplete := 0
	if r.NavigationIncomplete {
		incomplete = 1
	}
	_, err = dbopen.Exec(ctx, c.DB, `
		INSERT OR REPLACE INTO captures
		    (id, url, final_url, title, output_dir, started_at, finished_at, status,
		     navigation_incomplete, error, asset_count, failed_count, entry_count, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.URL, r.FinalURL, r.Title, r.OutputDir,
		r.ExtractedAt.UnixMilli(), finishedAt.UnixMilli(), r.Status(),
		incomplete, r.Error, r.Assets.Total, len(r.Assets.Failed), len(r.Network), string(raw))
	if err != nil {
		return fmt.Errorf("catalog: insert %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the stored report.
func (c *Catalog) Get(ctx context.Context, id string) (*snapshot.CaptureReport, error) {
	var raw string
	err := c.DB.QueryRowContext(ctx, `SELECT report_json FROM captures WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get %s: %w", id, err)
	}
	r, err := snapshot.UnmarshalReport([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", id, err)
	}
	return r, nil
}

// Lookup returns the row for id without decoding the report.
func (c *Catalog) Lookup(ctx context.Context, id string) (*Entry, error) {
	row := c.DB.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM captures WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: lookup %s: %w", id, err)
	}
	return e, nil
}

// List returns the most recent captures first. limit <= 0 means 50.
func (c *Catalog) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.DB.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM captures ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: list scan: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Delete removes a capture row. Files on disk are left alone.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	res, err := dbopen.Exec(ctx, c.DB, `DELETE FROM captures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const entryColumns = `id, url, final_url, title, output_dir, started_at, finished_at, status,
	navigation_incomplete, error, asset_count, failed_count, entry_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e                 Entry
		started, finished int64
		incomplete        int
	)
	err := s.Scan(&e.ID, &e.URL, &e.FinalURL, &e.Title, &e.OutputDir, &started, &finished,
		&e.Status, &incomplete, &e.Error, &e.AssetCount, &e.FailedCount, &e.EntryCount)
	if err != nil {
		return nil, err
	}
	e.StartedAt = time.UnixMilli(started).UTC()
	e.FinishedAt = time.UnixMilli(finished).UTC()
	e.NavigationIncomplete = incomplete != 0
	return &e, nil
}
