package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			psm_file TEXT,
			started_at TEXT,
			row_count INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id INTEGER,
			row_index INTEGER,
			spectrum TEXT,
			peptide TEXT,
			paired_scan INTEGER,
			status TEXT,
			score REAL,
			glycan_count INTEGER,
			composition TEXT,
			site_composition TEXT,
			level TEXT,
			routes TEXT,
			localized_count INTEGER,
			reachable_nodes INTEGER,
			oxo_ratio REAL,
			PRIMARY KEY (run_id, row_index)
		);`,
		`CREATE TABLE IF NOT EXISTS site_probabilities (
			run_id INTEGER,
			row_index INTEGER,
			site INTEGER,
			glycan_id INTEGER,
			probability REAL,
			PRIMARY KEY (run_id, row_index, site, glycan_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_level ON results(run_id, level);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, records []Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO runs (psm_file, started_at, row_count) VALUES (?, ?, ?)",
		run.PSMFile, started.UTC().Format(time.RFC3339Nano), len(records))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	// 1. Save Results
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, row_index, spectrum, peptide, paired_scan, status, score, glycan_count, composition, site_composition, level, routes, localized_count, reachable_nodes, oxo_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	// 2. Save Site Probabilities
	probStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO site_probabilities (run_id, row_index, site, glycan_id, probability) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, row_index, site, glycan_id) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer probStmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, runID, r.Row, r.Spectrum, r.Peptide, r.PairedScan, r.Status, r.Score,
			r.GlycanCount, r.Composition, r.SiteComposition, r.Level, r.Routes, r.LocalizedCount, r.ReachableNodes, r.OxoRatio); err != nil {
			return 0, fmt.Errorf("failed to insert result row %d: %w", r.Row, err)
		}
		for _, p := range r.Probabilities {
			if _, err := probStmt.ExecContext(ctx, runID, r.Row, p.Site, p.GlycanID, p.Probability); err != nil {
				return 0, fmt.Errorf("failed to insert probability row %d: %w", r.Row, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	run.ID = runID
	run.StartedAt = started
	run.Rows = len(records)
	return runID, nil
}

func (s *SQLiteStore) LoadResults(ctx context.Context, runID int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_index, spectrum, peptide, paired_scan, status, score, glycan_count, composition, site_composition, level, routes, localized_count, reachable_nodes, oxo_ratio
		FROM results WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var records []Record
	byRow := make(map[int]int)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Row, &r.Spectrum, &r.Peptide, &r.PairedScan, &r.Status, &r.Score, &r.GlycanCount,
			&r.Composition, &r.SiteComposition, &r.Level, &r.Routes, &r.LocalizedCount, &r.ReachableNodes, &r.OxoRatio); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		byRow[r.Row] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	probRows, err := s.db.QueryContext(ctx,
		"SELECT row_index, site, glycan_id, probability FROM site_probabilities WHERE run_id = ? ORDER BY row_index, site, glycan_id", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query site probabilities: %w", err)
	}
	defer probRows.Close()

	for probRows.Next() {
		var row int
		var p SiteProbability
		if err := probRows.Scan(&row, &p.Site, &p.GlycanID, &p.Probability); err != nil {
			return nil, fmt.Errorf("failed to scan site probability: %w", err)
		}
		if i, ok := byRow[row]; ok {
			records[i].Probabilities = append(records[i].Probabilities, p)
		}
	}
	return records, probRows.Err()
}

func (s *SQLiteStore) LatestRunID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM runs ORDER BY id DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoRuns
	}
	return id, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, psm_file, started_at, row_count FROM runs ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.PSMFile, &started, &r.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
