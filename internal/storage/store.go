package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNoRuns is returned when the database holds no run yet.
var ErrNoRuns = errors.New("no runs stored")

// Store persists localization runs.
type Store interface {
	RunStore
	Close() error
}

// RunStore defines operations for persisting per-PSM results.
type RunStore interface {
	// SaveRun stores the run and all its records in one transaction and
	// returns the new run ID.
	SaveRun(ctx context.Context, run *Run, records []Record) (int64, error)

	// LoadResults retrieves the records of a run ordered by PSM row.
	LoadResults(ctx context.Context, runID int64) ([]Record, error)

	// LatestRunID returns the most recent run, or ErrNoRuns.
	LatestRunID(ctx context.Context) (int64, error)

	// ListRuns returns every run, newest first.
	ListRuns(ctx context.Context) ([]Run, error)
}

// Run describes one pass over a PSM table.
type Run struct {
	ID        int64
	PSMFile   string
	StartedAt time.Time
	Rows      int
}

// Record is the stored form of one localized (or skipped) PSM.
type Record struct {
	Row             int
	Spectrum        string
	Peptide         string
	PairedScan      int
	Status          string
	Score           float64
	GlycanCount     int
	Composition     string
	SiteComposition string
	Level           string
	Routes          string
	LocalizedCount  int
	ReachableNodes  int // graph nodes on some full path
	OxoRatio        float64
	Probabilities   []SiteProbability
}

// SiteProbability is one row of a site probability table.
type SiteProbability struct {
	Site        int
	GlycanID    int
	Probability float64
}
