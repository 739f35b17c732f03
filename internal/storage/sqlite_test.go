package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"glycoloc/internal/glycosite"
	"glycoloc/internal/graph"
	"glycoloc/internal/localizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func localizedResult() *localizer.Result {
	return &localizer.Result{
		ScanNumber:       4102,
		Score:            36,
		GlycanCount:      3,
		TotalComposition: "H2N3",
		SiteComposition:  "[1,H1N1,1.000][2,H1N1,1.000][9,N1,1.000]",
		Level:            glycosite.Level1,
		HasLevel:         true,
		Routes:           "{@3[1-1,2-1,9-0]}",
		LocalizedCount:   3,
		OxoRatio:         0.5,
		Match: &glycosite.Match{
			SiteProbabilities: map[int][]graph.SiteProbability{
				9: {{GlycanID: 0, Probability: 1}},
				1: {{GlycanID: 1, Probability: 0.75}, {GlycanID: 0, Probability: 0.25}},
			},
		},
	}
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord(0, "run01.04101.04101.3", "TTGSLEPSSGASGPQVSSVK", localizedResult())
	assert.Equal(t, 4102, rec.PairedScan)
	assert.Equal(t, "Level1", rec.Level)
	require.Len(t, rec.Probabilities, 3)
	assert.Equal(t, SiteProbability{Site: 1, GlycanID: 0, Probability: 0.25}, rec.Probabilities[0])
	assert.Equal(t, 9, rec.Probabilities[2].Site)

	status := NewRecord(1, "s", "p", &localizer.Result{ScanNumber: 7, Status: localizer.StatusNoBox, Score: 3})
	assert.Equal(t, localizer.StatusNoBox, status.Status)
	assert.Zero(t, status.Score)
	assert.Empty(t, status.Level)

	skipped := NewRecord(2, "s", "p", nil)
	assert.Equal(t, 2, skipped.Row)
	assert.Empty(t, skipped.Status)
}

func TestSQLiteStore_SaveRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LatestRunID(ctx)
	assert.ErrorIs(t, err, ErrNoRuns)

	records := []Record{
		NewRecord(0, "run01.04101.04101.3", "TTGSLEPSSGASGPQVSSVK", localizedResult()),
		NewRecord(1, "run01.04200.04200.2", "PEPTCDE", nil),
		NewRecord(2, "run01.04300.04300.2", "GASK", &localizer.Result{Status: localizer.StatusNoPairedScan}),
	}
	run := &Run{PSMFile: "psm.tsv", StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	id, err := store.SaveRun(ctx, run, records)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, 3, run.Rows)

	latest, err := store.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, latest)

	loaded, err := store.LoadResults(ctx, id)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, records[0], loaded[0])
	assert.Equal(t, "PEPTCDE", loaded[1].Peptide)
	assert.Empty(t, loaded[1].Probabilities)
	assert.Equal(t, localizer.StatusNoPairedScan, loaded[2].Status)

	// A second run does not touch the first.
	id2, err := store.SaveRun(ctx, &Run{PSMFile: "other.tsv"}, records[:1])
	require.NoError(t, err)
	assert.Greater(t, id2, id)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "other.tsv", runs[0].PSMFile)
	assert.Equal(t, 3, runs[1].Rows)
	assert.True(t, runs[1].StartedAt.Equal(run.StartedAt))

	first, err := store.LoadResults(ctx, id)
	require.NoError(t, err)
	assert.Len(t, first, 3)
}
