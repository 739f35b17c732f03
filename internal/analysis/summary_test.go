package analysis

import (
	"bytes"
	"testing"

	"glycoloc/internal/storage"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	records := []storage.Record{
		{Row: 0, Level: "Level1", GlycanCount: 3, LocalizedCount: 3, OxoRatio: 0.5},
		{Row: 1, Level: "Level2", GlycanCount: 2, LocalizedCount: 1, OxoRatio: 1.5},
		{Row: 2, Level: "Level1", GlycanCount: 1, LocalizedCount: 1, OxoRatio: -1},
		{Row: 3},
		{Row: 4, Status: "No paired scan"},
		{Row: 5, Status: "No paired scan"},
	}
	s := Summarize(records)

	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 3, s.Localized)
	assert.Equal(t, map[string]int{"Level1": 2, "Level2": 1}, s.Levels)
	assert.Equal(t, map[string]int{"No paired scan": 2}, s.Statuses)
	assert.Equal(t, 6, s.Glycans)
	assert.Equal(t, 5, s.SitesFixed)
	assert.InDelta(t, 1.0, s.MeanOxo, 1e-12, "missing 144 ions are left out")

	var buf bytes.Buffer
	s.Write(&buf)
	out := buf.String()
	assert.Contains(t, out, "Localized:  3 (5/6 glycans site-specific)")
	assert.Contains(t, out, "  Level1   2\n")
	assert.Contains(t, out, "  No paired scan: 2\n")
	assert.Contains(t, out, "Mean 138/144 ratio: 1.000")
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.MeanOxo)

	var buf bytes.Buffer
	s.Write(&buf)
	assert.NotContains(t, buf.String(), "Mean")
}
