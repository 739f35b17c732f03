package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glycoloc/internal/config"
	"glycoloc/internal/glycan"
	"glycoloc/internal/localizer"
	"glycoloc/internal/peptide"
	"glycoloc/internal/psm"
	"glycoloc/internal/spectrum"
	"glycoloc/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSequence = "TTGSLEPSSGASGPQVSSVK"

const glycanDB = "% O-glycans\nHexNAc(1)\nHexNAc(1)Hex(1)\n"

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// placementPeaks renders c/z• ions for H1N1@1, H1N1@2, N1@9 as MGF peak
// lines.
func placementPeaks(t *testing.T, n1, h1n1 *glycan.Glycan) string {
	t.Helper()
	pep, err := peptide.New(testSequence, nil)
	require.NoError(t, err)
	placement := map[int]*glycan.Glycan{1: h1n1, 2: h1n1, 9: n1}

	var sb strings.Builder
	for _, p := range peptide.FilterTypes(pep.Fragment(peptide.ETD), peptide.C, peptide.ZDot) {
		mass := p.NeutralMass
		for site, g := range placement {
			if (p.Type == peptide.C && site <= p.Position) || (p.Type == peptide.ZDot && site >= p.Position) {
				mass += g.Mass
			}
		}
		fmt.Fprintf(&sb, "%.6f 1\n", mass+spectrum.ProtonMass)
	}
	return sb.String()
}

// setup writes a glycan database, a PSM table and one raw file. The HCD
// parent scan 4101 holds the oxonium ions, plus the fragment ions when
// parentFragments is set; the paired scan 4102 holds the fragment ions.
func setup(t *testing.T, parentFragments bool) (*config.Config, storage.Store) {
	t.Helper()
	dir := t.TempDir()
	rawDir := filepath.Join(dir, "raw")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))

	dbPath := filepath.Join(dir, "o.gdb")
	write(t, dbPath, glycanDB)
	units, err := glycan.LoadGlycans(dbPath, glycan.MotifO, 0)
	require.NoError(t, err)
	n1, h1n1 := units[0], units[1]
	delta := glycan.NewModBox([]int{0, 1, 1}, units).Mass

	fragments := placementPeaks(t, n1, h1n1)
	parent := "BEGIN IONS\nTITLE=run01.4101.4101.3\nSCANS=4101\nPEPMASS=900\nCHARGE=3+\n" +
		fmt.Sprintf("%.5f 1\n%.5f 2\n", spectrum.Oxonium138, spectrum.Oxonium144)
	if parentFragments {
		parent += fragments
	}
	parent += "END IONS\n"
	child := "BEGIN IONS\nTITLE=run01.4102.4102.3\nSCANS=4102\nPEPMASS=900\nCHARGE=3+\n" + fragments + "END IONS\n"
	write(t, filepath.Join(rawDir, "run01.mgf"), parent+child)
	write(t, filepath.Join(rawDir, "run01.pairs"), "4101\t4102\n")

	header := "Spectrum\tPeptide\tCalibrated Observed M/Z\tDelta Mass\tAssigned Modifications\tObserved Modifications\tProtein\n"
	rows := []string{
		fmt.Sprintf("run01.04101.04101.3\t%s\t944.1\t%.6f\t\tHexNAc(3)Hex(2)\tsp|P1", testSequence, delta),
		"run01.04200.04200.2\tPEPTCDE\t400.2\t0.0012\t5C(57.0215)\t\tsp|P2",
		fmt.Sprintf("run01.04300.04300.3\t%s\t944.1\t%.6f\t\t\tsp|P1", testSequence, delta),
		fmt.Sprintf("run02.05000.05000.3\t%s\t944.1\t%.6f\t\t\tsp|P1", testSequence, delta),
	}
	psmPath := filepath.Join(dir, "psm.tsv")
	write(t, psmPath, header+strings.Join(rows, "\n")+"\n")

	cfg := config.Default()
	cfg.Search.GlycanDatabase = dbPath
	cfg.Input.PSMFile = psmPath
	cfg.Input.RawDir = rawDir
	cfg.Run.Workers = 2
	cfg.Run.DBPath = filepath.Join(dir, "glycoloc.db")

	store, err := storage.NewSQLiteStore(cfg.Run.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return cfg, store
}

func TestLocalization_Run(t *testing.T) {
	cfg, store := setup(t, false)
	ctx := context.Background()

	s := NewLocalization(cfg)
	s.Store = store
	run, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, run.Rows)

	table, err := psm.Load(cfg.Input.PSMFile)
	require.NoError(t, err)
	require.True(t, table.HasLocalizerColumns())
	assert.Equal(t, "OPair Score", table.Headers[6])
	assert.Equal(t, "Protein", table.Headers[len(table.Headers)-1])
	require.Len(t, table.Rows, 4)

	out := table.Rows[0][6 : 6+len(localizer.Headers)]
	assert.Equal(t, "3", out[1])
	assert.Equal(t, "H2N3", out[2])
	assert.True(t, strings.HasPrefix(out[3], "[1,H1N1,"), out[3])
	assert.Equal(t, "Level1", out[4])
	assert.Equal(t, "0.500", out[6])
	assert.Equal(t, "4102", out[7])
	assert.Equal(t, "sp|P1", table.Rows[0][len(table.Rows[0])-1])

	assert.Empty(t, table.Rows[1][6], "unmodified PSMs pass through")
	assert.Equal(t, localizer.StatusNoPairedScan, table.Rows[2][6])
	assert.Empty(t, table.Rows[2][6+7], "no paired scan number")
	assert.Empty(t, table.Rows[3][6], "raw file without spectra")

	records, err := store.LoadResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Level1", records[0].Level)
	assert.Equal(t, 4102, records[0].PairedScan)
	assert.NotEmpty(t, records[0].Probabilities)
	assert.Equal(t, localizer.StatusNoPairedScan, records[2].Status)
	assert.Empty(t, records[3].Level)
}

func TestLocalization_RerunOverwrites(t *testing.T) {
	cfg, store := setup(t, false)
	ctx := context.Background()

	first := NewLocalization(cfg)
	first.Store = store
	_, err := first.Run(ctx)
	require.NoError(t, err)
	before, err := psm.Load(cfg.Input.PSMFile)
	require.NoError(t, err)

	second := NewLocalization(cfg)
	second.Store = store
	second.OutputPath = filepath.Join(t.TempDir(), "rerun.tsv")
	_, err = second.Run(ctx)
	require.NoError(t, err)

	after, err := psm.Load(second.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, before.Headers, after.Headers)
	assert.Equal(t, before.Rows[0], after.Rows[0])

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestLocalization_SharedScanPairs(t *testing.T) {
	cfg, store := setup(t, false)
	pairs := filepath.Join(t.TempDir(), "pairs.tsv")
	write(t, pairs, "4300\t4102\n")
	cfg.Input.ScanPairFile = pairs

	s := NewLocalization(cfg)
	s.Store = store
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	table, err := psm.Load(cfg.Input.PSMFile)
	require.NoError(t, err)
	assert.Equal(t, localizer.StatusNoPairedScan, table.Rows[0][6])
	assert.Equal(t, "Level1", table.Rows[2][6+4])
	assert.Equal(t, "-1.000", table.Rows[2][6+6], "no HCD scan 4300 for the oxonium ratio")
}

func TestLocalization_BadConfig(t *testing.T) {
	cfg, store := setup(t, false)
	cfg.Search.GlycoType = "X"

	s := NewLocalization(cfg)
	s.Store = store
	_, err := s.Run(context.Background())
	assert.Error(t, err)
}

func TestLocalization_ElectronActivatedParent(t *testing.T) {
	score := func(dissociation string) float64 {
		cfg, store := setup(t, true)
		cfg.Search.Dissociation = dissociation
		s := NewLocalization(cfg)
		s.Store = store
		run, err := s.Run(context.Background())
		require.NoError(t, err)

		records, err := store.LoadResults(context.Background(), run.ID)
		require.NoError(t, err)
		require.Equal(t, "Level1", records[0].Level)
		return records[0].Score
	}

	hcd := score("HCD")
	ethcd := score("EThcD")
	assert.Greater(t, hcd, 0.0)
	assert.Greater(t, ethcd, hcd, "the parent scan adds its fragment matches")
}
