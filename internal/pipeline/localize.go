package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"glycoloc/internal/config"
	"glycoloc/internal/crawler"
	"glycoloc/internal/glycan"
	"glycoloc/internal/localizer"
	"glycoloc/internal/peptide"
	"glycoloc/internal/psm"
	"glycoloc/internal/spectrum"
	"glycoloc/internal/storage"

	"golang.org/x/sync/errgroup"
)

const progressEvery = 1000

// Localization localizes every modified PSM of a table and writes the
// result columns back.
type Localization struct {
	Config *config.Config
	// OutputPath defaults to the input table, which is rewritten in place.
	OutputPath string
	// Store receives the run; when nil the database at Config.Run.DBPath is
	// opened.
	Store storage.Store

	warnMu sync.Mutex
	warned map[string]bool
}

func NewLocalization(cfg *config.Config) *Localization {
	return &Localization{
		Config:     cfg,
		OutputPath: cfg.Input.PSMFile,
	}
}

func (s *Localization) Run(ctx context.Context) (*storage.Run, error) {
	start := time.Now()
	run := &storage.Run{PSMFile: s.Config.Input.PSMFile, StartedAt: start}

	loc, err := s.searchStage()
	if err != nil {
		return nil, err
	}

	table, err := psm.Load(s.Config.Input.PSMFile)
	if err != nil {
		return nil, err
	}
	fmt.Printf("📄 Loaded %d PSMs from %s\n", len(table.Rows), table.Path)

	cache, err := s.spectraStage()
	if err != nil {
		return nil, err
	}

	lines, records, err := s.localizeStage(ctx, loc, table, cache)
	if err != nil {
		return nil, err
	}

	overwrite := table.HasLocalizerColumns()
	header := table.Headers
	if !overwrite {
		header = table.EditLine(table.Headers, localizer.Headers, false)
	}
	if err := psm.Write(s.OutputPath, header, lines); err != nil {
		return nil, err
	}
	fmt.Printf("✅ Finished localization in %.1f s, wrote %s\n", time.Since(start).Seconds(), s.OutputPath)

	if err := s.persistStage(ctx, run, records); err != nil {
		return nil, err
	}
	return run, nil
}

// searchStage builds the glycan catalog and the shared localizer.
func (s *Localization) searchStage() (*localizer.Localizer, error) {
	search := s.Config.Search

	glycoType, err := peptide.ParseGlycoType(search.GlycoType)
	if err != nil {
		return nil, err
	}
	parent, err := peptide.ParseDissociation(search.Dissociation)
	if err != nil {
		return nil, err
	}
	child, err := peptide.ParseDissociation(search.ChildDissociation)
	if err != nil {
		return nil, err
	}

	units, err := s.loadUnits(glycoType)
	if err != nil {
		return nil, err
	}
	catalog, err := glycan.NewCatalog(units, search.MaxGlycans)
	if err != nil {
		return nil, fmt.Errorf("failed to build glycan catalog: %w", err)
	}
	fmt.Printf("🧬 %d glycans, %d combinations up to %d per peptide\n", len(units), len(catalog.Boxes), search.MaxGlycans)

	opts := localizer.DefaultOptions()
	opts.ProductTolerance = spectrum.PpmTolerance(search.ProductPpm)
	opts.PrecursorPpm = search.PrecursorPpm
	opts.Isotopes = s.Config.Isotopes()
	opts.GlycoType = glycoType
	opts.Dissociation = parent
	opts.ChildDissociation = child
	opts.KeepTiedGraphs = search.KeepTiedGraphs
	if search.OxoniumFilter != "" {
		if opts.Filters, err = glycan.LoadOxoniumFilters(search.OxoniumFilter); err != nil {
			return nil, err
		}
		fmt.Printf("  -> %d oxonium filter rules\n", len(opts.Filters))
	}
	return localizer.New(catalog, opts), nil
}

func (s *Localization) loadUnits(t peptide.GlycoType) ([]*glycan.Glycan, error) {
	search := s.Config.Search
	switch t {
	case peptide.NGlyco:
		return glycan.LoadGlycans(search.GlycanDatabase, glycan.MotifN, 0)
	case peptide.MixedGlyco:
		units, err := glycan.LoadGlycans(search.GlycanDatabase, glycan.MotifO, 0)
		if err != nil {
			return nil, err
		}
		if search.NGlycanDatabase == "" {
			return nil, fmt.Errorf("mixed glyco search needs n_glycan_database")
		}
		nUnits, err := glycan.LoadGlycans(search.NGlycanDatabase, glycan.MotifN, len(units))
		if err != nil {
			return nil, err
		}
		return append(units, nUnits...), nil
	default:
		return glycan.LoadGlycans(search.GlycanDatabase, glycan.MotifO, 0)
	}
}

// spectraStage indexes the raw directory and the optional shared scan-pair
// table.
func (s *Localization) spectraStage() (*spectraCache, error) {
	crawl := crawler.NewCrawler()
	if err := crawl.ScanDir(s.Config.Input.RawDir); err != nil {
		return nil, fmt.Errorf("failed to scan raw directory: %w", err)
	}
	fmt.Printf("🔍 Found spectra for %d raw files in %s\n", len(crawl.RawFiles()), s.Config.Input.RawDir)

	var pairs map[int]int
	if s.Config.Input.ScanPairFile != "" {
		var err error
		if pairs, err = psm.LoadScanPairs(s.Config.Input.ScanPairFile); err != nil {
			return nil, err
		}
	}
	return newSpectraCache(crawl, s.Config.Input.RawDir, pairs), nil
}

// localizeStage runs the rows through a bounded worker pool. Results are
// stored by row index so output order matches the input.
func (s *Localization) localizeStage(ctx context.Context, loc *localizer.Localizer, table *psm.Table, cache *spectraCache) ([][]string, []storage.Record, error) {
	overwrite := table.HasLocalizerColumns()
	lines := make([][]string, len(table.Rows))
	records := make([]storage.Record, len(table.Rows))
	var done atomic.Int64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Config.Run.Workers)
	for i := range table.Rows {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, res, err := s.localizeRow(loc, table, i, cache)
			if err != nil {
				return err
			}
			cols := localizer.EmptyColumns()
			if res != nil {
				cols = res.Columns()
			}
			lines[i] = table.EditLine(table.Rows[i], cols, overwrite)
			records[i] = storage.NewRecord(i, row.Spectrum, row.Peptide, res)

			if n := done.Add(1); n%progressEvery == 0 {
				fmt.Printf("  -> %d/%d PSMs processed in %.1f s\n", n, len(table.Rows), time.Since(start).Seconds())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lines, records, nil
}

// localizeRow returns a nil result for rows that pass through untouched.
func (s *Localization) localizeRow(loc *localizer.Localizer, table *psm.Table, i int, cache *spectraCache) (psm.Row, *localizer.Result, error) {
	row, err := table.Parse(i)
	if err != nil {
		return row, nil, err
	}
	if row.Unmodified() {
		return row, nil, nil
	}

	raw := cache.get(row.RawFile)
	if raw.err != nil {
		s.warnOnce(row.RawFile, raw.err)
		return row, nil, nil
	}
	childNum, ok := raw.pairs[row.ScanNum]
	if !ok {
		return row, &localizer.Result{Status: localizer.StatusNoPairedScan}, nil
	}
	child, ok := raw.scans[childNum]
	if !ok {
		s.warnOnce(row.RawFile, fmt.Errorf("paired scans missing from the spectra of %s, e.g. scan %d", row.RawFile, childNum))
		return row, nil, nil
	}
	if child.Charge == 0 {
		withCharge := *child
		withCharge.Charge = row.Charge
		child = &withCharge
	}

	mods, err := peptide.ParseAssignedMods(row.AssignedMods, row.Peptide)
	if err != nil {
		return row, nil, fmt.Errorf("row %d: %w", i+1, err)
	}
	pep, err := peptide.New(row.Peptide, mods)
	if err != nil {
		return row, nil, fmt.Errorf("row %d: %w", i+1, err)
	}

	req := localizer.Request{
		Scan:      child,
		Peptide:   pep,
		DeltaMass: row.DeltaMass,
		OxoRatio:  -1,
	}
	if parent, ok := raw.scans[row.ScanNum]; ok {
		req.OxoniumScan = parent
		req.OxoRatio = parent.OxoRatio(spectrum.PpmTolerance(s.Config.Search.ProductPpm))
		// An electron-activated parent scan is scored on the same graphs.
		if loc.Options().Dissociation.HasETD() {
			req.ExtraScans = []*spectrum.Scan{parent}
		}
	}
	return row, loc.Localize(req), nil
}

func (s *Localization) warnOnce(rawBase string, err error) {
	s.warnMu.Lock()
	defer s.warnMu.Unlock()
	if s.warned == nil {
		s.warned = make(map[string]bool)
	}
	if s.warned[rawBase] {
		return
	}
	s.warned[rawBase] = true
	log.Printf("⚠️ Warning: %v", err)
}

func (s *Localization) persistStage(ctx context.Context, run *storage.Run, records []storage.Record) error {
	store := s.Store
	if store == nil {
		sqlite, err := storage.NewSQLiteStore(s.Config.Run.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer sqlite.Close()
		store = sqlite
	}
	id, err := store.SaveRun(ctx, run, records)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	fmt.Printf("💾 Saved run %d (%d PSMs) to %s\n", id, len(records), s.Config.Run.DBPath)
	return nil
}
