package localizer

import (
	"glycoloc/internal/glycan"
	"glycoloc/internal/glycosite"
	"glycoloc/internal/graph"
	"glycoloc/internal/peptide"
	"glycoloc/internal/spectrum"
)

// Soft per-scan outcomes written in place of a score.
const (
	StatusNoBox           = "No match to glycan delta mass"
	StatusOxoniumFiltered = "No match after oxonium filtering"
	StatusNoPairedScan    = "No paired scan"
)

// GraphTieTolerance groups graphs whose total scores are equal.
const GraphTieTolerance = 1e-8

// Options configures a Localizer.
type Options struct {
	ProductTolerance  spectrum.PpmTolerance
	PrecursorPpm      float64
	Isotopes          []int
	GlycoType         peptide.GlycoType
	Dissociation      peptide.Dissociation
	ChildDissociation peptide.Dissociation
	Filters           []glycan.FilterRule
	KeepTiedGraphs    bool
}

// DefaultOptions matches an MSFragger HCD-triggered EThcD search.
func DefaultOptions() Options {
	return Options{
		ProductTolerance:  spectrum.PpmTolerance(10),
		PrecursorPpm:      30,
		Isotopes:          []int{0, 1, 2},
		GlycoType:         peptide.OGlyco,
		Dissociation:      peptide.HCD,
		ChildDissociation: peptide.EThcD,
	}
}

// Localizer places glycans for one scan at a time. It only reads its
// catalog and options, so one value is shared by all workers.
type Localizer struct {
	catalog *glycan.Catalog
	opts    Options
}

// New binds a catalog to options.
func New(catalog *glycan.Catalog, opts Options) *Localizer {
	return &Localizer{catalog: catalog, opts: opts}
}

// Catalog returns the shared glycan catalog.
func (l *Localizer) Catalog() *glycan.Catalog { return l.catalog }

// Options returns the search settings.
func (l *Localizer) Options() Options { return l.opts }

// Request is one PSM to localize.
type Request struct {
	// Scan is the electron-activated scan scored first.
	Scan *spectrum.Scan
	// ExtraScans are scored on the same graphs afterwards.
	ExtraScans []*spectrum.Scan
	// OxoniumScan is searched for filter ions; Scan is used when nil.
	OxoniumScan *spectrum.Scan

	Peptide   *peptide.Peptide
	DeltaMass float64
	OxoRatio  float64
}

// Localize runs the full per-scan flow. Failures to place the glycan mass
// are reported in Result.Status.
func (l *Localizer) Localize(req Request) *Result {
	res := &Result{ScanNumber: req.Scan.ScanNumber, OxoRatio: req.OxoRatio}

	products, n := l.scoringProducts(req.Peptide)
	sites, motifs := l.candidateSites(req.Peptide)

	hyps := l.catalog.FeasibleBoxes(req.DeltaMass, req.Peptide.MonoisotopicMass(), l.opts.PrecursorPpm, l.opts.Isotopes)
	if len(hyps) == 0 {
		res.Status = StatusNoBox
		return res
	}
	if len(l.opts.Filters) > 0 {
		oxoScan := req.OxoniumScan
		if oxoScan == nil {
			oxoScan = req.Scan
		}
		observed := oxoScan.FindOxoniums(glycan.IonSets(l.opts.Filters), l.opts.ProductTolerance)
		kept := hyps[:0:0]
		for _, h := range hyps {
			if glycan.PassesOxoniumFilter(l.opts.Filters, observed, h.Box) {
				kept = append(kept, h)
			}
		}
		if len(kept) == 0 {
			res.Status = StatusOxoniumFiltered
			return res
		}
		hyps = kept
	}

	local, unlocal := l.fragmentFuncs()
	var graphs []*graph.LocalizationGraph
	seen := make(map[int]bool)
	for _, h := range hyps {
		if seen[h.Box.ID] || len(sites) == 0 || h.Box.ModCount > len(sites) {
			continue
		}
		seen[h.Box.ID] = true
		g := graph.New(sites, motifs, h.Box, h.Box.Children, h.Box.ID)
		graph.LocalizeMod(g, graph.ScanCost(req.Scan, l.opts.ProductTolerance), products, local, unlocal)
		for _, extra := range req.ExtraScans {
			graph.LocalizeMod(g, graph.ScanCost(extra, l.opts.ProductTolerance), products, local, unlocal)
		}
		graphs = append(graphs, g)
	}
	if len(graphs) == 0 {
		res.Status = StatusNoBox
		return res
	}

	m := &glycosite.Match{
		Graphs:    SelectGraphs(graphs, l.opts.KeepTiedGraphs),
		GlycoType: l.opts.GlycoType,
		P:         req.Scan.RandomMatchProbability(l.opts.ProductTolerance),
		N:         n,
		OxoRatio:  req.OxoRatio,
	}
	for _, extra := range req.ExtraScans {
		m.P += extra.RandomMatchProbability(l.opts.ProductTolerance)
		m.N += n
	}
	glycosite.Localize(m, l.opts.Dissociation, l.opts.ChildDissociation)

	res.fill(m, l.catalog.Units)
	return res
}

// SelectGraphs returns the first graph with the highest total score, or
// with keepTies every graph within GraphTieTolerance of it.
func SelectGraphs(graphs []*graph.LocalizationGraph, keepTies bool) []*graph.LocalizationGraph {
	if len(graphs) == 0 {
		return nil
	}
	best := graphs[0]
	for _, g := range graphs[1:] {
		if g.TotalScore > best.TotalScore {
			best = g
		}
	}
	if !keepTies {
		return []*graph.LocalizationGraph{best}
	}
	var tied []*graph.LocalizationGraph
	for _, g := range graphs {
		if g.TotalScore >= best.TotalScore-GraphTieTolerance {
			tied = append(tied, g)
		}
	}
	return tied
}

// scoringProducts returns the fragments scored on the graphs and the number
// of theoretical fragments used for the random-match model. O-glycan runs
// score c/z• ions only; N and mixed runs score every series the paired scan
// activation produces, so b/y ions carry the HexNAc core.
func (l *Localizer) scoringProducts(p *peptide.Peptide) ([]peptide.Product, int) {
	if l.opts.GlycoType == peptide.OGlyco {
		all := p.Fragment(peptide.ETD)
		return peptide.FilterTypes(all, peptide.C, peptide.ZDot), len(all)
	}
	all := p.Fragment(l.opts.ChildDissociation)
	return all, len(all)
}

func (l *Localizer) candidateSites(p *peptide.Peptide) ([]int, []string) {
	var nSites, oSites []int
	if l.opts.GlycoType != peptide.OGlyco {
		nSites = p.PossibleModSites(glycan.MotifN)
	}
	if l.opts.GlycoType != peptide.NGlyco {
		oSites = p.PossibleModSites(glycan.MotifO)
	}
	return peptide.ModPosMotif(l.opts.GlycoType, nSites, oSites)
}

func (l *Localizer) fragmentFuncs() (graph.LocalFragmentFunc, graph.UnlocalFragmentFunc) {
	if l.opts.GlycoType == peptide.OGlyco {
		return graph.LocalFragments, graph.UnlocalFragments
	}
	return graph.LocalFragmentsGlycan, graph.UnlocalFragmentsGlycan
}
