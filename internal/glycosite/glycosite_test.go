package glycosite

import (
	"strings"
	"testing"

	"glycoloc/internal/glycan"
	"glycoloc/internal/graph"
	"glycoloc/internal/peptide"
	"glycoloc/internal/spectrum"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func route(box int, mods ...graph.SiteMod) *graph.Route {
	return &graph.Route{BoxID: box, Mods: mods}
}

func TestLocalizedGlycans(t *testing.T) {
	t.Run("single route", func(t *testing.T) {
		sites, level := LocalizedGlycans([]*graph.Route{
			route(0, graph.SiteMod{Site: 1, GlycanID: 2}, graph.SiteMod{Site: 4, GlycanID: 0}),
		})
		assert.Equal(t, Level1, level)
		assert.Equal(t, []GlycoSite{{1, 2, true}, {4, 0, true}}, sites)
	})

	t.Run("shared pair", func(t *testing.T) {
		sites, level := LocalizedGlycans([]*graph.Route{
			route(0, graph.SiteMod{Site: 1, GlycanID: 2}, graph.SiteMod{Site: 4, GlycanID: 0}),
			route(0, graph.SiteMod{Site: 1, GlycanID: 2}, graph.SiteMod{Site: 5, GlycanID: 0}),
		})
		assert.Equal(t, Level2, level)
		assert.Equal(t, []GlycoSite{{1, 2, true}, {4, 0, false}, {5, 0, false}}, sites)
	})

	t.Run("nothing shared", func(t *testing.T) {
		_, level := LocalizedGlycans([]*graph.Route{
			route(0, graph.SiteMod{Site: 1, GlycanID: 2}),
			route(0, graph.SiteMod{Site: 4, GlycanID: 2}),
		})
		assert.Equal(t, Level3, level)
	})

	t.Run("no routes", func(t *testing.T) {
		sites, level := LocalizedGlycans(nil)
		assert.Equal(t, Level3, level)
		assert.Empty(t, sites)
	})
}

type scenario struct {
	units []*glycan.Glycan
	graph *graph.LocalizationGraph
	scan  *spectrum.Scan
	n     int
}

// newScenario scores a 3-unit box on TTGSLEPSSGASGPQVSSVK against a spectrum
// holding every c/z• ion of the true placement.
func newScenario(t *testing.T) scenario {
	t.Helper()
	units := []*glycan.Glycan{
		glycan.NewGlycan(0, []int{glycan.HexNAc: 1}, glycan.MotifO),
		glycan.NewGlycan(1, []int{glycan.Hex: 1, glycan.HexNAc: 1}, glycan.MotifO),
	}
	pep, err := peptide.New("TTGSLEPSSGASGPQVSSVK", nil)
	require.NoError(t, err)
	all := pep.Fragment(peptide.ETD)
	products := peptide.FilterTypes(all, peptide.C, peptide.ZDot)
	placement := map[int]*glycan.Glycan{1: units[1], 2: units[1], 9: units[0]}

	var peaks []spectrum.Peak
	for _, p := range products {
		mass := p.NeutralMass
		for site, g := range placement {
			if (p.Type == peptide.C && site <= p.Position) || (p.Type == peptide.ZDot && site >= p.Position) {
				mass += g.Mass
			}
		}
		peaks = append(peaks, spectrum.Peak{MZ: mass + spectrum.ProtonMass, Intensity: 1})
	}
	scan := spectrum.NewScan(1, 900, 3, peaks)

	sites, motifs := peptide.ModPosMotif(peptide.OGlyco, nil, pep.PossibleModSites(glycan.MotifO))
	box := glycan.NewModBox([]int{0, 1, 1}, units)
	g := graph.New(sites, motifs, box, glycan.BuildChildBoxes(box.ModIDs, units), 3)
	graph.LocalizeMod(g, graph.ScanCost(scan, spectrum.PpmTolerance(10)), products, graph.LocalFragments, graph.UnlocalFragments)
	return scenario{units: units, graph: g, scan: scan, n: len(all)}
}

func TestLocalize_ETD(t *testing.T) {
	sc := newScenario(t)
	m := &Match{
		Graphs:    []*graph.LocalizationGraph{sc.graph},
		GlycoType: peptide.OGlyco,
		P:         sc.scan.RandomMatchProbability(spectrum.PpmTolerance(10)),
		N:         sc.n,
	}
	Localize(m, peptide.HCD, peptide.EThcD)

	require.Len(t, m.Routes, 1)
	assert.Equal(t, Level1, m.Level)
	assert.Equal(t, []GlycoSite{{1, 1, true}, {2, 1, true}, {9, 0, true}}, m.LocalizedGlycans)
	require.NotNil(t, m.SiteProbabilities)
	assert.Greater(t, m.Probability(9, 0), MinSiteProbability)
	assert.Zero(t, m.Probability(9, 1))
	assert.Same(t, sc.graph, m.BestGraph())

	info := LocalizedSiteInfo(m, sc.units)
	assert.True(t, strings.HasPrefix(info, "[1,H1N1,"))
	assert.Contains(t, info, "[9,N1,")
	assert.Equal(t, "{@3[1-1,2-1,9-0]}", AllLocalizationInfo(m.Routes))
	assert.True(t, strings.HasPrefix(SiteSpecificInfo(m.SiteProbabilities), "{@1[1,"))
}

func TestLocalize_HCDOnly(t *testing.T) {
	t.Run("several sites", func(t *testing.T) {
		sc := newScenario(t)
		m := &Match{Graphs: []*graph.LocalizationGraph{sc.graph}, GlycoType: peptide.OGlyco}
		Localize(m, peptide.HCD, peptide.HCD)
		assert.Equal(t, Level3, m.Level)
		assert.Nil(t, m.Routes)
		assert.Nil(t, m.SiteProbabilities)
		assert.Empty(t, LocalizedSiteInfo(m, sc.units))
	})

	t.Run("single site", func(t *testing.T) {
		units := []*glycan.Glycan{glycan.NewGlycan(0, []int{glycan.HexNAc: 1}, glycan.MotifO)}
		box := glycan.NewModBox([]int{0}, units)
		g := graph.New([]int{3}, []string{glycan.MotifO}, box, glycan.BuildChildBoxes(box.ModIDs, units), 0)
		m := &Match{Graphs: []*graph.LocalizationGraph{g}, GlycoType: peptide.OGlyco}
		Localize(m, peptide.CID, peptide.HCD)
		assert.Equal(t, Level1b, m.Level)
	})
}

func TestCorrectLevel(t *testing.T) {
	twoSites := graph.New([]int{1, 5}, []string{glycan.MotifO, glycan.MotifO}, nil, nil, 0)
	twoSites.TotalScore = 4

	t.Run("low probability", func(t *testing.T) {
		m := &Match{
			Graphs:           []*graph.LocalizationGraph{twoSites},
			Level:            Level1,
			Routes:           []*graph.Route{route(0, graph.SiteMod{Site: 1, GlycanID: 0, IsLocalized: true})},
			LocalizedGlycans: []GlycoSite{{1, 0, true}},
			SiteProbabilities: map[int][]graph.SiteProbability{
				1: {{GlycanID: 0, Probability: 0.6}},
			},
		}
		CorrectLevel(m)
		assert.Equal(t, Level1b, m.Level)
	})

	t.Run("not localized by fragments", func(t *testing.T) {
		m := &Match{
			Graphs:           []*graph.LocalizationGraph{twoSites},
			Level:            Level1,
			Routes:           []*graph.Route{route(0, graph.SiteMod{Site: 1, GlycanID: 0})},
			LocalizedGlycans: []GlycoSite{{1, 0, true}},
			SiteProbabilities: map[int][]graph.SiteProbability{
				1: {{GlycanID: 0, Probability: 0.99}},
			},
		}
		CorrectLevel(m)
		assert.Equal(t, Level1b, m.Level)
	})

	t.Run("kept", func(t *testing.T) {
		m := &Match{
			Graphs:           []*graph.LocalizationGraph{twoSites},
			Level:            Level1,
			Routes:           []*graph.Route{route(0, graph.SiteMod{Site: 1, GlycanID: 0, IsLocalized: true})},
			LocalizedGlycans: []GlycoSite{{1, 0, true}},
			SiteProbabilities: map[int][]graph.SiteProbability{
				1: {{GlycanID: 0, Probability: 0.99}},
			},
		}
		CorrectLevel(m)
		assert.Equal(t, Level1, m.Level)
	})

	t.Run("single site without evidence", func(t *testing.T) {
		one := graph.New([]int{3}, []string{glycan.MotifO}, nil, nil, 0)
		m := &Match{
			Graphs:            []*graph.LocalizationGraph{one},
			Level:             Level1,
			SiteProbabilities: map[int][]graph.SiteProbability{3: {{GlycanID: 0, Probability: 1}}},
		}
		CorrectLevel(m)
		assert.Equal(t, Level1b, m.Level)
	})

	t.Run("level2 untouched", func(t *testing.T) {
		m := &Match{Level: Level2, SiteProbabilities: map[int][]graph.SiteProbability{}}
		CorrectLevel(m)
		assert.Equal(t, Level2, m.Level)
	})
}

func TestAllLocalizationInfo_Truncates(t *testing.T) {
	var routes []*graph.Route
	for i := 0; i < 12; i++ {
		routes = append(routes, route(5, graph.SiteMod{Site: i + 1, GlycanID: 0}))
	}
	out := AllLocalizationInfo(routes)
	assert.Equal(t, MaxReportedRoutes, strings.Count(out, "{@5["))
	assert.True(t, strings.HasSuffix(out, "... In Total:12 Paths"))
	assert.Empty(t, AllLocalizationInfo(nil))
	assert.Empty(t, SiteSpecificInfo(nil))
	assert.Equal(t, "Level1b", Level1b.String())
	assert.False(t, Level3.Localizing())
}
