package glycosite

import (
	"glycoloc/internal/graph"
	"glycoloc/internal/peptide"
)

// MinSiteProbability is the lowest site probability a Level1 match may
// report before it is downgraded to Level1b.
const MinSiteProbability = 0.75

// Level grades how well the evidence pins down the glycan positions.
type Level int

const (
	Level1 Level = iota
	Level1b
	Level2
	Level3
)

func (l Level) String() string {
	switch l {
	case Level1:
		return "Level1"
	case Level1b:
		return "Level1b"
	case Level2:
		return "Level2"
	default:
		return "Level3"
	}
}

// Localizing reports whether the level carries a usable placement.
func (l Level) Localizing() bool { return l != Level3 }

// GlycoSite is one (site, glycan) pair seen across the candidate routes.
type GlycoSite struct {
	Site        int
	GlycanID    int
	IsLocalized bool
}

// LocalizedGlycans counts each (site, glycan) pair over all routes. A pair
// present in every route is localized. One route is Level1; several routes
// sharing at least one pair are Level2; anything else is Level3.
func LocalizedGlycans(routes []*graph.Route) ([]GlycoSite, Level) {
	type key struct{ site, glycan int }
	counts := map[key]int{}
	var order []key
	for _, r := range routes {
		for _, m := range r.Mods {
			k := key{m.Site, m.GlycanID}
			if _, ok := counts[k]; !ok {
				order = append(order, k)
			}
			counts[k]++
		}
	}

	level := Level3
	switch {
	case len(routes) == 1:
		level = Level1
	case len(routes) > 1:
		for _, c := range counts {
			if c == len(routes) {
				level = Level2
				break
			}
		}
	}

	sites := make([]GlycoSite, 0, len(order))
	for _, k := range order {
		sites = append(sites, GlycoSite{Site: k.site, GlycanID: k.glycan, IsLocalized: counts[k] == len(routes)})
	}
	return sites, level
}

// Match is the localization state of one spectrum.
type Match struct {
	Graphs    []*graph.LocalizationGraph
	GlycoType peptide.GlycoType

	// P is the random fragment match probability and N the number of
	// theoretical fragments.
	P        float64
	N        int
	OxoRatio float64

	Routes            []*graph.Route
	LocalizedGlycans  []GlycoSite
	Level             Level
	SiteProbabilities map[int][]graph.SiteProbability
}

// Localize fills routes, level and site probabilities from the scored
// graphs. O-glycan matches without any ETD scan cannot be localized and
// only get a level.
func Localize(m *Match, dissociation, childDissociation peptide.Dissociation) {
	if m.Graphs != nil {
		if m.GlycoType == peptide.OGlyco && !dissociation.HasETD() && !childDissociation.HasETD() {
			m.Level = Level3
			if len(m.Graphs) == 1 && len(m.Graphs[0].Sites) == 1 {
				m.Level = Level1b
			}
		} else {
			var candidates []*graph.Route
			for _, g := range m.Graphs {
				for _, path := range graph.AllHighestScorePaths(g) {
					candidates = append(candidates, graph.LocalizedPath(g, path))
				}
			}
			m.Routes = candidates
		}
	}

	if m.Routes != nil {
		m.LocalizedGlycans, m.Level = LocalizedGlycans(m.Routes)
		if m.Level == Level1 || m.Level == Level2 {
			var all []*graph.Route
			for _, g := range m.Graphs {
				all = append(all, graph.AllPathsWithProbability(g, m.P, m.N)...)
			}
			m.SiteProbabilities = graph.SiteSpecificProbability(all, m.Graphs[0].Sites)
		}
	}

	CorrectLevel(m)
}

// CorrectLevel downgrades Level1 to Level1b when the single site carries no
// evidence, a localized glycan has a site probability under
// MinSiteProbability, or the best route did not localize it from fragments.
func CorrectLevel(m *Match) {
	if m.SiteProbabilities == nil || m.Level != Level1 {
		return
	}
	first := m.Graphs[0]
	if len(first.Sites) == 1 && first.TotalScore == 0 {
		m.Level = Level1b
		return
	}

	for i, g := range m.LocalizedGlycans {
		if m.Probability(g.Site, g.GlycanID) < MinSiteProbability {
			m.Level = Level1b
			return
		}
		if i >= len(m.Routes[0].Mods) || !m.Routes[0].Mods[i].IsLocalized {
			m.Level = Level1b
			return
		}
	}
}

// Probability looks up the site probability of a glycan, 0 if absent.
func (m *Match) Probability(site, glycanID int) float64 {
	for _, sp := range m.SiteProbabilities[site] {
		if sp.GlycanID == glycanID {
			return sp.Probability
		}
	}
	return 0
}

// BestGraph is the graph the match was built from.
func (m *Match) BestGraph() *graph.LocalizationGraph {
	if len(m.Graphs) == 0 {
		return nil
	}
	return m.Graphs[0]
}
