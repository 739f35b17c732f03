package graph

import "glycoloc/internal/glycan"

// AdjNode is one cell of the localization matrix: a candidate site (row)
// holding a child box (column) of everything placed up to that site.
type AdjNode struct {
	Row  int
	Col  int
	Site int
	Box  *glycan.ModBox

	// Valid is set once the sites up to Row can carry Box and the sites
	// after it the rest of the total box.
	Valid bool

	CurrentCost    float64
	CumulativeCost float64

	// Predecessor columns on the previous row. CumulativeSources keeps only
	// the ones reaching CumulativeCost and is a subset of AllSources.
	AllSources        []int
	CumulativeSources []int
}

func addSource(sources []int, col int) []int {
	for _, s := range sources {
		if s == col {
			return sources
		}
	}
	return append(sources, col)
}

// SiteMod places one glycan unit on a residue.
type SiteMod struct {
	Site        int
	GlycanID    int
	IsLocalized bool
}

// Route is a full placement of a box on the candidate sites.
type Route struct {
	BoxID            int
	Mods             []SiteMod
	Score            float64
	ReversePScore    float64
	LogReversePScore float64
}

// AddPos appends a placement.
func (r *Route) AddPos(site, glycanID int, localized bool) {
	r.Mods = append(r.Mods, SiteMod{Site: site, GlycanID: glycanID, IsLocalized: localized})
}

// SiteProbability is the share of route weight placing GlycanID at a site.
type SiteProbability struct {
	GlycanID    int
	Probability float64
}
