package localizer

import (
	"strconv"

	"glycoloc/internal/glycan"
	"glycoloc/internal/glycosite"
)

// Headers are the columns a Result contributes to a PSM table.
var Headers = []string{
	"OPair Score",
	"Number of Glycans",
	"Total Glycan Composition",
	"Glycan Site Composition(s)",
	"Confidence Level",
	"Site Probabilities",
	"138/144 Ratio",
	"Paired Scan Num",
}

// Result is the outcome of localizing one PSM.
type Result struct {
	ScanNumber int
	Status     string

	Score             float64
	GlycanCount       int
	TotalComposition  string
	SiteComposition   string
	Level             glycosite.Level
	HasLevel          bool
	SiteProbabilities string
	Routes            string
	LocalizedCount    int
	ReachableNodes    int
	OxoRatio          float64

	Match *glycosite.Match
}

func (r *Result) fill(m *glycosite.Match, units []*glycan.Glycan) {
	best := m.BestGraph()
	r.Match = m
	r.Score = best.TotalScore
	r.GlycanCount = best.Box.ModCount
	r.TotalComposition = best.Box.Composition()
	r.SiteComposition = glycosite.LocalizedSiteInfo(m, units)
	r.Level = m.Level
	r.HasLevel = true
	r.SiteProbabilities = glycosite.SiteSpecificInfo(m.SiteProbabilities)
	r.Routes = glycosite.AllLocalizationInfo(m.Routes)
	r.ReachableNodes = best.ReachableNodes()
	for _, g := range m.LocalizedGlycans {
		if g.IsLocalized {
			r.LocalizedCount++
		}
	}
}

// Columns renders the Headers fields. A status replaces the score column
// and leaves everything but the paired scan empty; rows without a paired
// scan leave that column empty too.
func (r *Result) Columns() []string {
	cols := EmptyColumns()
	if r.ScanNumber != 0 {
		cols[len(cols)-1] = strconv.Itoa(r.ScanNumber)
	}
	if r.Status != "" {
		cols[0] = r.Status
		return cols
	}
	cols[0] = strconv.FormatFloat(r.Score, 'f', 4, 64)
	cols[1] = strconv.Itoa(r.GlycanCount)
	cols[2] = r.TotalComposition
	cols[3] = r.SiteComposition
	if r.HasLevel {
		cols[4] = r.Level.String()
	}
	cols[5] = r.SiteProbabilities
	cols[6] = strconv.FormatFloat(r.OxoRatio, 'f', 3, 64)
	return cols
}

// EmptyColumns is the placeholder for PSMs that are not localized.
func EmptyColumns() []string {
	return make([]string, len(Headers))
}

// StatusColumns writes only a status, e.g. for a missing paired scan.
func StatusColumns(status string) []string {
	cols := EmptyColumns()
	cols[0] = status
	return cols
}
