package storage

import (
	"sort"

	"glycoloc/internal/graph"
	"glycoloc/internal/localizer"
)

// NewRecord flattens a localizer result. A nil result means the PSM was
// passed through without output.
func NewRecord(row int, spectrum, peptide string, r *localizer.Result) Record {
	rec := Record{Row: row, Spectrum: spectrum, Peptide: peptide}
	if r == nil {
		return rec
	}
	rec.PairedScan = r.ScanNumber
	rec.Status = r.Status
	if r.Status != "" {
		return rec
	}
	rec.Score = r.Score
	rec.GlycanCount = r.GlycanCount
	rec.Composition = r.TotalComposition
	rec.SiteComposition = r.SiteComposition
	if r.HasLevel {
		rec.Level = r.Level.String()
	}
	rec.Routes = r.Routes
	rec.LocalizedCount = r.LocalizedCount
	rec.ReachableNodes = r.ReachableNodes
	rec.OxoRatio = r.OxoRatio

	if r.Match == nil {
		return rec
	}
	sites := make([]int, 0, len(r.Match.SiteProbabilities))
	for site := range r.Match.SiteProbabilities {
		sites = append(sites, site)
	}
	sort.Ints(sites)
	for _, site := range sites {
		probs := append([]graph.SiteProbability(nil), r.Match.SiteProbabilities[site]...)
		sort.Slice(probs, func(i, j int) bool { return probs[i].GlycanID < probs[j].GlycanID })
		for _, sp := range probs {
			rec.Probabilities = append(rec.Probabilities, SiteProbability{
				Site:        site,
				GlycanID:    sp.GlycanID,
				Probability: sp.Probability,
			})
		}
	}
	return rec
}
