package glycosite

import (
	"fmt"
	"sort"
	"strings"

	"glycoloc/internal/glycan"
	"glycoloc/internal/graph"
)

// MaxReportedRoutes caps AllLocalizationInfo.
const MaxReportedRoutes = 10

// AllLocalizationInfo renders up to MaxReportedRoutes routes as
// {@box[site-glycan,...]} followed by the total when truncated.
func AllLocalizationInfo(routes []*graph.Route) string {
	if len(routes) == 0 {
		return ""
	}
	var sb strings.Builder
	shown := min(len(routes), MaxReportedRoutes)
	for _, r := range routes[:shown] {
		parts := make([]string, len(r.Mods))
		for i, m := range r.Mods {
			parts[i] = fmt.Sprintf("%d-%d", m.Site, m.GlycanID)
		}
		fmt.Fprintf(&sb, "{@%d[%s]}", r.BoxID, strings.Join(parts, ","))
	}
	if len(routes) > shown {
		fmt.Fprintf(&sb, "... In Total:%d Paths", len(routes))
	}
	return sb.String()
}

// SiteSpecificInfo renders {@site[glycan,prob]...} in site order.
func SiteSpecificInfo(probs map[int][]graph.SiteProbability) string {
	if probs == nil {
		return ""
	}
	sites := make([]int, 0, len(probs))
	for s := range probs {
		sites = append(sites, s)
	}
	sort.Ints(sites)

	var sb strings.Builder
	for _, s := range sites {
		fmt.Fprintf(&sb, "{@%d", s)
		for _, sp := range probs[s] {
			fmt.Fprintf(&sb, "[%d,%.3f]", sp.GlycanID, sp.Probability)
		}
		sb.WriteString("}")
	}
	return sb.String()
}

// LocalizedSiteInfo renders [site,composition,prob] for localized glycans.
// Without probabilities it falls back to the placements of the best route.
func LocalizedSiteInfo(m *Match, units []*glycan.Glycan) string {
	var sb strings.Builder
	if m.SiteProbabilities != nil {
		for _, g := range m.LocalizedGlycans {
			if !g.IsLocalized {
				continue
			}
			fmt.Fprintf(&sb, "[%d,%s,%.3f]", g.Site, units[g.GlycanID].Composition, m.Probability(g.Site, g.GlycanID))
		}
		return sb.String()
	}
	if len(m.Routes) == 0 {
		return ""
	}
	for _, mod := range m.Routes[0].Mods {
		fmt.Fprintf(&sb, "[%d,%s]", mod.Site, units[mod.GlycanID].Composition)
	}
	return sb.String()
}
