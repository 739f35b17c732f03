package graph

import (
	"math"

	"glycoloc/internal/glycan"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// walkPaths visits every path ending on the terminal node, following the
// predecessor set chosen by sources. visit sees the path as it is built and
// must copy it to keep it.
func walkPaths(g *LocalizationGraph, sources func(*AdjNode) []int, visit func(path []int)) {
	rows, cols := g.Rows(), g.Cols()
	if rows == 0 || cols == 0 {
		return
	}
	path := make([]int, rows)
	path[rows-1] = cols - 1
	if rows == 1 {
		visit(path)
		return
	}

	type frame struct{ row, next int }
	stack := []frame{{row: rows - 1}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		srcs := sources(g.Nodes[top.row][path[top.row]])
		if top.next >= len(srcs) {
			stack = stack[:len(stack)-1]
			continue
		}
		row := top.row - 1
		path[row] = srcs[top.next]
		top.next++

		if row == 0 {
			visit(path)
			continue
		}
		stack = append(stack, frame{row: row})
	}
}

func cumulativeSources(n *AdjNode) []int { return n.CumulativeSources }
func allSources(n *AdjNode) []int        { return n.AllSources }

// AllHighestScorePaths returns every tied-best path as column indices per row.
func AllHighestScorePaths(g *LocalizationGraph) [][]int {
	var paths [][]int
	walkPaths(g, cumulativeSources, func(path []int) {
		paths = append(paths, append([]int(nil), path...))
	})
	return paths
}

// FirstPath follows the first best predecessor from the terminal node. It
// returns nil if the terminal node is unreachable.
func FirstPath(g *LocalizationGraph) []int {
	rows, cols := g.Rows(), g.Cols()
	if rows == 0 || cols == 0 {
		return nil
	}
	path := make([]int, rows)
	path[rows-1] = cols - 1
	for row := rows - 1; row > 0; row-- {
		srcs := g.Nodes[row][path[row]].CumulativeSources
		if len(srcs) == 0 {
			return nil
		}
		path[row-1] = srcs[0]
	}
	return path
}

// AnyOnePath places the box units on the first sites without evidence. It
// is used when no ETD scan can localize anything.
func AnyOnePath(g *LocalizationGraph) *Route {
	r := &Route{BoxID: g.BoxID}
	for i := 0; i < g.Box.ModCount && i < len(g.Sites); i++ {
		r.AddPos(g.Sites[i], g.Box.ModIDs[i], false)
	}
	return r
}

// LocalizedPath turns a column path into placements. Every column change
// between rows places the unit that was added. A placement is localized
// when fragment evidence exists on both sides of its site.
func LocalizedPath(g *LocalizationGraph, path []int) *Route {
	r := &Route{BoxID: g.BoxID}
	if len(path) == 0 {
		return r
	}

	if len(path) == 1 {
		ids := g.Children[path[0]].ModIDs
		if len(ids) > 0 {
			r.AddPos(g.Sites[0], ids[0], g.TotalScore > 0)
		}
		return r
	}

	if first := g.Children[path[0]]; first.ModCount != 0 {
		r.AddPos(g.Sites[0], first.ModIDs[0], g.Nodes[0][path[0]].CurrentCost > 0)
	}

	for i := 1; i < len(path); i++ {
		if path[i] == path[i-1] {
			continue
		}
		left := glycan.MultisetLeft(g.Children[path[i]].ModIDs, g.Children[path[i-1]].ModIDs)
		if len(left) == 0 {
			continue
		}
		localized := g.Nodes[i-1][path[i-1]].CurrentCost > 0 &&
			(g.Nodes[i][path[i]].CurrentCost > 0 || i == len(path)-1)
		r.AddPos(g.Sites[i], left[0], localized)
	}
	return r
}

// AllPathsWithProbability enumerates every feasible route and weights it by
// the inverse chance of scoring that high at random: with n theoretical
// fragments each matching with probability p, a route scoring k gets
// 1/P(X >= floor(k)), X ~ Binomial(n, p).
func AllPathsWithProbability(g *LocalizationGraph, p float64, n int) []*Route {
	var routes []*Route
	walkPaths(g, allSources, func(path []int) {
		k := g.NoLocalCost
		for row := 0; row < len(path)-1; row++ {
			k += g.Nodes[row][path[row]].CurrentCost
		}
		r := LocalizedPath(g, path)
		r.Score = k
		r.LogReversePScore = LogReversePValue(p, n, k)
		r.ReversePScore = math.Exp(r.LogReversePScore)
		routes = append(routes, r)
	})
	return routes
}

// LogReversePValue is -log P(X >= floor(k)) for X ~ Binomial(n, p). k is
// clamped to [0, n] and p to the open unit interval so the result is finite.
func LogReversePValue(p float64, n int, k float64) float64 {
	if n <= 0 {
		return 0
	}
	m := int(math.Floor(k))
	if m <= 0 {
		return 0
	}
	if m > n {
		m = n
	}
	p = math.Min(math.Max(p, 1e-12), 1-1e-12)

	dist := distuv.Binomial{N: float64(n), P: p}
	tail := make([]float64, 0, n-m+1)
	for x := m; x <= n; x++ {
		tail = append(tail, dist.LogProb(float64(x)))
	}
	return -floats.LogSumExp(tail)
}

// SiteSpecificProbability sums route weights per site and glycan. Routes
// leaving a site empty count toward the total only.
func SiteSpecificProbability(routes []*Route, sites []int) map[int][]SiteProbability {
	out := make(map[int][]SiteProbability, len(sites))
	if len(routes) == 0 {
		for _, s := range sites {
			out[s] = nil
		}
		return out
	}

	logs := make([]float64, len(routes))
	for i, r := range routes {
		logs[i] = r.LogReversePScore
	}
	logTotal := floats.LogSumExp(logs)

	for _, site := range sites {
		var probs []SiteProbability
		index := map[int]int{}
		for i, r := range routes {
			gid, ok := glycanAt(r, site)
			if !ok {
				continue
			}
			w := math.Exp(logs[i] - logTotal)
			if k, seen := index[gid]; seen {
				probs[k].Probability += w
				continue
			}
			index[gid] = len(probs)
			probs = append(probs, SiteProbability{GlycanID: gid, Probability: w})
		}
		out[site] = probs
	}
	return out
}

func glycanAt(r *Route, site int) (int, bool) {
	gid, found := 0, false
	for _, m := range r.Mods {
		if m.Site == site {
			gid, found = m.GlycanID, true
		}
	}
	return gid, found
}
