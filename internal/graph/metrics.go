package graph

// LocalizedCount counts placements backed by fragment evidence.
func (r *Route) LocalizedCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, m := range r.Mods {
		if m.IsLocalized {
			n++
		}
	}
	return n
}

// ReachableNodes counts nodes some full path can pass through on the way
// back from the terminal node.
func (g *LocalizationGraph) ReachableNodes() int {
	if g.Terminal() == nil {
		return 0
	}
	seen := map[[2]int]bool{{g.Rows() - 1, g.Cols() - 1}: true}
	frontier := []int{g.Cols() - 1}
	for row := g.Rows() - 1; row > 0; row-- {
		var next []int
		for _, col := range frontier {
			for _, prev := range g.Nodes[row][col].AllSources {
				key := [2]int{row - 1, prev}
				if seen[key] {
					continue
				}
				seen[key] = true
				next = append(next, prev)
			}
		}
		frontier = next
	}
	return len(seen)
}
