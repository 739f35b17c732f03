package graph

import (
	"glycoloc/internal/glycan"
	"glycoloc/internal/peptide"
)

// LocalizationGraph is the site x child-box matrix of one total box.
// Rows follow Sites; columns follow Children, empty box first and the full
// box last.
type LocalizationGraph struct {
	Nodes    [][]*AdjNode
	Sites    []int
	Motifs   []string
	BoxID    int
	Box      *glycan.ModBox
	Children []*glycan.ModBox

	// NoLocalCost scores ions outside the site span; TotalScore is the best
	// path plus NoLocalCost. Both accumulate over LocalizeMod calls.
	NoLocalCost float64
	TotalScore  float64
}

// CostFunc scores a list of theoretical fragment masses against evidence.
type CostFunc func(fragments []float64) float64

// LocalFragmentFunc returns the fragments that tell row from row+1 when
// the child box in col is placed up to row.
type LocalFragmentFunc func(products []peptide.Product, row, col int, g *LocalizationGraph) []float64

// UnlocalFragmentFunc returns the fragments outside the site span.
type UnlocalFragmentFunc func(products []peptide.Product, sites []int, box *glycan.ModBox) []float64

// New allocates a zeroed graph.
func New(sites []int, motifs []string, box *glycan.ModBox, children []*glycan.ModBox, boxID int) *LocalizationGraph {
	nodes := make([][]*AdjNode, len(sites))
	for i := range sites {
		nodes[i] = make([]*AdjNode, len(children))
		for j, child := range children {
			nodes[i][j] = &AdjNode{Row: i, Col: j, Site: sites[i], Box: child}
		}
	}
	return &LocalizationGraph{
		Nodes:    nodes,
		Sites:    sites,
		Motifs:   motifs,
		BoxID:    boxID,
		Box:      box,
		Children: children,
	}
}

// Rows is the number of candidate sites.
func (g *LocalizationGraph) Rows() int { return len(g.Nodes) }

// Cols is the number of child boxes.
func (g *LocalizationGraph) Cols() int { return len(g.Children) }

// Terminal is the bottom-right node every full path ends on.
func (g *LocalizationGraph) Terminal() *AdjNode {
	if g.Rows() == 0 || g.Cols() == 0 {
		return nil
	}
	return g.Nodes[g.Rows()-1][g.Cols()-1]
}

// LocalizeMod runs one forward pass of the dynamic program with the fragment
// evidence scored by cost. It may be called again with another scan's cost
// function; scores then accumulate on the same graph.
func LocalizeMod(g *LocalizationGraph, cost CostFunc, products []peptide.Product, local LocalFragmentFunc, unlocal UnlocalFragmentFunc) {
	rows, cols := g.Rows(), g.Cols()
	if rows == 0 || cols == 0 {
		return
	}
	satisfy := BoxSatisfyBox(g.Children)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !BoxSatisfyModPos(g.Motifs, i, g.Box, g.Children[j]) {
				continue
			}
			node := g.Nodes[i][j]
			node.Valid = true

			c := 0.0
			if i != rows-1 {
				c = cost(local(products, i, j, g))
			}
			node.CurrentCost += c

			if i == 0 {
				node.CumulativeCost += c
				continue
			}

			best := node.CumulativeCost
			for prej := 0; prej <= j; prej++ {
				if !satisfy[j][prej] {
					continue
				}
				prev := g.Nodes[i-1][prej]
				if !prev.Valid || (i-1 != 0 && len(prev.AllSources) == 0) {
					continue
				}
				node.AllSources = addSource(node.AllSources, prej)

				candidate := c + prev.CumulativeCost
				if candidate > best {
					node.CumulativeSources = append(node.CumulativeSources[:0], prej)
					best = candidate
				} else if candidate == best {
					node.CumulativeSources = addSource(node.CumulativeSources, prej)
				}
			}
			node.CumulativeCost += best
		}
	}

	noLocal := cost(unlocal(products, g.Sites, g.Box))
	g.NoLocalCost += noLocal
	g.TotalScore += g.Terminal().CumulativeCost + noLocal
}

// BoxSatisfyBox[j][prej] tells whether child prej on the previous row may
// precede child j: at most one more unit, and prej's units all inside j.
func BoxSatisfyBox(children []*glycan.ModBox) [][]bool {
	out := make([][]bool, len(children))
	for i, ci := range children {
		out[i] = make([]bool, len(children))
		for j := 0; j <= i; j++ {
			cj := children[j]
			if ci.ModCount <= cj.ModCount+1 && (cj.ModCount == 0 || glycan.MultisetContains(ci.ModIDs, cj.ModIDs)) {
				out[i][j] = true
			}
		}
	}
	return out
}

// BoxSatisfyModPos checks that sites 0..row can carry the child box and the
// remaining sites can carry the rest of the total box.
func BoxSatisfyModPos(motifs []string, row int, box, child *glycan.ModBox) bool {
	left := motifs[:row+1]
	right := motifs[row+1:]

	if !glycan.MotifsContain(left, child.Motifs) {
		return false
	}
	if !glycan.MotifsContain(box.Motifs, child.Motifs) {
		return false
	}
	rest := glycan.MotifsLeft(box.Motifs, child.Motifs)
	return glycan.MotifsContain(right, rest)
}
