package graph

import (
	"glycoloc/internal/glycan"
	"glycoloc/internal/peptide"
)

// LocalFragments returns c/z• masses that fall between site row and site
// row+1. c ions carry the child box, z• ions the rest of the total box.
func LocalFragments(products []peptide.Product, row, col int, g *LocalizationGraph) []float64 {
	lo, hi := g.Sites[row], g.Sites[row+1]
	child := g.Children[col]
	rest := g.Box.Mass - child.Mass

	var out []float64
	for _, p := range products {
		switch p.Type {
		case peptide.C:
			if p.Position >= lo && p.Position < hi {
				out = append(out, p.NeutralMass+child.Mass)
			}
		case peptide.ZDot:
			if p.Position > lo && p.Position <= hi {
				out = append(out, p.NeutralMass+rest)
			}
		}
	}
	return out
}

// UnlocalFragments returns c/z• masses outside the site span. Those before
// the first site carry nothing and those past the last carry the whole box.
func UnlocalFragments(products []peptide.Product, sites []int, box *glycan.ModBox) []float64 {
	first, last := sites[0], sites[len(sites)-1]

	var out []float64
	for _, p := range products {
		switch p.Type {
		case peptide.C:
			if p.Position < first {
				out = append(out, p.NeutralMass)
			}
			if p.Position >= last {
				out = append(out, p.NeutralMass+box.Mass)
			}
		case peptide.ZDot:
			if p.Position > last {
				out = append(out, p.NeutralMass)
			}
			if p.Position <= first {
				out = append(out, p.NeutralMass+box.Mass)
			}
		}
	}
	return out
}

// LocalFragmentsGlycan extends LocalFragments with b/y ions. N-glycans lose
// all but their core HexNAc under collisional activation, so b/y ions are
// emitted bare and with one HexNAc per N-glycan on their side.
func LocalFragmentsGlycan(products []peptide.Product, row, col int, g *LocalizationGraph) []float64 {
	lo, hi := g.Sites[row], g.Sites[row+1]
	child := g.Children[col]
	restN := g.Box.NGlycanCount - child.NGlycanCount

	out := LocalFragments(products, row, col, g)
	for _, p := range products {
		switch p.Type {
		case peptide.B:
			if p.Position >= lo && p.Position < hi {
				out = appendCore(out, p.NeutralMass, child.NGlycanCount)
			}
		case peptide.Y:
			if p.Position > lo && p.Position <= hi {
				out = appendCore(out, p.NeutralMass, restN)
			}
		}
	}
	return out
}

// UnlocalFragmentsGlycan extends UnlocalFragments with b/y ions.
func UnlocalFragmentsGlycan(products []peptide.Product, sites []int, box *glycan.ModBox) []float64 {
	first, last := sites[0], sites[len(sites)-1]

	out := UnlocalFragments(products, sites, box)
	for _, p := range products {
		switch p.Type {
		case peptide.B:
			if p.Position < first {
				out = append(out, p.NeutralMass)
			}
			if p.Position >= last {
				out = appendCore(out, p.NeutralMass, box.NGlycanCount)
			}
		case peptide.Y:
			if p.Position > last {
				out = append(out, p.NeutralMass)
			}
			if p.Position <= first {
				out = appendCore(out, p.NeutralMass, box.NGlycanCount)
			}
		}
	}
	return out
}

func appendCore(out []float64, mass float64, nGlycans int) []float64 {
	out = append(out, mass)
	if nGlycans != 0 {
		out = append(out, mass+float64(nGlycans)*glycan.HexNAcMass)
	}
	return out
}
