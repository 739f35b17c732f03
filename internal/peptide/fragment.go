package peptide

import (
	"fmt"
	"strings"
)

// ProductType names a backbone fragment series.
type ProductType int

const (
	B ProductType = iota
	Y
	C
	ZDot
)

func (t ProductType) String() string {
	switch t {
	case B:
		return "b"
	case Y:
		return "y"
	case C:
		return "c"
	default:
		return "zDot"
	}
}

// NTerminal reports whether the series keeps the N-terminus.
func (t ProductType) NTerminal() bool { return t == B || t == C }

// Dissociation selects the fragment series generated for a scan.
type Dissociation int

const (
	HCD Dissociation = iota
	CID
	ETD
	EThcD
)

func (d Dissociation) String() string {
	return [...]string{"HCD", "CID", "ETD", "EThcD"}[d]
}

// HasETD reports whether electron-driven c/z• ions are expected.
func (d Dissociation) HasETD() bool { return d == ETD || d == EThcD }

// ParseDissociation is case-insensitive.
func ParseDissociation(s string) (Dissociation, error) {
	for d := HCD; d <= EThcD; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return HCD, fmt.Errorf("unknown dissociation type %q", s)
}

func (d Dissociation) series() []ProductType {
	switch d {
	case ETD:
		return []ProductType{C, Y, ZDot}
	case EThcD:
		return []ProductType{B, Y, C, ZDot}
	default:
		return []ProductType{B, Y}
	}
}

// Product is a theoretical neutral fragment. Position is the last residue
// kept for N-terminal series and the first residue kept for C-terminal
// series, both 1-based.
type Product struct {
	Type           ProductType
	NeutralMass    float64
	FragmentNumber int
	Position       int
}

const zDotShift = WaterMass - AmmoniaMass + HydrogenMass

// Fragment generates the products of d. c ions N-terminal to proline and z•
// ions starting at proline are not formed; the full-length z• ion is.
func (p *Peptide) Fragment(d Dissociation) []Product {
	n := p.Len()
	prefix := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		prefix[i] = prefix[i-1] + p.ResidueMass(i)
	}
	total := prefix[n]

	var products []Product
	for _, t := range d.series() {
		switch t {
		case B:
			for k := 1; k < n; k++ {
				products = append(products, Product{Type: B, NeutralMass: prefix[k], FragmentNumber: k, Position: k})
			}
		case C:
			for k := 1; k < n; k++ {
				if p.Sequence[k] == 'P' {
					continue
				}
				products = append(products, Product{Type: C, NeutralMass: prefix[k] + AmmoniaMass, FragmentNumber: k, Position: k})
			}
		case Y:
			for k := 1; k < n; k++ {
				pos := n - k + 1
				products = append(products, Product{Type: Y, NeutralMass: total - prefix[pos-1] + WaterMass, FragmentNumber: k, Position: pos})
			}
		case ZDot:
			for k := 1; k <= n; k++ {
				pos := n - k + 1
				if k < n && p.Sequence[pos-1] == 'P' {
					continue
				}
				products = append(products, Product{Type: ZDot, NeutralMass: total - prefix[pos-1] + zDotShift, FragmentNumber: k, Position: pos})
			}
		}
	}
	return products
}

// FilterTypes keeps products of the given series.
func FilterTypes(products []Product, types ...ProductType) []Product {
	var out []Product
	for _, pr := range products {
		for _, t := range types {
			if pr.Type == t {
				out = append(out, pr)
				break
			}
		}
	}
	return out
}
