package glycan

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Monosaccharide kinds. The order is the index into every Kind vector.
const (
	Hex = iota
	HexNAc
	NeuAc
	NeuGc
	Fuc
	Phospho
	Sulfo
	Na
	Acetyl
	Xylose
	Succinyl
	Formyl
	NumKinds
)

// Attachment motifs understood by the localization graph.
const (
	MotifO = "S/T"
	MotifN = "Nxs/t"
)

// HexNAcMass is the core HexNAc left on an N-glycosite after HCD.
const HexNAcMass = 203.0793725

// Monosaccharide describes one building block of a glycan composition.
type Monosaccharide struct {
	Name   string
	Symbol byte
	Mass   float64
}

// Monosaccharides is indexed by kind.
var Monosaccharides = [NumKinds]Monosaccharide{
	Hex:      {Name: "Hex", Symbol: 'H', Mass: 162.0528234},
	HexNAc:   {Name: "HexNAc", Symbol: 'N', Mass: 203.0793725},
	NeuAc:    {Name: "NeuAc", Symbol: 'A', Mass: 291.0954165},
	NeuGc:    {Name: "NeuGc", Symbol: 'G', Mass: 307.0903311},
	Fuc:      {Name: "Fuc", Symbol: 'F', Mass: 146.0579088},
	Phospho:  {Name: "Phospho", Symbol: 'P', Mass: 79.9663304},
	Sulfo:    {Name: "Sulfo", Symbol: 'S', Mass: 79.9568149},
	Na:       {Name: "Na", Symbol: 'Y', Mass: 21.9819442},
	Acetyl:   {Name: "Acetyl", Symbol: 'C', Mass: 42.0105647},
	Xylose:   {Name: "Xylose", Symbol: 'X', Mass: 132.0422587},
	Succinyl: {Name: "Succinyl", Symbol: 'U', Mass: 100.0160439},
	Formyl:   {Name: "Formyl", Symbol: 'M', Mass: 27.9949146},
}

// Glycan is a single modification unit that can sit on one residue.
type Glycan struct {
	ID          int
	Composition string
	Mass        float64
	Kind        []int
	Motif       string
}

// NewGlycan builds a unit from a kind vector.
func NewGlycan(id int, kind []int, motif string) *Glycan {
	k := make([]int, NumKinds)
	copy(k, kind)
	mass := 0.0
	for i, c := range k {
		mass += float64(c) * Monosaccharides[i].Mass
	}
	return &Glycan{
		ID:          id,
		Composition: CompositionString(k),
		Mass:        mass,
		Kind:        k,
		Motif:       motif,
	}
}

// CompositionString renders a kind vector as e.g. "H1N1A1".
func CompositionString(kind []int) string {
	var sb strings.Builder
	for i, c := range kind {
		if c == 0 || i >= NumKinds {
			continue
		}
		sb.WriteByte(Monosaccharides[i].Symbol)
		sb.WriteString(strconv.Itoa(c))
	}
	return sb.String()
}

// ParseComposition accepts both the long form "HexNAc(1)Hex(1)" and the
// symbol shorthand "N1H1".
func ParseComposition(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty composition")
	}
	kind := make([]int, NumKinds)
	if strings.Contains(s, "(") {
		rest := s
		for rest != "" {
			open := strings.IndexByte(rest, '(')
			closing := strings.IndexByte(rest, ')')
			if open <= 0 || closing < open {
				return nil, fmt.Errorf("malformed composition %q", s)
			}
			name := rest[:open]
			k, ok := kindByName(name)
			if !ok {
				return nil, fmt.Errorf("unknown monosaccharide %q in %q", name, s)
			}
			n, err := strconv.Atoi(rest[open+1 : closing])
			if err != nil {
				return nil, fmt.Errorf("bad count for %s in %q: %w", name, s, err)
			}
			kind[k] += n
			rest = rest[closing+1:]
		}
		return kind, nil
	}

	i := 0
	for i < len(s) {
		k, ok := kindBySymbol(s[i])
		if !ok {
			return nil, fmt.Errorf("unknown monosaccharide symbol %q in %q", s[i], s)
		}
		j := i + 1
		for j < len(s) && unicode.IsDigit(rune(s[j])) {
			j++
		}
		n := 1
		if j > i+1 {
			v, err := strconv.Atoi(s[i+1 : j])
			if err != nil {
				return nil, fmt.Errorf("bad count in %q: %w", s, err)
			}
			n = v
		}
		kind[k] += n
		i = j
	}
	return kind, nil
}

func kindByName(name string) (int, bool) {
	for i, m := range Monosaccharides {
		if strings.EqualFold(m.Name, name) {
			return i, true
		}
	}
	return 0, false
}

func kindBySymbol(b byte) (int, bool) {
	for i, m := range Monosaccharides {
		if m.Symbol == b {
			return i, true
		}
	}
	return 0, false
}
