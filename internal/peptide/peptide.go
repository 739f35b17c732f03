package peptide

import (
	"fmt"
	"strconv"
	"strings"

	"glycoloc/internal/glycan"
)

// Elemental and small-molecule masses.
const (
	HydrogenMass = 1.00782503207
	ProtonMass   = 1.007276466879
	WaterMass    = 18.0105646837
	AmmoniaMass  = 17.0265491015
)

var residueMasses = map[byte]float64{
	'G': 57.02146372,
	'A': 71.03711379,
	'S': 87.03202841,
	'P': 97.05276385,
	'V': 99.06841391,
	'T': 101.04767847,
	'C': 103.00918478,
	'L': 113.08406398,
	'I': 113.08406398,
	'N': 114.04292744,
	'D': 115.02694303,
	'Q': 128.05857751,
	'K': 128.09496302,
	'E': 129.04259309,
	'M': 131.04048491,
	'H': 137.05891186,
	'F': 147.06841391,
	'R': 156.10111103,
	'Y': 163.06332857,
	'W': 186.07931300,
	'U': 150.95363600,
	'O': 237.14772700,
}

// GlycoType selects which motifs contribute candidate sites.
type GlycoType int

const (
	OGlyco GlycoType = iota
	NGlyco
	MixedGlyco
)

func (t GlycoType) String() string {
	switch t {
	case NGlyco:
		return "N"
	case MixedGlyco:
		return "Mixed"
	default:
		return "O"
	}
}

// ParseGlycoType accepts "O", "N" or "Mixed".
func ParseGlycoType(s string) (GlycoType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "o":
		return OGlyco, nil
	case "n":
		return NGlyco, nil
	case "mixed", "n+o", "o+n":
		return MixedGlyco, nil
	}
	return OGlyco, fmt.Errorf("unknown glyco type %q", s)
}

// Peptide is an unmodified backbone plus fixed mass shifts. Mods is keyed
// by 1-based residue position; 0 is the N-terminus and len+1 the C-terminus.
type Peptide struct {
	Sequence string
	Mods     map[int]float64
}

// New validates the sequence.
func New(sequence string, mods map[int]float64) (*Peptide, error) {
	sequence = strings.ToUpper(strings.TrimSpace(sequence))
	if sequence == "" {
		return nil, fmt.Errorf("empty peptide sequence")
	}
	for i := 0; i < len(sequence); i++ {
		if _, ok := residueMasses[sequence[i]]; !ok {
			return nil, fmt.Errorf("unknown residue %q at %d in %s", sequence[i], i+1, sequence)
		}
	}
	if mods == nil {
		mods = map[int]float64{}
	}
	for pos := range mods {
		if pos < 0 || pos > len(sequence)+1 {
			return nil, fmt.Errorf("modification position %d outside %s", pos, sequence)
		}
	}
	return &Peptide{Sequence: sequence, Mods: mods}, nil
}

// Len is the residue count.
func (p *Peptide) Len() int { return len(p.Sequence) }

// ResidueMass includes any modification on that residue. Termini mods are
// folded into the first and last residue.
func (p *Peptide) ResidueMass(pos int) float64 {
	m := residueMasses[p.Sequence[pos-1]] + p.Mods[pos]
	if pos == 1 {
		m += p.Mods[0]
	}
	if pos == len(p.Sequence) {
		m += p.Mods[len(p.Sequence)+1]
	}
	return m
}

// MonoisotopicMass is the neutral peptide mass with its fixed mods.
func (p *Peptide) MonoisotopicMass() float64 {
	m := WaterMass
	for pos := 1; pos <= len(p.Sequence); pos++ {
		m += p.ResidueMass(pos)
	}
	return m
}

// ParseAssignedMods reads MSFragger "Assigned Modifications", e.g.
// "5C(57.0215), N-term(42.0106)".
func ParseAssignedMods(assigned string, sequence string) (map[int]float64, error) {
	mods := map[int]float64{}
	for _, raw := range strings.Split(assigned, ",") {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		open := strings.IndexByte(item, '(')
		closing := strings.LastIndexByte(item, ')')
		if open <= 0 || closing <= open {
			return nil, fmt.Errorf("malformed modification %q", item)
		}
		mass, err := strconv.ParseFloat(item[open+1:closing], 64)
		if err != nil {
			return nil, fmt.Errorf("bad modification mass in %q: %w", item, err)
		}

		where := strings.ToLower(item[:open])
		switch where {
		case "n-term":
			mods[0] += mass
			continue
		case "c-term":
			mods[len(sequence)+1] += mass
			continue
		}

		pos, err := strconv.Atoi(item[:open-1])
		if err != nil {
			return nil, fmt.Errorf("bad modification position in %q: %w", item, err)
		}
		if pos < 1 || pos > len(sequence) {
			return nil, fmt.Errorf("modification %q outside %s", item, sequence)
		}
		mods[pos] += mass
	}
	return mods, nil
}

// PossibleModSites lists 1-based positions that match motif and carry no
// other modification.
func (p *Peptide) PossibleModSites(motif string) []int {
	var sites []int
	seq := p.Sequence
	for i := 0; i < len(seq); i++ {
		pos := i + 1
		if _, taken := p.Mods[pos]; taken {
			continue
		}
		switch motif {
		case glycan.MotifO:
			if seq[i] == 'S' || seq[i] == 'T' {
				sites = append(sites, pos)
			}
		case glycan.MotifN:
			if seq[i] == 'N' && i+2 < len(seq) && seq[i+1] != 'P' && (seq[i+2] == 'S' || seq[i+2] == 'T') {
				sites = append(sites, pos)
			}
		}
	}
	return sites
}

// ModPosMotif merges N- and O-sites for the given glyco type into one
// ascending site list with parallel motifs.
func ModPosMotif(t GlycoType, nSites, oSites []int) ([]int, []string) {
	var sites []int
	var motifs []string
	i, j := 0, 0
	useN := t == NGlyco || t == MixedGlyco
	useO := t == OGlyco || t == MixedGlyco
	if !useN {
		nSites = nil
	}
	if !useO {
		oSites = nil
	}
	for i < len(nSites) || j < len(oSites) {
		if j >= len(oSites) || (i < len(nSites) && nSites[i] < oSites[j]) {
			sites = append(sites, nSites[i])
			motifs = append(motifs, glycan.MotifN)
			i++
			continue
		}
		sites = append(sites, oSites[j])
		motifs = append(motifs, glycan.MotifO)
		j++
	}
	return sites, motifs
}
