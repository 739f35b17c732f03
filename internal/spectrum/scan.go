package spectrum

import (
	"math"
	"sort"
)

// ProtonMass converts singly charged m/z to neutral mass.
const ProtonMass = 1.007276466879

// Oxonium ions used for the O/N ratio.
const (
	Oxonium138 = 138.05495
	Oxonium144 = 144.06552
)

// Peak is one centroid.
type Peak struct {
	MZ        float64
	Intensity float64
}

// Envelope is a deconvoluted isotopic envelope.
type Envelope struct {
	MonoisotopicMass float64
	Charge           int
	Peaks            []Peak
}

// Intensity sums the envelope peaks.
func (e Envelope) Intensity() float64 {
	sum := 0.0
	for _, p := range e.Peaks {
		sum += p.Intensity
	}
	return sum
}

// Scan is the evidence for one MS/MS spectrum.
type Scan struct {
	ScanNumber  int
	PrecursorMZ float64
	Charge      int
	RetentionS  float64
	Title       string

	peaks     []Peak
	envelopes []Envelope
	masses    []float64
	tic       float64
}

// NewScan sorts the centroids and treats each one as a singly charged
// envelope.
func NewScan(scanNumber int, precursorMZ float64, charge int, peaks []Peak) *Scan {
	envs := make([]Envelope, len(peaks))
	for i, p := range peaks {
		envs[i] = Envelope{MonoisotopicMass: p.MZ - ProtonMass, Charge: 1, Peaks: []Peak{p}}
	}
	return NewScanWithEnvelopes(scanNumber, precursorMZ, charge, peaks, envs)
}

// NewScanWithEnvelopes keeps externally deconvoluted envelopes.
func NewScanWithEnvelopes(scanNumber int, precursorMZ float64, charge int, peaks []Peak, envelopes []Envelope) *Scan {
	ps := append([]Peak(nil), peaks...)
	sort.Slice(ps, func(i, j int) bool { return ps[i].MZ < ps[j].MZ })
	es := append([]Envelope(nil), envelopes...)
	sort.Slice(es, func(i, j int) bool { return es[i].MonoisotopicMass < es[j].MonoisotopicMass })

	s := &Scan{
		ScanNumber:  scanNumber,
		PrecursorMZ: precursorMZ,
		Charge:      charge,
		peaks:       ps,
		envelopes:   es,
		masses:      make([]float64, len(es)),
	}
	for i, e := range es {
		s.masses[i] = e.MonoisotopicMass
	}
	for _, p := range ps {
		s.tic += p.Intensity
	}
	return s
}

// Peaks returns the centroids sorted by m/z.
func (s *Scan) Peaks() []Peak { return s.peaks }

// PrecursorCharge is the precursor charge state.
func (s *Scan) PrecursorCharge() int { return s.Charge }

// TotalIonCurrent sums all centroid intensities.
func (s *Scan) TotalIonCurrent() float64 { return s.tic }

// PrecursorMass is the neutral precursor mass.
func (s *Scan) PrecursorMass() float64 {
	return (s.PrecursorMZ - ProtonMass) * float64(s.Charge)
}

// ClosestEnvelope returns the envelope nearest to mass.
func (s *Scan) ClosestEnvelope(mass float64) (Envelope, bool) {
	i := closestIndex(s.masses, mass)
	if i < 0 {
		return Envelope{}, false
	}
	return s.envelopes[i], true
}

// ClosestPeak returns the centroid nearest to mz.
func (s *Scan) ClosestPeak(mz float64) (Peak, bool) {
	if len(s.peaks) == 0 {
		return Peak{}, false
	}
	i := sort.Search(len(s.peaks), func(i int) bool { return s.peaks[i].MZ >= mz })
	switch {
	case i == 0:
		return s.peaks[0], true
	case i == len(s.peaks):
		return s.peaks[i-1], true
	case mz-s.peaks[i-1].MZ <= s.peaks[i].MZ-mz:
		return s.peaks[i-1], true
	default:
		return s.peaks[i], true
	}
}

func closestIndex(sorted []float64, v float64) int {
	if len(sorted) == 0 {
		return -1
	}
	i := sort.SearchFloat64s(sorted, v)
	if i == 0 {
		return 0
	}
	if i == len(sorted) {
		return i - 1
	}
	if v-sorted[i-1] <= sorted[i]-v {
		return i - 1
	}
	return i
}

// FindPeak returns the intensity of the centroid matching mz, if any.
func (s *Scan) FindPeak(mz float64, tol Tolerance) (float64, bool) {
	p, ok := s.ClosestPeak(mz)
	if !ok || !tol.Within(p.MZ, mz) {
		return 0, false
	}
	return p.Intensity, true
}

// FindOxoniums reports, per ion set, whether any ion of the set is present.
func (s *Scan) FindOxoniums(ionSets [][]float64, tol Tolerance) []bool {
	found := make([]bool, len(ionSets))
	for i, set := range ionSets {
		for _, mz := range set {
			if _, ok := s.FindPeak(mz, tol); ok {
				found[i] = true
				break
			}
		}
	}
	return found
}

// OxoRatio is intensity(138)/intensity(144). It is -1 when the 144 ion is
// missing and 0 when only the 138 ion is missing.
func (s *Scan) OxoRatio(tol Tolerance) float64 {
	den, ok := s.FindPeak(Oxonium144, tol)
	if !ok || den == 0 {
		return -1
	}
	num, _ := s.FindPeak(Oxonium138, tol)
	return num / den
}

// RandomMatchProbability is the chance that a theoretical fragment hits a
// peak at random: peak count times the tolerance width at 1000 Da over the
// m/z range of the scan.
func (s *Scan) RandomMatchProbability(tol Tolerance) float64 {
	if len(s.peaks) < 2 {
		return 0
	}
	width := s.peaks[len(s.peaks)-1].MZ - s.peaks[0].MZ
	if width <= 0 {
		return 0
	}
	p := float64(len(s.peaks)) * tol.Width(1000) / width
	return math.Min(p, 1)
}
