package graph

import "glycoloc/internal/spectrum"

// Evidence is the observed spectrum a graph is scored against.
type Evidence interface {
	ClosestEnvelope(mass float64) (spectrum.Envelope, bool)
	PrecursorCharge() int
	TotalIonCurrent() float64
}

// CalculateCost adds 1 + relative intensity for every fragment whose
// closest envelope is within tolerance and not above the precursor charge.
func CalculateCost(ev Evidence, tol spectrum.Tolerance, fragments []float64) float64 {
	tic := ev.TotalIonCurrent()
	score := 0.0
	for _, f := range fragments {
		env, ok := ev.ClosestEnvelope(f)
		if !ok {
			continue
		}
		if !tol.Within(env.MonoisotopicMass, f) || env.Charge > ev.PrecursorCharge() {
			continue
		}
		score++
		if tic > 0 {
			score += env.Intensity() / tic
		}
	}
	return score
}

// ScanCost binds CalculateCost to one scan for LocalizeMod.
func ScanCost(ev Evidence, tol spectrum.Tolerance) CostFunc {
	return func(fragments []float64) float64 {
		return CalculateCost(ev, tol, fragments)
	}
}
