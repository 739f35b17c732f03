package glycan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// IsotopeSpacing is the averagine spacing used for precursor isotope errors.
const IsotopeSpacing = 1.00235

// ErrNoUnits is returned when a glycan database yields no usable unit.
var ErrNoUnits = errors.New("no glycan units")

// Catalog holds the glycan units of a search and every box built from them.
type Catalog struct {
	Units  []*Glycan
	Boxes  []*ModBox
	masses []float64
}

// Hypothesis pairs a feasible box with the isotope error that explains it.
type Hypothesis struct {
	Isotope int
	Box     *ModBox
}

// NewCatalog builds all boxes of up to maxCount units.
func NewCatalog(units []*Glycan, maxCount int) (*Catalog, error) {
	if len(units) == 0 {
		return nil, ErrNoUnits
	}
	if maxCount < 1 {
		return nil, fmt.Errorf("max glycan count must be positive, got %d", maxCount)
	}
	for i, u := range units {
		if u.ID != i {
			return nil, fmt.Errorf("glycan %s has id %d at index %d", u.Composition, u.ID, i)
		}
	}

	boxes := BuildBoxes(maxCount, units)
	masses := make([]float64, len(boxes))
	for i, b := range boxes {
		masses[i] = b.Mass
	}
	return &Catalog{Units: units, Boxes: boxes, masses: masses}, nil
}

// FeasibleBoxes returns every box whose mass matches deltaMass within
// precursorPpm under one of the isotope errors.
func (c *Catalog) FeasibleBoxes(deltaMass, peptideMass, precursorPpm float64, isotopes []int) []Hypothesis {
	var out []Hypothesis
	for _, iso := range isotopes {
		current := deltaMass - float64(iso)*IsotopeSpacing + peptideMass
		window := current * 1e-6 * precursorPpm
		low := current - window - peptideMass
		high := current + window - peptideMass

		for i := BinarySearchIndex(c.masses, low); i < len(c.masses) && c.masses[i] <= high; i++ {
			out = append(out, Hypothesis{Isotope: iso, Box: c.Boxes[i]})
		}
	}
	return out
}

// LoadGlycans reads one composition per line. Text after '%' or '#' and
// anything after the first tab are ignored. Ids start at firstID so that an
// O-linked and an N-linked database can share one catalog.
func LoadGlycans(path string, motif string, firstID int) ([]*Glycan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open glycan database: %w", err)
	}
	defer f.Close()
	return ParseGlycans(f, motif, firstID)
}

// ParseGlycans assigns ids from firstID in file order. Duplicate
// compositions are kept once.
func ParseGlycans(r io.Reader, motif string, firstID int) ([]*Glycan, error) {
	var units []*Glycan
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexAny(line, "%#"); i >= 0 {
			line = line[:i]
		}
		if i := strings.IndexByte(line, '\t'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		kind, err := ParseComposition(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		g := NewGlycan(firstID+len(units), kind, motif)
		if seen[g.Composition] {
			continue
		}
		seen[g.Composition] = true
		units = append(units, g)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read glycan database: %w", err)
	}
	if len(units) == 0 {
		return nil, ErrNoUnits
	}
	return units, nil
}
