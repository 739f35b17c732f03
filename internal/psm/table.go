package psm

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Column names read from an MSFragger psm.tsv.
const (
	ColDeltaMass      = "Delta Mass"
	ColAssignedMods   = "Assigned Modifications"
	ColPeptide        = "Peptide"
	ColModifiedPep    = "Modified Peptide"
	ColSpectrum       = "Spectrum"
	ColObservedMods   = "Observed Modifications"
	ColCalibratedMZ   = "Calibrated Observed M/Z"
	ColObservedMZ     = "Observed M/Z"
	ColLocalizerScore = "OPair Score"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing column")

// Table is a PSM table held in memory as split rows.
type Table struct {
	Path    string
	Headers []string
	Rows    [][]string

	DeltaMassCol   int
	AssignedModCol int
	PeptideCol     int
	SpectrumCol    int
	ObservedModCol int
	PrecursorMZCol int
}

// Load reads a tab-separated PSM table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open psm table: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	t := &Table{Path: path}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if t.Headers == nil {
			t.Headers = strings.Split(line, "\t")
			continue
		}
		if line == "" {
			continue
		}
		t.Rows = append(t.Rows, strings.Split(line, "\t"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read psm table: %w", err)
	}
	if t.Headers == nil {
		return nil, fmt.Errorf("empty psm table %s", path)
	}
	if err := t.indexColumns(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) indexColumns() error {
	required := map[string]*int{
		ColDeltaMass:    &t.DeltaMassCol,
		ColAssignedMods: &t.AssignedModCol,
		ColPeptide:      &t.PeptideCol,
		ColSpectrum:     &t.SpectrumCol,
		ColObservedMods: &t.ObservedModCol,
	}
	for name, dst := range required {
		*dst = t.ColumnIndex(name)
		if *dst < 0 {
			return fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	t.PrecursorMZCol = t.ColumnIndex(ColCalibratedMZ)
	if t.PrecursorMZCol < 0 {
		t.PrecursorMZCol = t.ColumnIndex(ColObservedMZ)
	}
	if t.PrecursorMZCol < 0 {
		return fmt.Errorf("%w: %q", ErrMissingColumn, ColObservedMZ)
	}
	return nil
}

// ColumnIndex returns -1 for an unknown column.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// HasLocalizerColumns reports whether an earlier run already added output.
func (t *Table) HasLocalizerColumns() bool {
	return t.ColumnIndex(ColLocalizerScore) >= 0
}

// Row is a parsed view of one PSM line.
type Row struct {
	Index        int
	Spectrum     string
	RawFile      string
	ScanNum      int
	Charge       int
	Peptide      string
	AssignedMods string
	DeltaMass    float64
	PrecursorMZ  float64
}

// Unmodified reports a delta mass too small to be a glycan.
func (r Row) Unmodified() bool {
	return r.DeltaMass > -1.5 && r.DeltaMass < 3.5
}

// Parse reads the fields of row i.
func (t *Table) Parse(i int) (Row, error) {
	fields := t.Rows[i]
	get := func(col int) string {
		if col < len(fields) {
			return fields[col]
		}
		return ""
	}

	r := Row{
		Index:        i,
		Spectrum:     get(t.SpectrumCol),
		Peptide:      get(t.PeptideCol),
		AssignedMods: get(t.AssignedModCol),
	}
	var err error
	if r.DeltaMass, err = strconv.ParseFloat(get(t.DeltaMassCol), 64); err != nil {
		return r, fmt.Errorf("row %d: bad delta mass: %w", i+1, err)
	}
	if r.PrecursorMZ, err = strconv.ParseFloat(get(t.PrecursorMZCol), 64); err != nil {
		return r, fmt.Errorf("row %d: bad precursor m/z: %w", i+1, err)
	}
	if r.RawFile, r.ScanNum, r.Charge, err = ParseSpectrum(r.Spectrum); err != nil {
		return r, fmt.Errorf("row %d: %w", i+1, err)
	}
	return r, nil
}

// ParseSpectrum splits "run.scan.scan.charge".
func ParseSpectrum(spectrum string) (raw string, scan, charge int, err error) {
	parts := strings.Split(spectrum, ".")
	if len(parts) < 4 {
		return "", 0, 0, fmt.Errorf("malformed spectrum name %q", spectrum)
	}
	raw = strings.Join(parts[:len(parts)-3], ".")
	if scan, err = strconv.Atoi(parts[len(parts)-3]); err != nil {
		return "", 0, 0, fmt.Errorf("bad scan in %q: %w", spectrum, err)
	}
	if charge, err = strconv.Atoi(parts[len(parts)-1]); err != nil {
		return "", 0, 0, fmt.Errorf("bad charge in %q: %w", spectrum, err)
	}
	return raw, scan, charge, nil
}

// EditLine inserts the localizer columns after "Observed Modifications",
// or overwrites them in place when the table already has them.
func (t *Table) EditLine(line []string, output []string, overwrite bool) []string {
	at := t.ObservedModCol + 1
	if overwrite {
		out := append([]string(nil), line...)
		for len(out) < at+len(output) {
			out = append(out, "")
		}
		copy(out[at:], output)
		return out
	}
	out := make([]string, 0, len(line)+len(output))
	if at > len(line) {
		at = len(line)
	}
	out = append(out, line[:at]...)
	out = append(out, output...)
	return append(out, line[at:]...)
}

// Write stores the header and rows joined by tabs.
func Write(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
