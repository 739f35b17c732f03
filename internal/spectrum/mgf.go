package spectrum

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadMGF loads every spectrum of an MGF file keyed by scan number.
func ReadMGF(path string) (map[int]*Scan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mgf: %w", err)
	}
	defer f.Close()

	scans, err := ParseMGF(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return scans, nil
}

type mgfEntry struct {
	title     string
	scan      int
	pepMZ     float64
	charge    int
	rt        float64
	peaks     []Peak
	hasNumber bool
}

// ParseMGF reads BEGIN IONS/END IONS blocks. The scan number comes from
// SCANS= or, failing that, the "name.first.last.charge" TITLE convention.
func ParseMGF(r io.Reader) (map[int]*Scan, error) {
	scans := make(map[int]*Scan)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	var cur *mgfEntry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.EqualFold(line, "BEGIN IONS"):
			cur = &mgfEntry{}
			continue
		case strings.EqualFold(line, "END IONS"):
			if cur == nil {
				return nil, fmt.Errorf("line %d: END IONS without BEGIN IONS", lineNo)
			}
			if !cur.hasNumber {
				n, ok := scanFromTitle(cur.title)
				if !ok {
					return nil, fmt.Errorf("line %d: spectrum %q has no scan number", lineNo, cur.title)
				}
				cur.scan = n
			}
			s := NewScan(cur.scan, cur.pepMZ, cur.charge, cur.peaks)
			s.Title = cur.title
			s.RetentionS = cur.rt
			scans[cur.scan] = s
			cur = nil
			continue
		}
		if cur == nil {
			continue
		}

		if key, value, ok := strings.Cut(line, "="); ok && !isNumberStart(line) {
			if err := cur.set(strings.ToUpper(key), value); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: malformed peak %q", lineNo, line)
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad m/z: %w", lineNo, err)
		}
		intensity, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad intensity: %w", lineNo, err)
		}
		cur.peaks = append(cur.peaks, Peak{MZ: mz, Intensity: intensity})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return scans, nil
}

func (e *mgfEntry) set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "TITLE":
		e.title = value
	case "SCANS":
		first, _, _ := strings.Cut(value, "-")
		n, err := strconv.Atoi(first)
		if err != nil {
			return fmt.Errorf("bad SCANS %q: %w", value, err)
		}
		e.scan = n
		e.hasNumber = true
	case "PEPMASS":
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return fmt.Errorf("empty PEPMASS")
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("bad PEPMASS %q: %w", value, err)
		}
		e.pepMZ = mz
	case "CHARGE":
		first, _, _ := strings.Cut(value, " and ")
		z, err := parseCharge(first)
		if err != nil {
			return err
		}
		e.charge = z
	case "RTINSECONDS":
		rt, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("bad RTINSECONDS %q: %w", value, err)
		}
		e.rt = rt
	}
	return nil
}

func parseCharge(s string) (int, error) {
	s = strings.TrimSpace(s)
	sign := 1
	switch {
	case strings.HasSuffix(s, "+"):
		s = strings.TrimSuffix(s, "+")
	case strings.HasSuffix(s, "-"):
		s = strings.TrimSuffix(s, "-")
		sign = -1
	}
	z, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad CHARGE %q: %w", s, err)
	}
	return sign * z, nil
}

func scanFromTitle(title string) (int, bool) {
	parts := strings.Split(title, ".")
	if len(parts) < 4 {
		return 0, false
	}
	n, err := strconv.Atoi(parts[len(parts)-3])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isNumberStart(line string) bool {
	return line[0] >= '0' && line[0] <= '9'
}
