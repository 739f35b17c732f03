package glycan

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FilterRule ties a set of diagnostic oxonium ions to monosaccharide
// minimums. A box holding at least the minimum of any listed kind needs one
// of the ions observed.
type FilterRule struct {
	IonMZs    []float64
	MinCounts map[int]int // kind -> minimum count
}

// Requires reports whether the box is subject to this rule.
func (r FilterRule) Requires(box *ModBox) bool {
	for kind, minCount := range r.MinCounts {
		if box.Kind[kind] >= minCount {
			return true
		}
	}
	return false
}

// PassesOxoniumFilter checks a box against every rule. observed[i] tells
// whether any ion of rules[i] was found in the spectrum.
func PassesOxoniumFilter(rules []FilterRule, observed []bool, box *ModBox) bool {
	for i, r := range rules {
		if i < len(observed) && observed[i] {
			continue
		}
		if r.Requires(box) {
			return false
		}
	}
	return true
}

// LoadOxoniumFilters reads a rule table. The first line is a header; each
// following line is "mz1,mz2<TAB>kind1<TAB>min1<TAB>kind2<TAB>min2..." where
// a kind is a monosaccharide index, name or symbol. Empty pairs are skipped.
func LoadOxoniumFilters(path string) ([]FilterRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open oxonium filter: %w", err)
	}
	defer f.Close()
	return ParseOxoniumFilters(f)
}

// ParseOxoniumFilters is LoadOxoniumFilters over a reader.
func ParseOxoniumFilters(r io.Reader) ([]FilterRule, error) {
	var rules []FilterRule
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}
		line := strings.TrimSpace(strings.ReplaceAll(scanner.Text(), `"`, " "))
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected ions and at least one kind and count, got %d fields", lineNo, len(fields))
		}

		var mzs []float64
		for _, s := range strings.Split(fields[0], ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			mz, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad ion m/z %q: %w", lineNo, s, err)
			}
			mzs = append(mzs, mz)
		}

		counts := make(map[int]int)
		for i := 1; i < len(fields); i += 2 {
			name := strings.TrimSpace(fields[i])
			if name == "" {
				continue
			}
			kind, ok := ruleKind(name)
			if !ok {
				return nil, fmt.Errorf("line %d: unknown monosaccharide %q", lineNo, name)
			}
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("line %d: no minimum count for %q", lineNo, name)
			}
			minCount, err := strconv.Atoi(strings.TrimSpace(fields[i+1]))
			if err != nil {
				return nil, fmt.Errorf("line %d: bad minimum count: %w", lineNo, err)
			}
			counts[kind] = minCount
		}
		if len(counts) == 0 {
			return nil, fmt.Errorf("line %d: no monosaccharide rule", lineNo)
		}
		rules = append(rules, FilterRule{IonMZs: mzs, MinCounts: counts})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read oxonium filter: %w", err)
	}
	return rules, nil
}

// ruleKind accepts a kind index as well as a name or symbol.
func ruleKind(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0 && n < NumKinds
	}
	if kind, ok := kindByName(s); ok {
		return kind, true
	}
	if len(s) == 1 {
		return kindBySymbol(s[0])
	}
	return 0, false
}

// IonSets returns the ion lists of the rules in order, ready for a spectrum
// lookup.
func IonSets(rules []FilterRule) [][]float64 {
	sets := make([][]float64, len(rules))
	for i, r := range rules {
		sets[i] = r.IonMZs
	}
	return sets
}
