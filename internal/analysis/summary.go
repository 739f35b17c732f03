package analysis

import (
	"fmt"
	"io"
	"sort"

	"glycoloc/internal/storage"
)

// Summary counts the outcomes of one run.
type Summary struct {
	Total       int
	Skipped     int // passed through without output
	Localized   int // has a confidence level
	Levels      map[string]int
	Statuses    map[string]int
	Glycans     int // glycans placed across all localized PSMs
	SitesFixed  int // glycans whose site is unambiguous
	MeanOxo     float64
	oxoObserved int
}

// Summarize walks the stored records of a run.
func Summarize(records []storage.Record) *Summary {
	s := &Summary{
		Levels:   make(map[string]int),
		Statuses: make(map[string]int),
	}
	var oxoSum float64
	for _, r := range records {
		s.Total++
		switch {
		case r.Status != "":
			s.Statuses[r.Status]++
		case r.Level == "":
			s.Skipped++
		default:
			s.Localized++
			s.Levels[r.Level]++
			s.Glycans += r.GlycanCount
			s.SitesFixed += r.LocalizedCount
			if r.OxoRatio >= 0 {
				oxoSum += r.OxoRatio
				s.oxoObserved++
			}
		}
	}
	if s.oxoObserved > 0 {
		s.MeanOxo = oxoSum / float64(s.oxoObserved)
	}
	return s
}

// Write prints the summary as aligned text.
func (s *Summary) Write(w io.Writer) {
	fmt.Fprintf(w, "PSMs:       %d\n", s.Total)
	fmt.Fprintf(w, "Skipped:    %d\n", s.Skipped)
	fmt.Fprintf(w, "Localized:  %d (%d/%d glycans site-specific)\n", s.Localized, s.SitesFixed, s.Glycans)
	for _, level := range sortedKeys(s.Levels) {
		fmt.Fprintf(w, "  %-8s %d\n", level, s.Levels[level])
	}
	if len(s.Statuses) > 0 {
		fmt.Fprintln(w, "Not localized:")
		for _, status := range sortedKeys(s.Statuses) {
			fmt.Fprintf(w, "  %s: %d\n", status, s.Statuses[status])
		}
	}
	if s.oxoObserved > 0 {
		fmt.Fprintf(w, "Mean 138/144 ratio: %.3f\n", s.MeanOxo)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
