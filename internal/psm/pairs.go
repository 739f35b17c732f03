package psm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadScanPairs reads a FragPipe "scan1<TAB>scan2" pairing table.
func LoadScanPairs(path string) (map[int]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan pairs: %w", err)
	}
	defer f.Close()
	return ParseScanPairs(f)
}

// ParseScanPairs keeps the first child listed for each parent scan.
// Lines that do not start with two integers are skipped.
func ParseScanPairs(r io.Reader) (map[int]int, error) {
	pairs := make(map[int]int)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(fields) < 2 {
			continue
		}
		parent, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		child, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			continue
		}
		if _, ok := pairs[parent]; ok {
			continue
		}
		pairs[parent] = child
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scan pairs: %w", err)
	}
	return pairs, nil
}
