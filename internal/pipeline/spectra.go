package pipeline

import (
	"fmt"
	"path/filepath"
	"sync"

	"glycoloc/internal/crawler"
	"glycoloc/internal/psm"
	"glycoloc/internal/spectrum"
)

// rawSpectra is everything loaded for one raw file.
type rawSpectra struct {
	once  sync.Once
	scans map[int]*spectrum.Scan
	pairs map[int]int
	err   error
}

// spectraCache loads each raw file on first use and shares it between
// workers.
type spectraCache struct {
	mu      sync.Mutex
	crawl   *crawler.Crawler
	rawDir  string
	pairs   map[int]int // configured scan-pair table, nil when per raw file
	entries map[string]*rawSpectra
}

func newSpectraCache(crawl *crawler.Crawler, rawDir string, pairs map[int]int) *spectraCache {
	return &spectraCache{
		crawl:   crawl,
		rawDir:  rawDir,
		pairs:   pairs,
		entries: make(map[string]*rawSpectra),
	}
}

func (c *spectraCache) get(rawBase string) *rawSpectra {
	c.mu.Lock()
	e, ok := c.entries[rawBase]
	if !ok {
		e = &rawSpectra{}
		c.entries[rawBase] = e
	}
	c.mu.Unlock()

	e.once.Do(func() { e.scans, e.pairs, e.err = c.load(rawBase) })
	return e
}

func (c *spectraCache) load(rawBase string) (map[int]*spectrum.Scan, map[int]int, error) {
	file, ok := c.crawl.Locate(rawBase)
	if !ok {
		return nil, nil, fmt.Errorf("no MGF or mzML found for file %s, PSMs from this file will NOT be localized", rawBase)
	}
	if !file.Readable() {
		return nil, nil, fmt.Errorf("only mzML found for file %s (%s), convert it to MGF to localize these PSMs", rawBase, filepath.Base(file.Path))
	}
	scans, err := spectrum.ReadMGF(file.Path)
	if err != nil {
		return nil, nil, err
	}

	pairs := c.pairs
	if pairs == nil {
		path, ok := c.crawl.ScanPairs(rawBase)
		if !ok {
			path = filepath.Join(c.rawDir, rawBase+".pairs")
		}
		if pairs, err = psm.LoadScanPairs(path); err != nil {
			return nil, nil, fmt.Errorf("no scan pairs for file %s: %w", rawBase, err)
		}
	}
	return scans, pairs, nil
}
