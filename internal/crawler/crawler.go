package crawler

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Spectrum file kinds, in order of preference.
const (
	KindCalibratedMGF  = "calibrated_mgf"
	KindMGF            = "mgf"
	KindCalibratedMzML = "calibrated_mzml"
	KindMzML           = "mzml"
)

var suffixes = []struct {
	suffix string
	kind   string
}{
	{"_calibrated.mgf", KindCalibratedMGF},
	{"_calibrated.mzml", KindCalibratedMzML},
	{".mgf", KindMGF},
	{".mzml", KindMzML},
}

// SpectrumFile is one spectrum file found for a raw file.
type SpectrumFile struct {
	Path string
	Kind string
}

// Readable reports whether the file can be loaded as MGF.
func (f SpectrumFile) Readable() bool {
	return f.Kind == KindCalibratedMGF || f.Kind == KindMGF
}

// Crawler indexes the spectrum and scan-pair files of a raw directory.
type Crawler struct {
	ignored []string
	files   map[string]map[string]string // raw base -> kind -> path
	pairs   map[string]string            // raw base -> .pairs path
}

// NewCrawler creates an empty index.
func NewCrawler() *Crawler {
	return &Crawler{
		ignored: []string{".git", "backup", "tmp"},
		files:   make(map[string]map[string]string),
		pairs:   make(map[string]string),
	}
}

// ScanDir walks root and records every spectrum and scan-pair file.
func (c *Crawler) ScanDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign && path != root {
					return filepath.SkipDir
				}
			}
			return nil
		}

		name := d.Name()
		lower := strings.ToLower(name)
		if strings.HasSuffix(lower, ".pairs") {
			base := name[:len(name)-len(".pairs")]
			if _, ok := c.pairs[base]; !ok {
				c.pairs[base] = path
			}
			return nil
		}
		for _, s := range suffixes {
			if !strings.HasSuffix(lower, s.suffix) {
				continue
			}
			base := name[:len(name)-len(s.suffix)]
			if c.files[base] == nil {
				c.files[base] = make(map[string]string)
			}
			if _, ok := c.files[base][s.kind]; !ok {
				c.files[base][s.kind] = path
			}
			break
		}
		return nil
	})
}

// Locate returns the preferred spectrum file for a raw base name: a
// calibrated MGF, then a plain MGF, then any mzML. ok is false when
// nothing was found.
func (c *Crawler) Locate(rawBase string) (SpectrumFile, bool) {
	found := c.files[rawBase]
	for _, kind := range []string{KindCalibratedMGF, KindMGF, KindCalibratedMzML, KindMzML} {
		if p, ok := found[kind]; ok {
			return SpectrumFile{Path: p, Kind: kind}, true
		}
	}
	return SpectrumFile{}, false
}

// ScanPairs returns the "<base>.pairs" file for a raw base name.
func (c *Crawler) ScanPairs(rawBase string) (string, bool) {
	p, ok := c.pairs[rawBase]
	return p, ok
}

// RawFiles lists the indexed raw base names.
func (c *Crawler) RawFiles() []string {
	out := make([]string, 0, len(c.files))
	for base := range c.files {
		out = append(out, base)
	}
	return out
}
