package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Search struct {
		ProductPpm        float64 `yaml:"product_ppm"`
		PrecursorPpm      float64 `yaml:"precursor_ppm"`
		MaxGlycans        int     `yaml:"max_glycans"`
		MinIsotopeError   int     `yaml:"min_isotope_error"`
		MaxIsotopeError   int     `yaml:"max_isotope_error"`
		GlycanDatabase    string  `yaml:"glycan_database"`
		NGlycanDatabase   string  `yaml:"n_glycan_database"`  // second database for Mixed runs
		OxoniumFilter     string  `yaml:"oxonium_filter"`     // optional rule table
		GlycoType         string  `yaml:"glyco_type"`         // O, N or Mixed
		Dissociation      string  `yaml:"dissociation"`       // parent scan activation
		ChildDissociation string  `yaml:"child_dissociation"` // paired scan activation
		KeepTiedGraphs    bool    `yaml:"keep_tied_graphs"`
	} `yaml:"search"`
	Input struct {
		PSMFile      string `yaml:"psm_file"`
		ScanPairFile string `yaml:"scan_pair_file"` // empty: <raw>.pairs next to the spectra
		RawDir       string `yaml:"raw_dir"`
	} `yaml:"input"`
	Run struct {
		Workers int    `yaml:"workers"`
		DBPath  string `yaml:"db_path"`
	} `yaml:"run"`
}

// Default returns the settings used when no file overrides them.
func Default() *Config {
	var cfg Config
	cfg.Search.ProductPpm = 10
	cfg.Search.PrecursorPpm = 30
	cfg.Search.MaxGlycans = 3
	cfg.Search.MinIsotopeError = 0
	cfg.Search.MaxIsotopeError = 2
	cfg.Search.GlycoType = "O"
	cfg.Search.Dissociation = "HCD"
	cfg.Search.ChildDissociation = "EThcD"
	cfg.Run.Workers = runtime.NumCPU()
	cfg.Run.DBPath = "glycoloc.db"
	return &cfg
}

// LoadConfig layers defaults, the YAML file and GLYCOLOC_* environment
// variables. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	// 3. Override with Environment Variables if present
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"GLYCOLOC_GLYCAN_DATABASE":   &c.Search.GlycanDatabase,
		"GLYCOLOC_N_GLYCAN_DATABASE": &c.Search.NGlycanDatabase,
		"GLYCOLOC_OXONIUM_FILTER":    &c.Search.OxoniumFilter,
		"GLYCOLOC_GLYCO_TYPE":        &c.Search.GlycoType,
		"GLYCOLOC_PSM_FILE":          &c.Input.PSMFile,
		"GLYCOLOC_SCAN_PAIR_FILE":    &c.Input.ScanPairFile,
		"GLYCOLOC_RAW_DIR":           &c.Input.RawDir,
		"GLYCOLOC_DB_PATH":           &c.Run.DBPath,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"GLYCOLOC_PRODUCT_PPM":   &c.Search.ProductPpm,
		"GLYCOLOC_PRECURSOR_PPM": &c.Search.PrecursorPpm,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"GLYCOLOC_MAX_GLYCANS": &c.Search.MaxGlycans,
		"GLYCOLOC_WORKERS":     &c.Run.Workers,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}
	return nil
}

// Validate checks value ranges. Input paths are checked when a run starts.
func (c *Config) Validate() error {
	if c.Search.ProductPpm <= 0 || c.Search.PrecursorPpm <= 0 {
		return fmt.Errorf("tolerances must be positive")
	}
	if c.Search.MaxGlycans < 1 {
		return fmt.Errorf("max_glycans must be at least 1, got %d", c.Search.MaxGlycans)
	}
	if c.Search.MinIsotopeError > c.Search.MaxIsotopeError {
		return fmt.Errorf("min_isotope_error %d exceeds max_isotope_error %d", c.Search.MinIsotopeError, c.Search.MaxIsotopeError)
	}
	if c.Run.Workers < 1 {
		c.Run.Workers = 1
	}
	return nil
}

// Isotopes lists the isotope errors to try, lowest first.
func (c *Config) Isotopes() []int {
	var out []int
	for i := c.Search.MinIsotopeError; i <= c.Search.MaxIsotopeError; i++ {
		out = append(out, i)
	}
	return out
}
