package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"glycoloc/internal/analysis"
	"glycoloc/internal/config"
	"glycoloc/internal/glycan"
	"glycoloc/internal/peptide"
	"glycoloc/internal/pipeline"
	"glycoloc/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "glycoloc",
		Short: "Glycan site localization for glycopeptide PSMs",
	}
	configPath string
	dbPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the results database (SQLite); overrides run.db_path")

	localizeCmd.Flags().String("psm", "", "PSM table to localize (psm.tsv)")
	localizeCmd.Flags().String("raw-dir", "", "Directory holding the MGF and .pairs files")
	localizeCmd.Flags().String("pairs", "", "Scan-pair table shared by all raw files")
	localizeCmd.Flags().String("glycans", "", "Glycan database, one composition per line")
	localizeCmd.Flags().String("out", "", "Output table (default: rewrite the PSM table)")
	localizeCmd.Flags().Int("workers", 0, "Number of PSMs localized in parallel")

	rootCmd.AddCommand(localizeCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(boxesCmd)
}

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Run.DBPath = dbPath
	}
	return cfg
}

var localizeCmd = &cobra.Command{
	Use:   "localize",
	Short: "Localize glycans for every modified PSM and add the result columns",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		flags := cmd.Flags()
		for name, dst := range map[string]*string{
			"psm":     &cfg.Input.PSMFile,
			"raw-dir": &cfg.Input.RawDir,
			"pairs":   &cfg.Input.ScanPairFile,
			"glycans": &cfg.Search.GlycanDatabase,
		} {
			if v, _ := flags.GetString(name); v != "" {
				*dst = v
			}
		}
		if n, _ := flags.GetInt("workers"); n > 0 {
			cfg.Run.Workers = n
		}
		if cfg.Input.PSMFile == "" || cfg.Input.RawDir == "" || cfg.Search.GlycanDatabase == "" {
			log.Fatalf("psm_file, raw_dir and glycan_database are required")
		}

		s := pipeline.NewLocalization(cfg)
		if out, _ := flags.GetString("out"); out != "" {
			s.OutputPath = out
		}
		fmt.Printf("🚀 Localizing %s (%s, %s + %s)\n", cfg.Input.PSMFile, cfg.Search.GlycoType, cfg.Search.Dissociation, cfg.Search.ChildDissociation)
		run, err := s.Run(context.Background())
		if err != nil {
			log.Fatalf("Localization failed: %v", err)
		}
		fmt.Printf("Run %d complete. Use 'glycoloc summary %d' for the outcome.\n", run.ID, run.ID)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary [run-id]",
	Short: "Summarize a stored run (latest by default)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := context.Background()

		store, err := storage.NewSQLiteStore(cfg.Run.DBPath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		var runID int64
		if len(args) > 0 {
			if runID, err = strconv.ParseInt(args[0], 10, 64); err != nil {
				log.Fatalf("Invalid run id %q: %v", args[0], err)
			}
		} else if runID, err = store.LatestRunID(ctx); err != nil {
			log.Fatalf("Failed to find a run: %v", err)
		}

		records, err := store.LoadResults(ctx, runID)
		if err != nil {
			log.Fatalf("Failed to load run %d: %v", runID, err)
		}
		fmt.Printf("📊 Run %d\n", runID)
		analysis.Summarize(records).Write(os.Stdout)
	},
}

var boxesCmd = &cobra.Command{
	Use:   "boxes",
	Short: "List the glycan combinations searched against delta masses",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		motif := glycan.MotifO
		if t, err := peptide.ParseGlycoType(cfg.Search.GlycoType); err == nil && t == peptide.NGlyco {
			motif = glycan.MotifN
		}
		units, err := glycan.LoadGlycans(cfg.Search.GlycanDatabase, motif, 0)
		if err != nil {
			log.Fatalf("Failed to load glycans: %v", err)
		}
		catalog, err := glycan.NewCatalog(units, cfg.Search.MaxGlycans)
		if err != nil {
			log.Fatalf("Failed to build catalog: %v", err)
		}
		for _, box := range catalog.Boxes {
			fmt.Printf("%d\t%.4f\t%s\t%s\n", box.ID, box.Mass, box.Composition(), box.UnitCompositions(units))
		}
	},
}
