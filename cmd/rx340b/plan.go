package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/rx340b/internal/catalog"
	"github.com/gyeh/rx340b/internal/exitcode"
	"github.com/gyeh/rx340b/internal/logging"
	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/normalize"
	"github.com/gyeh/rx340b/internal/parquetread"
	"github.com/gyeh/rx340b/internal/risk"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run validation and stats (no analysis, no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.CatalogPath, "catalog", "", "Path to catalog Parquet file (required)")
	planCmd.Flags().StringVar(&cfg.NADACPath, "nadac", "", "Path to NADAC Parquet file")
	_ = planCmd.MarkFlagRequired("catalog")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	out := cmd.OutOrStdout()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	sha, size, err := normalize.FileDigest(cfg.CatalogPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to digest catalog")
		os.Exit(exitcode.ValidationError)
	}

	reader, err := parquetread.Open[model.CatalogRow](cfg.CatalogPath, parquetread.ValidateCatalogSchema)
	if err != nil {
		log.Error().Err(err).Msg("failed to open catalog")
		os.Exit(exitcode.ValidationError)
	}
	numRows := reader.NumRows()
	reader.Close()

	// Rejections are reported below, not logged row by row.
	res, err := catalog.Load(cfg.CatalogPath, log.Level(zerolog.ErrorLevel))
	if err != nil {
		log.Error().Err(err).Msg("failed to read catalog")
		os.Exit(exitcode.LoadError)
	}

	var medical, retailOnly int
	for _, d := range res.Drugs {
		if d.HasMedicalPath() {
			medical++
		} else {
			retailOnly++
		}
	}

	fmt.Fprintln(out, "=== rx340b plan ===")
	fmt.Fprintf(out, "Catalog:     %s\n", cfg.CatalogPath)
	fmt.Fprintf(out, "SHA-256:     %s\n", sha)
	fmt.Fprintf(out, "Size:        %s\n", humanize.Bytes(uint64(size)))
	fmt.Fprintf(out, "Total rows:  %s\n", humanize.Comma(numRows))
	fmt.Fprintf(out, "Valid drugs: %s (%d with a medical path, %d retail only)\n",
		humanize.Comma(int64(len(res.Drugs))), medical, retailOnly)
	fmt.Fprintf(out, "Rejected:    %d\n", len(res.Rejected))
	for _, re := range res.Rejected {
		fmt.Fprintf(out, "  %s\n", re.Error())
	}

	if cfg.NADACPath != "" {
		records, err := catalog.LoadNADAC(cfg.NADACPath)
		if err != nil {
			log.Error().Err(err).Msg("failed to load NADAC file")
			os.Exit(exitcode.LoadError)
		}
		sum := risk.SummarizePenny(records)
		fmt.Fprintf(out, "NADAC:       %s (%d records, %d penny priced)\n", cfg.NADACPath, sum.Total, sum.Flagged)
	}

	fmt.Fprintln(out, "Schema validation: OK")
	return nil
}
