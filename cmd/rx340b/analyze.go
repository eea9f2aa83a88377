package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/gyeh/rx340b/internal/db"
	"github.com/gyeh/rx340b/internal/exitcode"
	"github.com/gyeh/rx340b/internal/logging"
	"github.com/gyeh/rx340b/internal/opportunity"
	"github.com/gyeh/rx340b/internal/pipeline"
)

var (
	outputFormat string
	listAll      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a catalog and list the top margin opportunities",
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&cfg.CatalogPath, "catalog", "", "Path to catalog Parquet file (required)")
	f.StringVar(&cfg.NADACPath, "nadac", "", "Path to NADAC Parquet file for penny pricing detection")
	f.StringVar(&cfg.IRAFile, "ira-file", "", "CSV (drug_name,year,description) replacing the built-in IRA registry")
	f.Float64Var(&cfg.CaptureRate, "capture-rate", cfg.CaptureRate, "Retail capture rate in [0, 1]")
	f.StringVar(&cfg.Payer, "payer", "", "Compare retail head-to-head against one payer: medicare or commercial")
	f.IntVar(&cfg.Workers, "workers", 0, "Analysis goroutines (0 = GOMAXPROCS)")
	f.IntVar(&cfg.TopN, "top", cfg.TopN, "Number of opportunities to show (0 = all)")
	f.Float64Var(&cfg.MinDelta, "min-delta", 0, "Only show opportunities with at least this margin delta")
	f.StringVar(&cfg.Search, "search", "", "Filter by drug name or NDC")
	f.BoolVar(&cfg.IRAOnly, "ira-only", false, "Only show IRA-negotiated drugs")
	f.BoolVar(&cfg.HidePenny, "hide-penny", false, "With --all, hide penny-priced drugs")
	f.BoolVar(&listAll, "all", false, "List every analyzed drug instead of the top opportunities")
	f.BoolVar(&cfg.Export, "export", false, "Write the run to report.margin_analyses")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "Skip the export even when --export is set")
	f.StringVarP(&outputFormat, "output", "o", "table", "Output format: table or json")
	_ = analyzeCmd.MarkFlagRequired("catalog")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if outputFormat != "table" && outputFormat != "json" {
		log.Error().Str("output", outputFormat).Msg("unknown output format")
		os.Exit(exitcode.UsageError)
	}

	var deps pipeline.Deps
	var pool *pgxpool.Pool
	if cfg.Export && !cfg.DryRun {
		var err error
		pool, err = db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		deps.Exporter = db.NewExporter(pool, log)
	}

	res, err := pipeline.Run(ctx, log, &cfg, deps)
	if err != nil {
		var pe *pipeline.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("analysis failed")
			os.Exit(phaseExitCode(pe.Phase))
		}
		log.Error().Err(err).Msg("analysis failed")
		os.Exit(exitcode.AnalysisError)
	}

	out := cmd.OutOrStdout()
	if listAll {
		rows := opportunity.Apply(opportunity.FromAnalyses(res.Analyses), opportunity.Criteria{
			Search:    cfg.Search,
			IRAOnly:   cfg.IRAOnly,
			HidePenny: cfg.HidePenny,
			MinDelta:  cfg.MinDeltaFilter(),
		})
		err = renderOpportunities(out, outputFormat, opportunity.Top(rows, cfg.TopN))
	} else {
		err = renderOpportunities(out, outputFormat, res.Opportunities)
	}
	if err != nil {
		return err
	}

	if outputFormat == "table" {
		s := res.Summary
		fmt.Fprintf(out, "\nAnalyzed %d drugs (%d rows rejected), %d IRA, %d penny priced, %d opportunities (%.1fs)\n",
			s.DrugsAnalyzed, s.RowsRejected, s.IRAFlagged, s.PennyFlagged, s.Opportunities, s.DurationTotal.Seconds())
	}
	if pool != nil && res.Summary.RowsExported > 0 {
		totals, err := db.RecommendationTotals(ctx, pool, res.Summary.RunID)
		if err != nil {
			log.Error().Err(err).Str("run_id", res.Summary.RunID.String()).Msg("failed to read back export")
			os.Exit(exitcode.ExportError)
		}
		if outputFormat == "table" {
			renderExportTotals(out, res.Summary, totals)
		}
	}

	if len(res.Rejected) > 0 {
		log.Warn().Int("rows", len(res.Rejected)).Msg("some catalog rows were rejected")
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}

func phaseExitCode(phase string) int {
	switch phase {
	case pipeline.PhasePreflight:
		return exitcode.ValidationError
	case pipeline.PhaseLoad:
		return exitcode.LoadError
	case pipeline.PhaseExport:
		return exitcode.ExportError
	default:
		return exitcode.AnalysisError
	}
}
