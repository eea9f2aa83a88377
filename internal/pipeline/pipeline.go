// Package pipeline runs a full catalog analysis: preflight, load, classify,
// analyze, rank and an optional audit export.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/rx340b/internal/catalog"
	"github.com/gyeh/rx340b/internal/config"
	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/opportunity"
	"github.com/gyeh/rx340b/internal/risk"
)

// Phase names carried by PipelineError.
const (
	PhasePreflight = "preflight"
	PhaseLoad      = "load"
	PhaseClassify  = "classify"
	PhaseAnalyze   = "analyze"
	PhaseExport    = "export"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Exporter persists a finished run. db.Exporter is the production one.
type Exporter interface {
	Export(ctx context.Context, run *model.RunSummary, analyses []model.MarginAnalysis) (int64, error)
}

// Deps are the collaborators a run uses. Zero values mean the default
// registry and no export.
type Deps struct {
	Registry *risk.Registry
	Exporter Exporter
}

// Result is everything a run produced.
type Result struct {
	Summary  *model.RunSummary
	Analyses []model.MarginAnalysis // catalog order

	// Top opportunities: penny-priced drugs removed, ranked by margin
	// delta, narrowed by the configured criteria and TopN.
	Opportunities []opportunity.Opportunity

	Rejected   []*catalog.RowError
	PennyFlags []risk.PennyFlag
	// Nil when no NADAC file was given.
	Penny *risk.PennySummary
}

// Run executes the full pipeline: preflight → load → classify → analyze →
// rank → export.
func Run(ctx context.Context, log zerolog.Logger, cfg *config.Config, deps Deps) (*Result, error) {
	totalStart := time.Now()
	reg := deps.Registry
	if reg == nil {
		reg = risk.Default()
	}
	reg.WithLogger(log.With().Str("phase", PhaseClassify).Logger())

	// Phase 1: Preflight
	log.Info().Str("catalog", cfg.CatalogPath).Msg("starting preflight")
	pf, err := Preflight(log, cfg)
	if err != nil {
		return nil, &PipelineError{Phase: PhasePreflight, Err: err}
	}
	if cfg.IRAFile != "" {
		n, err := ReloadRegistryFromFile(reg, cfg.IRAFile)
		if err != nil {
			return nil, &PipelineError{Phase: PhasePreflight, Err: err}
		}
		log.Info().Int("drugs", n).Str("file", cfg.IRAFile).Uint64("version", reg.Version()).Msg("ira registry reloaded")
	}

	summary := &model.RunSummary{
		CatalogPath:     pf.CatalogPath,
		CatalogSHA256:   pf.CatalogSHA256,
		NADACPath:       cfg.NADACPath,
		RunID:           uuid.New(),
		CaptureRate:     pf.CaptureRate.String(),
		Mode:            pf.Mode,
		RegistryVersion: reg.Version(),
	}

	// Phase 2: Load
	readStart := time.Now()
	cat, err := catalog.Load(cfg.CatalogPath, log)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseLoad, Err: err}
	}
	var records []risk.PricingRecord
	if cfg.NADACPath != "" {
		records, err = catalog.LoadNADAC(cfg.NADACPath)
		if err != nil {
			return nil, &PipelineError{Phase: PhaseLoad, Err: err}
		}
	}
	summary.RowsRead = cat.RowsRead
	summary.RowsRejected = int64(len(cat.Rejected))
	summary.DurationRead = time.Since(readStart)
	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_rejected", summary.RowsRejected).
		Int("nadac_records", len(records)).
		Str("duration", summary.DurationRead.String()).
		Msg("load complete")

	// Phase 3: Classify
	cl := Classify(log, reg, cat.Drugs, records)
	summary.IRAFlagged = cl.IRAFlagged
	summary.PennyFlagged = cl.PennyFlagged

	// Phase 4: Analyze
	analyzeStart := time.Now()
	analyses, err := Analyze(ctx, cl.Drugs, pf)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseAnalyze, Err: err}
	}
	summary.DrugsAnalyzed = int64(len(analyses))
	summary.DurationAnalyze = time.Since(analyzeStart)

	// Phase 5: Rank
	top := Rank(analyses, cl.PennySet, cfg)
	summary.Opportunities = int64(len(top))

	res := &Result{
		Summary:       summary,
		Analyses:      analyses,
		Opportunities: top,
		Rejected:      cat.Rejected,
		PennyFlags:    cl.PennyFlags,
	}
	if records != nil {
		ps := risk.SummarizePenny(records)
		res.Penny = &ps
	}

	// Phase 6: Export
	if cfg.Export && deps.Exporter != nil && !cfg.DryRun {
		exportStart := time.Now()
		n, err := deps.Exporter.Export(ctx, summary, analyses)
		if err != nil {
			return nil, &PipelineError{Phase: PhaseExport, Err: err}
		}
		summary.RowsExported = n
		summary.DurationExport = time.Since(exportStart)
	} else if cfg.Export {
		log.Info().Bool("dry_run", cfg.DryRun).Msg("skipping export")
	}

	summary.DurationTotal = time.Since(totalStart)
	log.Info().
		Str("run_id", summary.RunID.String()).
		Int64("drugs_analyzed", summary.DrugsAnalyzed).
		Int64("ira_flagged", summary.IRAFlagged).
		Int64("penny_flagged", summary.PennyFlagged).
		Int64("opportunities", summary.Opportunities).
		Int64("rows_exported", summary.RowsExported).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("analysis pipeline complete")

	return res, nil
}
