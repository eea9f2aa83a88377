package pipeline

import (
	"context"

	"github.com/gyeh/rx340b/internal/config"
	"github.com/gyeh/rx340b/internal/margin"
	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/opportunity"
)

// Analyze runs the margin engine over drugs in the mode chosen at preflight.
func Analyze(ctx context.Context, drugs []model.Drug, pf *PreflightResult) ([]model.MarginAnalysis, error) {
	if pf.Mode == model.ModeHeadToHead {
		return margin.AnalyzeCatalogHeadToHead(ctx, drugs, pf.Payer, pf.CaptureRate, pf.Workers)
	}
	return margin.AnalyzeCatalog(ctx, drugs, pf.CaptureRate, pf.Workers)
}

// Rank builds the top opportunities: penny-priced drugs are always removed,
// then the configured criteria and TopN apply.
func Rank(analyses []model.MarginAnalysis, pennySet map[string]struct{}, cfg *config.Config) []opportunity.Opportunity {
	opps := opportunity.FilterTop(opportunity.FromAnalyses(analyses), pennySet)
	ranked := opportunity.Apply(opps, opportunity.Criteria{
		Search:   cfg.Search,
		IRAOnly:  cfg.IRAOnly,
		MinDelta: cfg.MinDeltaFilter(),
	})
	return opportunity.Top(ranked, cfg.TopN)
}
