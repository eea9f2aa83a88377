package margin

import (
	"context"
	"runtime"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/rx340b/internal/model"
)

// Analyze computes every pathway margin for d and recommends the best of the
// available paths.
func Analyze(d model.Drug, captureRate decimal.Decimal) model.MarginAnalysis {
	rate := ClampCaptureRate(captureRate)
	gross, net := RetailMargin(d, rate)
	medicare := MedicareMargin(d)
	commercial := CommercialMargin(d)

	res := Resolve(net, medicare, commercial)

	return model.MarginAnalysis{
		Drug:              d,
		RetailGrossMargin: gross,
		RetailNetMargin:   net,
		RetailCaptureRate: rate,
		MedicareMargin:    medicare,
		CommercialMargin:  commercial,
		RecommendedPath:   res.Path,
		MarginDelta:       res.Delta,
		Compared:          res.Compared,
		Mode:              model.ModeBestOfThree,
	}
}

// AnalyzeWithPreferredPayer compares retail head-to-head against a single
// payer. The payer's path wins only when its margin is present and strictly
// greater than the retail net margin. MarginDelta is the absolute gap between
// the two, with an absent payer margin counted as zero.
func AnalyzeWithPreferredPayer(d model.Drug, payer model.Payer, captureRate decimal.Decimal) model.MarginAnalysis {
	rate := ClampCaptureRate(captureRate)
	gross, net := RetailMargin(d, rate)
	medicare := MedicareMargin(d)
	commercial := CommercialMargin(d)

	payerMargin := commercial
	if payer.Path == model.PathMedicareMedical {
		payerMargin = medicare
	}

	path := model.PathRetail
	if payerMargin.Valid && payerMargin.Decimal.GreaterThan(net) {
		path = payer.Path
	}
	other := decimal.Zero
	if payerMargin.Valid {
		other = payerMargin.Decimal
	}

	return model.MarginAnalysis{
		Drug:              d,
		RetailGrossMargin: gross,
		RetailNetMargin:   net,
		RetailCaptureRate: rate,
		MedicareMargin:    medicare,
		CommercialMargin:  commercial,
		RecommendedPath:   path,
		MarginDelta:       net.Sub(other).Abs(),
		Compared:          payerMargin.Valid,
		Mode:              model.ModeHeadToHead,
	}
}

// AnalyzeCatalog runs Analyze over drugs with up to workers goroutines
// (GOMAXPROCS when workers < 1). Results are in input order.
func AnalyzeCatalog(ctx context.Context, drugs []model.Drug, captureRate decimal.Decimal, workers int) ([]model.MarginAnalysis, error) {
	return analyzeAll(ctx, drugs, workers, func(d model.Drug) model.MarginAnalysis {
		return Analyze(d, captureRate)
	})
}

// AnalyzeCatalogHeadToHead is AnalyzeCatalog for AnalyzeWithPreferredPayer.
func AnalyzeCatalogHeadToHead(ctx context.Context, drugs []model.Drug, payer model.Payer, captureRate decimal.Decimal, workers int) ([]model.MarginAnalysis, error) {
	return analyzeAll(ctx, drugs, workers, func(d model.Drug) model.MarginAnalysis {
		return AnalyzeWithPreferredPayer(d, payer, captureRate)
	})
}

func analyzeAll(ctx context.Context, drugs []model.Drug, workers int, fn func(model.Drug) model.MarginAnalysis) ([]model.MarginAnalysis, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]model.MarginAnalysis, len(drugs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range drugs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = fn(drugs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
