package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/model"
	embedsql "github.com/gyeh/rx340b/internal/sql"
)

const exportBufferSize = 1024

// Exporter writes analysis runs to report.analysis_runs and
// report.margin_analyses.
type Exporter struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewExporter returns an Exporter writing through pool.
func NewExporter(pool *pgxpool.Pool, log zerolog.Logger) *Exporter {
	return &Exporter{pool: pool, log: log}
}

// Export registers the run, then COPY-loads one audit row per analysis via a
// channel-backed CopyFromSource. The run row ends up "exported" or "failed".
func (e *Exporter) Export(ctx context.Context, run *model.RunSummary, analyses []model.MarginAnalysis) (int64, error) {
	start := time.Now()

	rate, err := decimal.NewFromString(run.CaptureRate)
	if err != nil {
		return 0, fmt.Errorf("export capture rate %q: %w", run.CaptureRate, err)
	}
	_, err = e.pool.Exec(ctx, embedsql.InsertAnalysisRun,
		run.RunID,
		run.CatalogPath,
		run.CatalogSHA256,
		nilIfEmpty(run.NADACPath),
		Numeric(rate),
		string(run.Mode),
		int64(run.RegistryVersion),
		len(analyses),
	)
	if err != nil {
		return 0, fmt.Errorf("register run: %w", err)
	}

	ch := make(chan *model.AuditRow, exportBufferSize)
	errCh := make(chan error, 1)

	// Producer goroutine: analyses → audit rows → channel
	go func() {
		defer close(ch)
		for i := range analyses {
			select {
			case ch <- model.NewAuditRow(run.RunID, int64(i+1), analyses[i]):
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		errCh <- nil
	}()

	copied, copyErr := e.pool.CopyFrom(ctx,
		pgx.Identifier{"report", "margin_analyses"},
		model.AuditColumns(),
		NewChannelSource(ch),
	)
	if copyErr != nil {
		// Unblock the producer if COPY stopped reading early.
		for range ch {
		}
	}
	prodErr := <-errCh

	if err := firstErr(prodErr, copyErr); err != nil {
		if _, ferr := e.pool.Exec(context.WithoutCancel(ctx), embedsql.FinishAnalysisRun, run.RunID, "failed", int64(0)); ferr != nil {
			e.log.Warn().Err(ferr).Str("run_id", run.RunID.String()).Msg("failed to mark run as failed")
		}
		return 0, fmt.Errorf("export copy: %w", err)
	}

	if _, err := e.pool.Exec(ctx, embedsql.FinishAnalysisRun, run.RunID, "exported", copied); err != nil {
		return copied, fmt.Errorf("finish run: %w", err)
	}

	dur := time.Since(start)
	e.log.Info().
		Str("run_id", run.RunID.String()).
		Int64("rows_exported", copied).
		Str("duration", dur.String()).
		Msg("export complete")
	return copied, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// RecommendationTotal is one recommendation's share of an exported run.
type RecommendationTotal struct {
	Recommendation string
	Count          int64
	DeltaSum       decimal.Decimal
}

// RecommendationTotals reads back the exported analyses of one run grouped
// by recommendation, ordered by recommendation.
func RecommendationTotals(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID) ([]RecommendationTotal, error) {
	rows, err := pool.Query(ctx, embedsql.RecommendationTotals, runID)
	if err != nil {
		return nil, fmt.Errorf("recommendation totals: %w", err)
	}
	defer rows.Close()

	var out []RecommendationTotal
	for rows.Next() {
		var t RecommendationTotal
		var sum pgtype.Numeric
		if err := rows.Scan(&t.Recommendation, &t.Count, &sum); err != nil {
			return nil, fmt.Errorf("scan recommendation total: %w", err)
		}
		t.DeltaSum = DecimalFromNumeric(sum).Decimal
		out = append(out, t)
	}
	return out, rows.Err()
}
