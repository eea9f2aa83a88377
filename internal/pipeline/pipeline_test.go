package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/config"
	"github.com/gyeh/rx340b/internal/fixture"
	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/risk"
)

type fakeExporter struct {
	calls    int
	run      *model.RunSummary
	analyses []model.MarginAnalysis
	err      error
}

func (f *fakeExporter) Export(_ context.Context, run *model.RunSummary, analyses []model.MarginAnalysis) (int64, error) {
	f.calls++
	f.run = run
	f.analyses = analyses
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(analyses)), nil
}

func writeFixtures(t *testing.T) (catalogPath, nadacPath string) {
	t.Helper()
	dir := t.TempDir()
	catalogPath = filepath.Join(dir, "catalog.parquet")
	nadacPath = filepath.Join(dir, "nadac.parquet")
	if err := fixture.WriteParquet(catalogPath, fixture.Catalog()); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if err := fixture.WriteParquet(nadacPath, fixture.NADAC()); err != nil {
		t.Fatalf("write nadac: %v", err)
	}
	return catalogPath, nadacPath
}

func newRegistry(t *testing.T) *risk.Registry {
	t.Helper()
	reg, err := risk.NewRegistry(risk.BuiltinIRAEntries())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func opportunityNames(res *Result) []string {
	out := make([]string, len(res.Opportunities))
	for i, o := range res.Opportunities {
		out[i] = o.Analysis.Drug.DrugName
	}
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	catalogPath, nadacPath := writeFixtures(t)
	cfg := config.Defaults()
	cfg.CatalogPath = catalogPath
	cfg.NADACPath = nadacPath
	cfg.Export = true
	exp := &fakeExporter{}

	res, err := Run(context.Background(), zerolog.Nop(), &cfg, Deps{Registry: newRegistry(t), Exporter: exp})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := res.Summary

	t.Run("summary_metrics", func(t *testing.T) {
		if s.RowsRead != 8 || s.RowsRejected != 2 || s.DrugsAnalyzed != 6 {
			t.Errorf("read=%d rejected=%d analyzed=%d", s.RowsRead, s.RowsRejected, s.DrugsAnalyzed)
		}
		if s.IRAFlagged != 2 || s.PennyFlagged != 2 {
			t.Errorf("ira=%d penny=%d", s.IRAFlagged, s.PennyFlagged)
		}
		if s.Opportunities != 4 || s.RowsExported != 6 {
			t.Errorf("opportunities=%d exported=%d", s.Opportunities, s.RowsExported)
		}
		if s.CaptureRate != "0.45" || s.Mode != model.ModeBestOfThree {
			t.Errorf("rate=%s mode=%s", s.CaptureRate, s.Mode)
		}
		if len(s.CatalogSHA256) != 64 {
			t.Errorf("sha = %q", s.CatalogSHA256)
		}
	})

	t.Run("analyses_in_catalog_order", func(t *testing.T) {
		want := []string{"NEULASTA", "ENBREL", "Eliquis", "METFORMIN HCL ER", "HEPARIN SODIUM", "LIPITOR"}
		if len(res.Analyses) != len(want) {
			t.Fatalf("analyses = %d", len(res.Analyses))
		}
		for i, name := range want {
			if res.Analyses[i].Drug.DrugName != name {
				t.Errorf("analyses[%d] = %s, want %s", i, res.Analyses[i].Drug.DrugName, name)
			}
		}
	})

	t.Run("reference_drug_exact", func(t *testing.T) {
		a := res.Analyses[0]
		if !a.RetailGrossMargin.Equal(decimal.RequireFromString("5375")) ||
			!a.MedicareMargin.Decimal.Equal(decimal.RequireFromString("5786")) ||
			!a.CommercialMargin.Decimal.Equal(decimal.RequireFromString("6290")) {
			t.Errorf("margins = %s / %s / %s", a.RetailGrossMargin, a.MedicareMargin.Decimal, a.CommercialMargin.Decimal)
		}
		if a.RecommendedPath != model.PathCommercialMedical || !a.MarginDelta.Equal(decimal.NewFromInt(504)) {
			t.Errorf("recommendation = %s delta %s", a.RecommendedPath, a.MarginDelta)
		}
	})

	t.Run("risk_flags", func(t *testing.T) {
		byName := map[string]model.Drug{}
		for _, a := range res.Analyses {
			byName[a.Drug.DrugName] = a.Drug
		}
		if !byName["ENBREL"].IRAFlag || byName["ENBREL"].PennyPricingFlag {
			t.Error("ENBREL: want IRA only")
		}
		if !byName["Eliquis"].IRAFlag || !byName["Eliquis"].PennyPricingFlag {
			t.Error("Eliquis: want IRA and penny")
		}
		if byName["METFORMIN HCL ER"].IRAFlag || !byName["METFORMIN HCL ER"].PennyPricingFlag {
			t.Error("METFORMIN: want penny only")
		}
		if byName["LIPITOR"].HasMedicalPath() {
			t.Error("LIPITOR: asp without hcpcs should have no medical path")
		}
	})

	t.Run("top_opportunities_exclude_penny_and_rank", func(t *testing.T) {
		got := opportunityNames(res)
		want := []string{"ENBREL", "NEULASTA", "LIPITOR", "HEPARIN SODIUM"}
		if len(got) != len(want) {
			t.Fatalf("opportunities = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("opportunities = %v, want %v", got, want)
			}
		}
	})

	t.Run("penny_summary", func(t *testing.T) {
		if res.Penny == nil {
			t.Fatal("Penny summary missing")
		}
		if res.Penny.Total != 4 || res.Penny.Flagged != 2 || !res.Penny.FlaggedPct.Equal(decimal.NewFromInt(50)) {
			t.Errorf("penny = %+v", res.Penny)
		}
		if len(res.PennyFlags) != 2 {
			t.Errorf("flags = %d", len(res.PennyFlags))
		}
	})

	t.Run("export_called_once", func(t *testing.T) {
		if exp.calls != 1 || len(exp.analyses) != 6 || exp.run.RunID != s.RunID {
			t.Errorf("exporter calls=%d analyses=%d", exp.calls, len(exp.analyses))
		}
	})
}

func TestRun_WithoutNADAC(t *testing.T) {
	catalogPath, _ := writeFixtures(t)
	cfg := config.Defaults()
	cfg.CatalogPath = catalogPath

	res, err := Run(context.Background(), zerolog.Nop(), &cfg, Deps{Registry: newRegistry(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Penny != nil || res.Summary.PennyFlagged != 0 {
		t.Error("no NADAC file: nothing should be penny flagged")
	}
	// Without penny data METFORMIN and Eliquis are ordinary retail opportunities.
	if res.Summary.Opportunities != 6 {
		t.Errorf("opportunities = %d, want 6", res.Summary.Opportunities)
	}
}

func TestRun_HeadToHeadAndCriteria(t *testing.T) {
	catalogPath, nadacPath := writeFixtures(t)
	cfg := config.Defaults()
	cfg.CatalogPath = catalogPath
	cfg.NADACPath = nadacPath
	cfg.Payer = "medicare"
	cfg.TopN = 2
	cfg.MinDelta = 100

	res, err := Run(context.Background(), zerolog.Nop(), &cfg, Deps{Registry: newRegistry(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Summary.Mode != model.ModeHeadToHead {
		t.Errorf("mode = %s", res.Summary.Mode)
	}
	a := res.Analyses[0]
	if a.RecommendedPath != model.PathMedicareMedical || !a.MarginDelta.Equal(decimal.RequireFromString("3367.25")) {
		t.Errorf("NEULASTA head-to-head = %s delta %s", a.RecommendedPath, a.MarginDelta)
	}
	// HEPARIN falls under the min delta; LIPITOR is cut by TopN.
	if got := opportunityNames(res); len(got) != 2 || got[0] != "NEULASTA" || got[1] != "ENBREL" {
		t.Errorf("opportunities = %v", got)
	}
}

func TestRun_IRAFileReplacesRegistry(t *testing.T) {
	catalogPath, _ := writeFixtures(t)
	iraPath := filepath.Join(t.TempDir(), "ira.csv")
	if err := os.WriteFile(iraPath, []byte("drug_name,year,description\nNEULASTA,2028,Test\n"), 0644); err != nil {
		t.Fatalf("write ira csv: %v", err)
	}
	cfg := config.Defaults()
	cfg.CatalogPath = catalogPath
	cfg.IRAFile = iraPath
	cfg.IRAOnly = true
	reg := newRegistry(t)

	res, err := Run(context.Background(), zerolog.Nop(), &cfg, Deps{Registry: reg})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Summary.IRAFlagged != 1 || res.Summary.RegistryVersion != 2 {
		t.Errorf("ira flagged=%d version=%d", res.Summary.IRAFlagged, res.Summary.RegistryVersion)
	}
	if got := opportunityNames(res); len(got) != 1 || got[0] != "NEULASTA" {
		t.Errorf("ira-only opportunities = %v", got)
	}
	if risk.Default().Lookup("NEULASTA").IsIRA {
		t.Error("default registry must not change when a registry is injected")
	}
}

func TestRun_LogsEachIRAHit(t *testing.T) {
	catalogPath, _ := writeFixtures(t)
	cfg := config.Defaults()
	cfg.CatalogPath = catalogPath

	var buf bytes.Buffer
	res, err := Run(context.Background(), zerolog.New(&buf), &cfg, Deps{Registry: newRegistry(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var hits []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, `"message":"ira negotiated drug"`) {
			hits = append(hits, line)
		}
	}
	if int64(len(hits)) != res.Summary.IRAFlagged || len(hits) != 2 {
		t.Fatalf("ira hit warnings = %d, flagged = %d\n%s", len(hits), res.Summary.IRAFlagged, buf.String())
	}
	for _, h := range hits {
		if !strings.Contains(h, `"level":"warn"`) || !strings.Contains(h, `"phase":"classify"`) {
			t.Errorf("hit line = %s", h)
		}
	}
	if !strings.Contains(buf.String(), `"matched":"ENBREL"`) {
		t.Errorf("no ENBREL hit logged:\n%s", buf.String())
	}
}

func TestRun_DryRunSkipsExport(t *testing.T) {
	catalogPath, _ := writeFixtures(t)
	cfg := config.Defaults()
	cfg.CatalogPath = catalogPath
	cfg.Export = true
	cfg.DryRun = true
	exp := &fakeExporter{}

	if _, err := Run(context.Background(), zerolog.Nop(), &cfg, Deps{Registry: newRegistry(t), Exporter: exp}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exp.calls != 0 {
		t.Errorf("exporter called %d times on dry run", exp.calls)
	}
}

func TestRun_ErrorPhases(t *testing.T) {
	catalogPath, _ := writeFixtures(t)
	notParquet := filepath.Join(t.TempDir(), "catalog.parquet")
	if err := os.WriteFile(notParquet, []byte("ndc,drug_name\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name  string
		ctx   context.Context
		cfg   func(*config.Config)
		exp   Exporter
		phase string
	}{
		{"missing_catalog", context.Background(), func(c *config.Config) { c.CatalogPath = "/nonexistent.parquet" }, nil, PhasePreflight},
		{"bad_capture_rate", context.Background(), func(c *config.Config) { c.CaptureRate = 2 }, nil, PhasePreflight},
		{"not_parquet", context.Background(), func(c *config.Config) { c.CatalogPath = notParquet }, nil, PhaseLoad},
		{"canceled", canceled, func(c *config.Config) {}, nil, PhaseAnalyze},
		{"export_fails", context.Background(), func(c *config.Config) { c.Export = true }, &fakeExporter{err: errors.New("copy failed")}, PhaseExport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.CatalogPath = catalogPath
			tt.cfg(&cfg)

			_, err := Run(tt.ctx, zerolog.Nop(), &cfg, Deps{Registry: newRegistry(t), Exporter: tt.exp})
			var pe *PipelineError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *PipelineError", err)
			}
			if pe.Phase != tt.phase {
				t.Errorf("phase = %s, want %s (%v)", pe.Phase, tt.phase, pe.Err)
			}
		})
	}
}
