package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/db"
	"github.com/gyeh/rx340b/internal/margin"
	"github.com/gyeh/rx340b/internal/model"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"2.5", "$2.50"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-3.456", "-$3.46"},
		{"-0.001", "$0.00"},
	}
	for _, tt := range tests {
		if got := money(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("money(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOptionalFormatting(t *testing.T) {
	if got := optMoney(decimal.NullDecimal{}); got != "-" {
		t.Errorf("optMoney(null) = %q, want -", got)
	}
	if got := optPct(decimal.NewNullDecimal(decimal.RequireFromString("99.94"))); got != "99.9" {
		t.Errorf("optPct = %q, want 99.9", got)
	}
}

func TestDeltaRetailOnly(t *testing.T) {
	a := &model.MarginAnalysis{MarginDelta: decimal.Zero}
	if got := delta(a); got != "n/a" {
		t.Errorf("delta(uncompared) = %q, want n/a", got)
	}
	a.Compared = true
	a.MarginDelta = decimal.RequireFromString("540")
	if got := delta(a); got != "$540.00" {
		t.Errorf("delta = %q, want $540.00", got)
	}
}

func retailOnlyDrug() model.Drug {
	return model.Drug{
		NDC:          "00093-7214-01",
		DrugName:     "METFORMIN HCL ER",
		ContractCost: decimal.RequireFromString("0.01"),
		AWP:          decimal.RequireFromString("45"),
	}
}

func TestSensitivityDoc_RetailOnlyReportsZero(t *testing.T) {
	d := retailOnlyDrug()
	rows := margin.Sensitivity(d, nil)

	data, err := json.Marshal(sensitivityDoc(d, rows))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	if strings.Contains(out, `"medicare_margin":null`) || strings.Contains(out, `"commercial_margin":null`) {
		t.Fatalf("medical margins must be numeric: %s", out)
	}
	if n := strings.Count(out, `"medicare_margin":0,"commercial_margin":0,"has_medical_path":false`); n != len(rows) {
		t.Errorf("zero medical margins on %d of %d rows: %s", n, len(rows), out)
	}
	if !strings.Contains(out, `"ndc":"00093721401"`) {
		t.Errorf("ndc not normalized: %s", out)
	}
}

func TestRenderSensitivity_RetailOnly(t *testing.T) {
	d := retailOnlyDrug()
	rows := margin.Sensitivity(d, nil)

	var buf bytes.Buffer
	if err := renderSensitivity(&buf, d, rows); err != nil {
		t.Fatalf("renderSensitivity: %v", err)
	}
	out := buf.String()
	var seen int
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasSuffix(strings.TrimSpace(line), "RETAIL") {
			continue
		}
		seen++
		if strings.Count(line, "$0.00") != 2 {
			t.Errorf("row %q: want $0.00 for both medical margins", line)
		}
	}
	if seen != len(rows) {
		t.Errorf("rendered %d rows, want %d:\n%s", seen, len(rows), out)
	}
	if !strings.Contains(out, "No medical path") {
		t.Errorf("missing no-medical-path note:\n%s", out)
	}
}

func TestRenderExportTotals(t *testing.T) {
	runID := uuid.MustParse("6f1c2a9e-3b7d-4e2a-9c1f-0a5b8d7e6c43")
	var buf bytes.Buffer
	renderExportTotals(&buf, &model.RunSummary{RunID: runID, RowsExported: 6}, []db.RecommendationTotal{
		{Recommendation: string(model.PathCommercialMedical), Count: 3, DeltaSum: decimal.RequireFromString("1066.5")},
		{Recommendation: string(model.PathRetail), Count: 3, DeltaSum: decimal.RequireFromString("390.483")},
	})
	out := buf.String()
	for _, want := range []string{
		"Exported 6 rows as run " + runID.String(),
		"COMMERCIAL MEDICAL",
		"delta $1,066.50",
		"delta $390.48",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
