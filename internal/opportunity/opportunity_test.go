package opportunity

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/model"
)

func analysis(ndc, name string, delta string, ira, penny bool) model.MarginAnalysis {
	return model.MarginAnalysis{
		Drug: model.Drug{
			NDC:              ndc,
			DrugName:         name,
			IRAFlag:          ira,
			PennyPricingFlag: penny,
		},
		MarginDelta: decimal.RequireFromString(delta),
	}
}

func ids(opps []Opportunity) []string {
	out := make([]string, len(opps))
	for i, o := range opps {
		out[i] = o.ID
	}
	return out
}

func equalIDs(t *testing.T, got []Opportunity, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("ids = %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("ids = %v, want %v", g, want)
		}
	}
}

func TestFilterTop_EitherSignalExcludes(t *testing.T) {
	opps := []Opportunity{
		{ID: "00000000001", PennyPricing: true},
		{ID: "00000000002"},
		{ID: "00000000003"},
		{ID: "00000000004"},
	}
	penny := map[string]struct{}{"00000000003": {}}

	got := FilterTop(opps, penny)
	equalIDs(t, got, "00000000002", "00000000004")
}

func TestFilterTop_NormalizesID(t *testing.T) {
	opps := []Opportunity{{ID: "0002-1433-80"}, {ID: "00003-0000-01"}}
	penny := map[string]struct{}{"00002143380": {}}

	got := FilterTop(opps, penny)
	equalIDs(t, got, "00003-0000-01")
}

func TestFilterTop_Empty(t *testing.T) {
	opps := []Opportunity{{ID: "1", PennyPricing: true}}
	if got := FilterTop(opps, nil); len(got) != 0 {
		t.Errorf("got %v, want empty", ids(got))
	}
	if got := FilterTop(nil, nil); len(got) != 0 {
		t.Errorf("got %v, want empty", ids(got))
	}
}

func TestFromAnalyses(t *testing.T) {
	analyses := []model.MarginAnalysis{
		analysis("0002-1433-80", "A", "10", false, true),
		analysis("12345678901", "B", "5", false, false),
	}
	opps := FromAnalyses(analyses)
	equalIDs(t, opps, "00002143380", "12345678901")
	if !opps[0].PennyPricing || opps[1].PennyPricing {
		t.Error("inline penny flag not carried from drug")
	}
	if opps[1].Analysis != &analyses[1] {
		t.Error("Analysis should point into the input slice")
	}
}

func TestRank_StableByDelta(t *testing.T) {
	analyses := []model.MarginAnalysis{
		analysis("1", "A", "10", false, false),
		analysis("2", "B", "30", false, false),
		analysis("3", "C", "10", false, false),
		analysis("4", "D", "-5", false, false),
		analysis("5", "E", "30", false, false),
	}
	opps := FromAnalyses(analyses)
	Rank(opps)
	equalIDs(t, opps, "00000000002", "00000000005", "00000000001", "00000000003", "00000000004")
}

func TestTop(t *testing.T) {
	opps := FromAnalyses([]model.MarginAnalysis{
		analysis("1", "A", "1", false, false),
		analysis("2", "B", "2", false, false),
		analysis("3", "C", "3", false, false),
	})
	if got := Top(opps, 2); len(got) != 2 {
		t.Errorf("Top(2) len = %d", len(got))
	}
	if got := Top(opps, 0); len(got) != 3 {
		t.Errorf("Top(0) len = %d", len(got))
	}
	if got := Top(opps, 10); len(got) != 3 {
		t.Errorf("Top(10) len = %d", len(got))
	}
}

func TestApply(t *testing.T) {
	analyses := []model.MarginAnalysis{
		analysis("11111-1111-11", "ENBREL", "500", true, false),
		analysis("22222-2222-22", "METFORMIN", "5", false, false),
		analysis("33333-3333-33", "CHEAPO", "900", false, true),
		analysis("44444-4444-44", "Eliquis", "120", true, false),
	}
	opps := FromAnalyses(analyses)

	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"no_criteria_ranks", Criteria{}, []string{"33333333333", "11111111111", "44444444444", "22222222222"}},
		{"search_name_case_insensitive", Criteria{Search: "eli"}, []string{"44444444444"}},
		{"search_ndc_dashed", Criteria{Search: "2222-22"}, []string{"22222222222"}},
		{"search_ndc_normalized", Criteria{Search: "33333333333"}, []string{"33333333333"}},
		{"ira_only", Criteria{IRAOnly: true}, []string{"11111111111", "44444444444"}},
		{"hide_penny", Criteria{HidePenny: true}, []string{"11111111111", "44444444444", "22222222222"}},
		{"min_delta_inclusive", Criteria{MinDelta: decimal.NewNullDecimal(decimal.NewFromInt(120))}, []string{"33333333333", "11111111111", "44444444444"}},
		{"combined", Criteria{IRAOnly: true, MinDelta: decimal.NewNullDecimal(decimal.NewFromInt(200))}, []string{"11111111111"}},
		{"nothing_matches", Criteria{Search: "HUMIRA"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(opps, tt.c)
			equalIDs(t, got, tt.want...)
		})
	}

	// Apply must not reorder its input.
	equalIDs(t, opps, "11111111111", "22222222222", "33333333333", "44444444444")
}

func TestAnalyses(t *testing.T) {
	analyses := []model.MarginAnalysis{
		analysis("1", "A", "1", false, false),
		analysis("2", "B", "2", false, false),
	}
	got := Analyses(FilterTop(FromAnalyses(analyses), map[string]struct{}{"00000000001": {}}))
	if len(got) != 1 || got[0].Drug.DrugName != "B" {
		t.Errorf("got %+v", got)
	}
}
