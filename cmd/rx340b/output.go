package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/db"
	"github.com/gyeh/rx340b/internal/margin"
	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/opportunity"
)

// money formats an exact amount for display.
func money(d decimal.Decimal) string {
	abs := d.Abs().Round(2)
	fixed := abs.StringFixed(2)
	s := "$" + humanize.Comma(abs.IntPart()) + fixed[len(fixed)-3:]
	if d.Round(2).IsNegative() {
		return "-" + s
	}
	return s
}

func optMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return money(d.Decimal)
}

// delta renders MarginDelta; a lone retail candidate has nothing to compare.
func delta(a *model.MarginAnalysis) string {
	if !a.Compared {
		return "n/a"
	}
	return money(a.MarginDelta)
}

func optPct(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(1)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func renderOpportunities(w io.Writer, format string, opps []opportunity.Opportunity) error {
	if format == "json" {
		records := make([]model.DisplayRecord, 0, len(opps))
		for _, o := range opps {
			records = append(records, o.Analysis.DisplayRecord())
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NDC\tDRUG\tRECOMMENDATION\tBEST MARGIN\tDELTA\tIRA\tPENNY")
	for _, o := range opps {
		a := o.Analysis
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, a.Drug.DrugName, a.RecommendedPath.Label(), money(a.BestMargin()), delta(a),
			yesNo(a.Drug.IRAFlag), yesNo(a.Drug.PennyPricingFlag || o.PennyPricing))
	}
	return tw.Flush()
}

// renderExportTotals summarizes what an export wrote, as read back from the
// report tables.
func renderExportTotals(w io.Writer, s *model.RunSummary, totals []db.RecommendationTotal) {
	fmt.Fprintf(w, "Exported %d rows as run %s\n", s.RowsExported, s.RunID)
	for _, t := range totals {
		fmt.Fprintf(w, "  %-20s %4d rows  delta %s\n",
			model.RecommendedPath(t.Recommendation).Label(), t.Count, money(t.DeltaSum))
	}
}

func renderSensitivity(w io.Writer, d model.Drug, rows []margin.SensitivityRow) error {
	fmt.Fprintf(w, "%s (%s)\n", d.DrugName, d.NDC)
	if !d.HasMedicalPath() {
		fmt.Fprintln(w, "No medical path: Medicare and commercial margins shown as $0.00")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CAPTURE RATE\tRETAIL NET\tMEDICARE\tCOMMERCIAL\tRECOMMENDATION")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s%%\t%s\t%s\t%s\t%s\n",
			r.CaptureRate.Shift(2).StringFixed(0), money(r.RetailNet), money(r.Medicare), money(r.Commercial),
			r.Recommended.Label())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if c, ok := margin.FindCrossover(rows); ok {
		fmt.Fprintf(w, "Crossover at %s%% capture: %s\n", c.Rate.Shift(2).StringFixed(0), c.Direction)
	}
	return nil
}
