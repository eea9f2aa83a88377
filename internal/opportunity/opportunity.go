// Package opportunity turns margin analyses into the ranked list of drugs
// worth acting on, keeping penny-priced drugs out of it.
package opportunity

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/normalize"
)

// Opportunity is a candidate for the top opportunities list.
type Opportunity struct {
	ID           string // NDC11
	PennyPricing bool   // inline penny signal
	Analysis     *model.MarginAnalysis
}

// FromAnalyses wraps analyses as opportunities, keyed by normalized NDC.
func FromAnalyses(analyses []model.MarginAnalysis) []Opportunity {
	out := make([]Opportunity, len(analyses))
	for i := range analyses {
		out[i] = Opportunity{
			ID:           analyses[i].Drug.NormalizedNDC(),
			PennyPricing: analyses[i].Drug.PennyPricingFlag,
			Analysis:     &analyses[i],
		}
	}
	return out
}

// FilterTop drops every opportunity whose ID is in pennyIDs or whose inline
// flag is set. Either signal is enough. Order is preserved.
func FilterTop(opps []Opportunity, pennyIDs map[string]struct{}) []Opportunity {
	out := make([]Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.PennyPricing {
			continue
		}
		if _, penny := pennyIDs[normalize.NDC11(o.ID)]; penny {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Rank sorts opportunities by MarginDelta, largest first. Ties keep their
// input order.
func Rank(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].delta().GreaterThan(opps[j].delta())
	})
}

func (o Opportunity) delta() decimal.Decimal {
	if o.Analysis == nil {
		return decimal.Zero
	}
	return o.Analysis.MarginDelta
}

// Top returns at most n opportunities; n < 1 means all of them.
func Top(opps []Opportunity, n int) []Opportunity {
	if n < 1 || n >= len(opps) {
		return opps
	}
	return opps[:n]
}

// Criteria narrows an opportunity list the way the dashboard filters do.
type Criteria struct {
	Search    string // case-insensitive match on drug name or NDC
	IRAOnly   bool
	HidePenny bool
	MinDelta  decimal.NullDecimal
}

// Apply filters opps by c and returns the survivors ranked by MarginDelta.
func Apply(opps []Opportunity, c Criteria) []Opportunity {
	search := strings.ToUpper(strings.TrimSpace(c.Search))
	out := make([]Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.Analysis == nil {
			continue
		}
		d := o.Analysis.Drug
		if search != "" &&
			!strings.Contains(strings.ToUpper(d.DrugName), search) &&
			!strings.Contains(strings.ToUpper(d.NDC), search) &&
			!strings.Contains(o.ID, search) {
			continue
		}
		if c.IRAOnly && !d.IRAFlag {
			continue
		}
		if c.HidePenny && (o.PennyPricing || d.PennyPricingFlag) {
			continue
		}
		if c.MinDelta.Valid && o.Analysis.MarginDelta.LessThan(c.MinDelta.Decimal) {
			continue
		}
		out = append(out, o)
	}
	Rank(out)
	return out
}

// Analyses unwraps opportunities back to their analyses.
func Analyses(opps []Opportunity) []model.MarginAnalysis {
	out := make([]model.MarginAnalysis, 0, len(opps))
	for _, o := range opps {
		if o.Analysis != nil {
			out = append(out, *o.Analysis)
		}
	}
	return out
}
