package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/normalize"
)

var (
	// HighDiscountThreshold is the 340B discount percentage at or above which
	// a drug is considered penny priced.
	HighDiscountThreshold = decimal.RequireFromString("95.0")
	// PennyPriceThreshold is the NADAC per-unit price at or below which a
	// drug is considered penny priced.
	PennyPriceThreshold = decimal.RequireFromString("0.10")
)

// PricingRecord is one NADAC-style pricing row. Absent fields are nil/invalid.
type PricingRecord struct {
	NDC          string
	PennyPricing *bool
	DiscountPct  decimal.NullDecimal
	NADACPerUnit decimal.NullDecimal
}

// PennyTrigger names the rule that flagged a record.
type PennyTrigger string

const (
	TriggerExplicitFlag PennyTrigger = "explicit_flag"
	TriggerHighDiscount PennyTrigger = "high_discount"
	TriggerLowNADAC     PennyTrigger = "low_nadac"
)

// PennyFlag is a record that must be kept out of top opportunities.
type PennyFlag struct {
	NDC           string
	Triggers      []PennyTrigger
	Reasons       []string
	DiscountPct   decimal.NullDecimal
	NADACPerUnit  decimal.NullDecimal
	Message       string
	ShouldExclude bool
}

// Reason joins every fired reason.
func (f PennyFlag) Reason() string {
	return strings.Join(f.Reasons, "; ")
}

// Evaluate applies the penny pricing rules to one record. Triggers are
// checked in a fixed order and all that fire are reported.
func Evaluate(rec PricingRecord) (PennyFlag, bool) {
	f := PennyFlag{
		NDC:          rec.NDC,
		DiscountPct:  rec.DiscountPct,
		NADACPerUnit: rec.NADACPerUnit,
	}
	if rec.PennyPricing != nil && *rec.PennyPricing {
		f.Triggers = append(f.Triggers, TriggerExplicitFlag)
		f.Reasons = append(f.Reasons, "Penny pricing flag is set")
	}
	if rec.DiscountPct.Valid && rec.DiscountPct.Decimal.GreaterThanOrEqual(HighDiscountThreshold) {
		f.Triggers = append(f.Triggers, TriggerHighDiscount)
		f.Reasons = append(f.Reasons, fmt.Sprintf("340B discount is %s%%", rec.DiscountPct.Decimal.StringFixed(1)))
	}
	if rec.NADACPerUnit.Valid && rec.NADACPerUnit.Decimal.LessThanOrEqual(PennyPriceThreshold) {
		f.Triggers = append(f.Triggers, TriggerLowNADAC)
		f.Reasons = append(f.Reasons, fmt.Sprintf("NADAC price is $%s", rec.NADACPerUnit.Decimal.StringFixed(4)))
	}
	if len(f.Triggers) == 0 {
		return PennyFlag{}, false
	}
	f.ShouldExclude = true
	f.Message = fmt.Sprintf("Penny Pricing Alert: %s - %s. This drug should NOT appear in Top Opportunities.",
		rec.NDC, f.Reason())
	return f, true
}

// ClassifyPennyPricing returns a flag for every penny-priced record, in input order.
func ClassifyPennyPricing(records []PricingRecord) []PennyFlag {
	var out []PennyFlag
	for _, rec := range records {
		if f, ok := Evaluate(rec); ok {
			out = append(out, f)
		}
	}
	return out
}

// PennySet returns the NDC11 keys of flags.
func PennySet(flags []PennyFlag) map[string]struct{} {
	set := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		if key := normalize.NDC11(f.NDC); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// PennyStatus is the penny pricing assessment of a single NDC.
type PennyStatus struct {
	IsPennyPriced bool
	NDC           string
	Reasons       []string
	DiscountPct   decimal.NullDecimal
	NADACPerUnit  decimal.NullDecimal
	Message       string
	ShouldExclude bool
}

// PennyStatusFor looks ndc up in records (NDC11 match, first record wins)
// and evaluates it. A nil records slice means no pricing data was loaded.
func PennyStatusFor(ndc string, records []PricingRecord) PennyStatus {
	if records == nil {
		return PennyStatus{NDC: ndc, Message: "NADAC data not available"}
	}
	key := normalize.NDC11(ndc)
	if key != "" {
		for _, rec := range records {
			if normalize.NDC11(rec.NDC) != key {
				continue
			}
			st := PennyStatus{
				NDC:          ndc,
				DiscountPct:  rec.DiscountPct,
				NADACPerUnit: rec.NADACPerUnit,
			}
			f, ok := Evaluate(PricingRecord{
				NDC:          ndc,
				PennyPricing: rec.PennyPricing,
				DiscountPct:  rec.DiscountPct,
				NADACPerUnit: rec.NADACPerUnit,
			})
			if !ok {
				st.Message = "No penny pricing detected"
				return st
			}
			st.IsPennyPriced = true
			st.Reasons = f.Reasons
			st.Message = f.Message
			st.ShouldExclude = true
			return st
		}
	}
	return PennyStatus{NDC: ndc, Message: "NDC not found in NADAC data"}
}

// PennySummary aggregates penny pricing over a pricing file.
type PennySummary struct {
	Total       int
	Flagged     int
	FlaggedPct  decimal.Decimal // two decimal places
	FlaggedNDCs []string
}

// SummarizePenny counts penny-priced records.
func SummarizePenny(records []PricingRecord) PennySummary {
	flags := ClassifyPennyPricing(records)
	s := PennySummary{
		Total:       len(records),
		Flagged:     len(flags),
		FlaggedPct:  decimal.Zero,
		FlaggedNDCs: make([]string, 0, len(flags)),
	}
	for _, f := range flags {
		s.FlaggedNDCs = append(s.FlaggedNDCs, f.NDC)
	}
	if s.Total > 0 {
		s.FlaggedPct = decimal.NewFromInt(int64(s.Flagged)).
			Mul(decimal.NewFromInt(100)).
			DivRound(decimal.NewFromInt(int64(s.Total)), 2)
	}
	return s
}
