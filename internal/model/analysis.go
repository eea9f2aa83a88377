package model

import "github.com/shopspring/decimal"

// MarginAnalysis is the margin breakdown of one drug at one capture rate.
type MarginAnalysis struct {
	Drug Drug

	RetailGrossMargin decimal.Decimal
	RetailNetMargin   decimal.Decimal
	RetailCaptureRate decimal.Decimal

	// Invalid when the drug has no medical path.
	MedicareMargin   decimal.NullDecimal
	CommercialMargin decimal.NullDecimal

	RecommendedPath RecommendedPath
	MarginDelta     decimal.Decimal

	// Compared is false when RETAIL was the only candidate; MarginDelta then
	// holds the retail margin itself rather than a gap between two paths.
	Compared bool
	Mode     ResolutionMode
}

// BestMargin returns the margin of the recommended path.
func (a MarginAnalysis) BestMargin() decimal.Decimal {
	switch a.RecommendedPath {
	case PathMedicareMedical:
		if a.MedicareMargin.Valid {
			return a.MedicareMargin.Decimal
		}
	case PathCommercialMedical:
		if a.CommercialMargin.Valid {
			return a.CommercialMargin.Decimal
		}
	}
	return a.RetailNetMargin
}

// DisplayRecord is the flattened, JSON-ready view of a MarginAnalysis.
// Money values are float64 for display only; nil means "not applicable".
type DisplayRecord struct {
	NDC               string   `json:"ndc"`
	DrugName          string   `json:"drug_name"`
	Manufacturer      string   `json:"manufacturer"`
	ContractCost      float64  `json:"contract_cost"`
	AWP               float64  `json:"awp"`
	ASP               *float64 `json:"asp"`
	RetailGrossMargin float64  `json:"retail_gross_margin"`
	RetailNetMargin   float64  `json:"retail_net_margin"`
	RetailCaptureRate float64  `json:"retail_capture_rate"`
	MedicareMargin    *float64 `json:"medicare_margin"`
	CommercialMargin  *float64 `json:"commercial_margin"`
	Recommendation    string   `json:"recommendation"`
	MarginDelta       float64  `json:"margin_delta"`
	IRARisk           bool     `json:"ira_risk"`
	PennyPricing      bool     `json:"penny_pricing"`
}

// DisplayRecord flattens the analysis for audit and display.
func (a MarginAnalysis) DisplayRecord() DisplayRecord {
	return DisplayRecord{
		NDC:               a.Drug.NDC,
		DrugName:          a.Drug.DrugName,
		Manufacturer:      a.Drug.Manufacturer,
		ContractCost:      a.Drug.ContractCost.InexactFloat64(),
		AWP:               a.Drug.AWP.InexactFloat64(),
		ASP:               optFloat(a.Drug.ASP),
		RetailGrossMargin: a.RetailGrossMargin.InexactFloat64(),
		RetailNetMargin:   a.RetailNetMargin.InexactFloat64(),
		RetailCaptureRate: a.RetailCaptureRate.InexactFloat64(),
		MedicareMargin:    optFloat(a.MedicareMargin),
		CommercialMargin:  optFloat(a.CommercialMargin),
		Recommendation:    string(a.RecommendedPath),
		MarginDelta:       a.MarginDelta.InexactFloat64(),
		IRARisk:           a.Drug.IRAFlag,
		PennyPricing:      a.Drug.PennyPricingFlag,
	}
}

func optFloat(v decimal.NullDecimal) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Decimal.InexactFloat64()
	return &f
}
