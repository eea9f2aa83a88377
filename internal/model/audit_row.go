package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditRow is the exported, DB-ready form of a MarginAnalysis. Money stays
// exact; conversion to the wire type happens in the db package.
type AuditRow struct {
	RunID     uuid.UUID
	RowNumber int64

	NDC          string
	DrugName     string
	Manufacturer string
	HCPCSCode    *string

	ContractCost decimal.Decimal
	AWP          decimal.Decimal
	ASP          decimal.NullDecimal

	RetailGrossMargin decimal.Decimal
	RetailNetMargin   decimal.Decimal
	RetailCaptureRate decimal.Decimal
	MedicareMargin    decimal.NullDecimal
	CommercialMargin  decimal.NullDecimal

	Recommendation string
	MarginDelta    decimal.Decimal
	Compared       bool

	IRARisk      bool
	PennyPricing bool
}

// NewAuditRow builds the audit row for one analysis within a run.
func NewAuditRow(runID uuid.UUID, rowNum int64, a MarginAnalysis) *AuditRow {
	return &AuditRow{
		RunID:             runID,
		RowNumber:         rowNum,
		NDC:               a.Drug.NormalizedNDC(),
		DrugName:          a.Drug.DrugName,
		Manufacturer:      a.Drug.Manufacturer,
		HCPCSCode:         a.Drug.HCPCSCode,
		ContractCost:      a.Drug.ContractCost,
		AWP:               a.Drug.AWP,
		ASP:               a.Drug.ASP,
		RetailGrossMargin: a.RetailGrossMargin,
		RetailNetMargin:   a.RetailNetMargin,
		RetailCaptureRate: a.RetailCaptureRate,
		MedicareMargin:    a.MedicareMargin,
		CommercialMargin:  a.CommercialMargin,
		Recommendation:    string(a.RecommendedPath),
		MarginDelta:       a.MarginDelta,
		Compared:          a.Compared,
		IRARisk:           a.Drug.IRAFlag,
		PennyPricing:      a.Drug.PennyPricingFlag,
	}
}

// AuditColumns returns the ordered column names for COPY into report.margin_analyses.
func AuditColumns() []string {
	return []string{
		"run_id",
		"row_number",
		"ndc",
		"drug_name",
		"manufacturer",
		"hcpcs_code",
		"contract_cost",
		"awp",
		"asp",
		"retail_gross_margin",
		"retail_net_margin",
		"retail_capture_rate",
		"medicare_margin",
		"commercial_margin",
		"recommendation",
		"margin_delta",
		"compared",
		"ira_risk",
		"penny_pricing",
	}
}
