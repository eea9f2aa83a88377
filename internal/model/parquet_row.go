package model

// CatalogRow mirrors the Parquet schema of a joined drug catalog: one row per
// NDC with its 340B cost, AWP, and (when crosswalked) HCPCS billing data.
// Money columns are strings so they can be parsed as exact decimals.
type CatalogRow struct {
	NDC          string  `parquet:"ndc"`
	DrugName     string  `parquet:"drug_name"`
	Manufacturer *string `parquet:"manufacturer,optional"`

	ContractCost string  `parquet:"contract_cost"`
	AWP          string  `parquet:"awp"`
	ASP          *string `parquet:"asp,optional"`

	HCPCSCode           *string `parquet:"hcpcs_code,optional"`
	BillUnitsPerPackage *int32  `parquet:"bill_units_per_package,optional"`

	TherapeuticClass *string `parquet:"therapeutic_class,optional"`
	IsBiologic       *bool   `parquet:"is_biologic,optional"`
}

// CatalogRequiredColumns are the columns every catalog file must carry.
var CatalogRequiredColumns = []string{"ndc", "drug_name", "contract_cost", "awp"}

// NADACRow mirrors the Parquet schema of NADAC-derived statistics used for
// penny-pricing detection. Every signal column is optional.
type NADACRow struct {
	NDC                  string   `parquet:"ndc"`
	PennyPricing         *bool    `parquet:"penny_pricing,optional"`
	TotalDiscount340BPct *float64 `parquet:"total_discount_340b_pct,optional"`
	NADACPerUnit         *float64 `parquet:"nadac_per_unit,optional"`
}

// NADACSignalColumns lists the NADAC columns that can trigger a penny flag;
// a usable file carries at least one of them.
var NADACSignalColumns = []string{"penny_pricing", "total_discount_340b_pct", "nadac_per_unit"}
