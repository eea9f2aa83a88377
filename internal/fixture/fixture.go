// Package fixture builds small, representative catalog and NADAC data sets
// and writes them as Parquet. Used by tests and cmd/mkfixture.
package fixture

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/rx340b/internal/model"
)

func str(s string) *string   { return &s }
func units(n int32) *int32   { return &n }
func flag(b bool) *bool      { return &b }
func num(f float64) *float64 { return &f }

// Catalog returns one row per interesting case: medical-path drugs where
// commercial or retail wins, retail-only drugs, IRA drugs, a penny-priced
// drug and a few rows the adapter must reject or repair.
func Catalog() []model.CatalogRow {
	return []model.CatalogRow{
		{
			NDC: "55513-0710-01", DrugName: "NEULASTA", Manufacturer: str("Amgen"),
			ContractCost: "150.00", AWP: "6500.00", ASP: str("2800.00"),
			HCPCSCode: str("J2505"), BillUnitsPerPackage: units(2),
			TherapeuticClass: str("Hematopoietic"), IsBiologic: flag(true),
		},
		{
			NDC: "58406-0435-04", DrugName: "ENBREL", Manufacturer: str("Amgen"),
			ContractCost: "1200.00", AWP: "7100.00", ASP: str("1500.00"),
			HCPCSCode: str("J1438"), BillUnitsPerPackage: units(4),
			TherapeuticClass: str("Autoimmune"), IsBiologic: flag(true),
		},
		{
			NDC: "0003-0894-21", DrugName: "Eliquis", Manufacturer: str("Bristol-Myers Squibb"),
			ContractCost: "$12.50", AWP: "$640.00",
			TherapeuticClass: str("Anticoagulant"),
		},
		{
			NDC: "00093-7214-01", DrugName: "METFORMIN HCL ER", Manufacturer: str("Teva"),
			ContractCost: "0.01", AWP: "45.00",
		},
		{
			NDC: "63323-0262-01", DrugName: "HEPARIN SODIUM", Manufacturer: str("Fresenius"),
			ContractCost: "100.00", AWP: "1000.00", ASP: str("400.00"),
			HCPCSCode: str("J1644"), BillUnitsPerPackage: units(1),
		},
		{
			// ASP without HCPCS: the adapter drops the medical path.
			NDC: "00069-0187-30", DrugName: "LIPITOR", Manufacturer: str("Pfizer"),
			ContractCost: "25.00", AWP: "380.00", ASP: str("3.10"),
		},
		{
			// Unparsable contract cost: rejected.
			NDC: "00002-8215-01", DrugName: "HUMALOG", ContractCost: "call for price", AWP: "310.00",
		},
		{
			// No NDC: rejected.
			NDC: "", DrugName: "UNKNOWN", ContractCost: "1.00", AWP: "2.00",
		},
	}
}

// NADAC returns pricing rows matching Catalog. METFORMIN carries every
// penny signal and ELIQUIS only a high discount.
func NADAC() []model.NADACRow {
	return []model.NADACRow{
		{NDC: "00093721401", PennyPricing: flag(true), TotalDiscount340BPct: num(99.9), NADACPerUnit: num(0.02)},
		{NDC: "58406043504", PennyPricing: flag(false), TotalDiscount340BPct: num(83.1), NADACPerUnit: num(1775.0)},
		{NDC: "00003089421", PennyPricing: flag(false), TotalDiscount340BPct: num(98.0)},
		{NDC: "55513071001", TotalDiscount340BPct: num(62.4)},
	}
}

// WriteParquet writes rows to path.
func WriteParquet[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer %s: %w", path, err)
	}
	return f.Close()
}
