// Package catalog adapts Parquet catalog and NADAC rows into the types the
// margin engine and risk classifier work on.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/normalize"
	"github.com/gyeh/rx340b/internal/risk"
)

// RowError describes a catalog row that could not be used as-is.
type RowError struct {
	Row int64
	NDC string
	Err error
}

func (e *RowError) Error() string {
	if e.NDC == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d (ndc %s): %s", e.Row, e.NDC, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ToDrug converts one catalog row. Warnings are non-fatal adjustments; a
// non-nil error means the row must be rejected.
func ToDrug(row *model.CatalogRow) (model.Drug, []string, error) {
	var warnings []string

	ndc := strings.TrimSpace(row.NDC)
	if normalize.NDC11(ndc) == "" {
		return model.Drug{}, nil, fmt.Errorf("missing ndc")
	}
	name := strings.TrimSpace(row.DrugName)
	if name == "" {
		return model.Drug{}, nil, fmt.Errorf("missing drug_name")
	}

	cost, err := normalize.ParseDecimal(row.ContractCost)
	if err != nil {
		return model.Drug{}, nil, fmt.Errorf("contract_cost: %w", err)
	}
	awp, err := normalize.ParseDecimal(row.AWP)
	if err != nil {
		return model.Drug{}, nil, fmt.Errorf("awp: %w", err)
	}
	asp, err := normalize.ParseOptionalDecimal(row.ASP)
	if err != nil {
		return model.Drug{}, nil, fmt.Errorf("asp: %w", err)
	}

	hcpcs := normalize.NormalizeCode(row.HCPCSCode)
	if asp.Valid && hcpcs == nil {
		warnings = append(warnings, "asp without hcpcs_code; no medical path")
		asp = decimal.NullDecimal{}
	}

	units := 1
	if row.BillUnitsPerPackage != nil {
		if *row.BillUnitsPerPackage > 0 {
			units = int(*row.BillUnitsPerPackage)
		} else {
			warnings = append(warnings, fmt.Sprintf("bill_units_per_package %d; using 1", *row.BillUnitsPerPackage))
		}
	}

	d := model.Drug{
		NDC:                 ndc,
		DrugName:            name,
		ContractCost:        cost,
		AWP:                 awp,
		ASP:                 asp,
		HCPCSCode:           hcpcs,
		BillUnitsPerPackage: units,
		TherapeuticClass:    trimmed(row.TherapeuticClass),
	}
	if row.Manufacturer != nil {
		d.Manufacturer = strings.TrimSpace(*row.Manufacturer)
	}
	if row.IsBiologic != nil {
		d.IsBiologic = *row.IsBiologic
	}
	return d, warnings, nil
}

// ToPricingRecord converts one NADAC row for the penny pricing classifier.
func ToPricingRecord(row *model.NADACRow) risk.PricingRecord {
	return risk.PricingRecord{
		NDC:          strings.TrimSpace(row.NDC),
		PennyPricing: row.PennyPricing,
		DiscountPct:  normalize.DecimalFromFloat(row.TotalDiscount340BPct),
		NADACPerUnit: normalize.DecimalFromFloat(row.NADACPerUnit),
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
