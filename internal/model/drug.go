package model

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/normalize"
)

// Drug is one priced product from the 340B catalog. It is a value: the risk
// flags are attached by returning a copy from WithRiskFlags.
type Drug struct {
	NDC          string
	DrugName     string
	Manufacturer string

	// Per-package 340B acquisition cost and average wholesale price.
	ContractCost decimal.Decimal
	AWP          decimal.Decimal

	// Medical billing inputs. ASP is per billing unit; either one missing
	// means the drug has no medical path.
	ASP                 decimal.NullDecimal
	HCPCSCode           *string
	BillUnitsPerPackage int

	TherapeuticClass *string
	IsBiologic       bool

	IRAFlag          bool
	PennyPricingFlag bool
}

// HasMedicalPath reports whether the drug can be billed through the medical
// channel, which requires both an HCPCS code and an ASP.
func (d Drug) HasMedicalPath() bool {
	return d.HCPCSCode != nil && d.ASP.Valid
}

// BillUnits returns BillUnitsPerPackage, treating non-positive values as 1.
func (d Drug) BillUnits() int {
	if d.BillUnitsPerPackage < 1 {
		return 1
	}
	return d.BillUnitsPerPackage
}

// NormalizedNDC returns the canonical 11-digit NDC.
func (d Drug) NormalizedNDC() string {
	return normalize.NDC11(d.NDC)
}

// WithRiskFlags returns a copy of d carrying the given IRA and penny-pricing flags.
func (d Drug) WithRiskFlags(ira, penny bool) Drug {
	d.IRAFlag = ira
	d.PennyPricingFlag = penny
	return d
}
