// Package margin computes per-pathway 340B margins for a drug and resolves
// the most profitable site of care. Every function here is pure: no logging,
// no shared state, exact decimal arithmetic only.
package margin

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/model"
)

// Pricing constants.
var (
	// AWPDiscountFactor is the share of AWP retail pharmacies are reimbursed.
	AWPDiscountFactor = decimal.RequireFromString("0.85")
	// MedicareASPMultiplier is Medicare Part B's ASP + 6%.
	MedicareASPMultiplier = decimal.RequireFromString("1.06")
	// CommercialASPMultiplier is the commercial medical benefit's ASP + 15%.
	CommercialASPMultiplier = decimal.RequireFromString("1.15")
	// DefaultCaptureRate is the retail capture rate used when none is given.
	DefaultCaptureRate = decimal.RequireFromString("0.45")
)

var one = decimal.NewFromInt(1)

// ClampCaptureRate limits a capture rate to [0, 1].
func ClampCaptureRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThan(one) {
		return one
	}
	return rate
}

// ValidCaptureRate reports whether rate lies in [0, 1].
func ValidCaptureRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(one)
}

// RetailMargin returns the retail gross margin (AWP × 0.85 − contract cost)
// and the net margin after applying the capture rate. Rates outside [0, 1]
// are clamped.
func RetailMargin(d model.Drug, captureRate decimal.Decimal) (gross, net decimal.Decimal) {
	gross = d.AWP.Mul(AWPDiscountFactor).Sub(d.ContractCost)
	net = gross.Mul(ClampCaptureRate(captureRate))
	return gross, net
}

// MedicareMargin returns ASP × 1.06 × bill units − contract cost, or an
// invalid NullDecimal when the drug has no medical path.
func MedicareMargin(d model.Drug) decimal.NullDecimal {
	return medicalMargin(d, MedicareASPMultiplier)
}

// CommercialMargin returns ASP × 1.15 × bill units − contract cost, or an
// invalid NullDecimal when the drug has no medical path.
func CommercialMargin(d model.Drug) decimal.NullDecimal {
	return medicalMargin(d, CommercialASPMultiplier)
}

func medicalMargin(d model.Drug, multiplier decimal.Decimal) decimal.NullDecimal {
	if !d.HasMedicalPath() {
		return decimal.NullDecimal{}
	}
	revenue := d.ASP.Decimal.Mul(multiplier).Mul(decimal.NewFromInt(int64(d.BillUnits())))
	return decimal.NewNullDecimal(revenue.Sub(d.ContractCost))
}
