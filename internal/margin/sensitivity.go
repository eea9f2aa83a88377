package margin

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/model"
)

// DefaultSensitivityRates returns the capture rates evaluated when none are given.
func DefaultSensitivityRates() []decimal.Decimal {
	return []decimal.Decimal{
		decimal.RequireFromString("0.40"),
		decimal.RequireFromString("0.45"),
		decimal.RequireFromString("0.60"),
		decimal.RequireFromString("0.80"),
		decimal.RequireFromString("1.00"),
	}
}

// SensitivityRow is one capture-rate scenario. Medicare and Commercial are
// zero, not absent, when the drug has no medical path; HasMedicalPath tells
// the two cases apart.
type SensitivityRow struct {
	CaptureRate    decimal.Decimal
	RetailNet      decimal.Decimal
	Medicare       decimal.Decimal
	Commercial     decimal.Decimal
	Recommended    model.RecommendedPath
	HasMedicalPath bool
}

// Sensitivity evaluates the retail net margin and recommendation at each
// capture rate, in the order given. Nil or empty rates use DefaultSensitivityRates.
func Sensitivity(d model.Drug, rates []decimal.Decimal) []SensitivityRow {
	if len(rates) == 0 {
		rates = DefaultSensitivityRates()
	}
	medicare := MedicareMargin(d)
	commercial := CommercialMargin(d)

	rows := make([]SensitivityRow, len(rates))
	for i, rate := range rates {
		rate = ClampCaptureRate(rate)
		_, net := RetailMargin(d, rate)
		rows[i] = SensitivityRow{
			CaptureRate:    rate,
			RetailNet:      net,
			Medicare:       orZero(medicare),
			Commercial:     orZero(commercial),
			Recommended:    Resolve(net, medicare, commercial).Path,
			HasMedicalPath: d.HasMedicalPath(),
		}
	}
	return rows
}

func orZero(v decimal.NullDecimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return decimal.Zero
}

// CrossoverDirection says which channel becomes more profitable at a crossover.
type CrossoverDirection string

const (
	// RetailOvertakesMedical: from Rate on, retail beats commercial medical.
	RetailOvertakesMedical CrossoverDirection = "RETAIL_OVERTAKES_MEDICAL"
	// MedicalOvertakesRetail: from Rate on, commercial medical beats retail.
	MedicalOvertakesRetail CrossoverDirection = "MEDICAL_OVERTAKES_RETAIL"
)

// Crossover marks where retail and commercial medical swap places between
// two consecutive sensitivity rows.
type Crossover struct {
	Rate      decimal.Decimal
	Direction CrossoverDirection
}

// FindCrossover returns the first crossover between retail net and commercial
// medical margin across consecutive rows. Drugs without a medical path never
// cross over.
func FindCrossover(rows []SensitivityRow) (Crossover, bool) {
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if !cur.HasMedicalPath {
			continue
		}
		prevRetailBehind := prev.RetailNet.LessThan(prev.Commercial)
		curRetailBehind := cur.RetailNet.LessThan(cur.Commercial)
		switch {
		case prevRetailBehind && !curRetailBehind:
			return Crossover{Rate: cur.CaptureRate, Direction: RetailOvertakesMedical}, true
		case !prevRetailBehind && curRetailBehind:
			return Crossover{Rate: cur.CaptureRate, Direction: MedicalOvertakesRetail}, true
		}
	}
	return Crossover{}, false
}
