package margin

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/model"
)

// Resolution is the outcome of comparing pathway margins.
type Resolution struct {
	Path  model.RecommendedPath
	Delta decimal.Decimal
	// Compared is false when RETAIL was the only candidate. Delta then equals
	// the retail margin and is not a gap between two pathways.
	Compared bool
}

type candidate struct {
	path   model.RecommendedPath
	margin decimal.Decimal
}

// Resolve picks the pathway with the highest margin. RETAIL is always a
// candidate; the medical paths join only when present. Ties go to the earlier
// of RETAIL, MEDICARE_MEDICAL, COMMERCIAL_MEDICAL.
func Resolve(retailNet decimal.Decimal, medicare, commercial decimal.NullDecimal) Resolution {
	candidates := make([]candidate, 1, 3)
	candidates[0] = candidate{path: model.PathRetail, margin: retailNet}
	if medicare.Valid {
		candidates = append(candidates, candidate{path: model.PathMedicareMedical, margin: medicare.Decimal})
	}
	if commercial.Valid {
		candidates = append(candidates, candidate{path: model.PathCommercialMedical, margin: commercial.Decimal})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].margin.GreaterThan(candidates[j].margin)
	})

	best := candidates[0]
	if len(candidates) == 1 {
		return Resolution{Path: best.path, Delta: best.margin}
	}
	return Resolution{
		Path:     best.path,
		Delta:    best.margin.Sub(candidates[1].margin),
		Compared: true,
	}
}
