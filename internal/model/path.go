package model

import (
	"fmt"
	"strings"
)

// RecommendedPath is a site-of-care reimbursement pathway.
type RecommendedPath string

const (
	PathRetail            RecommendedPath = "RETAIL"
	PathMedicareMedical   RecommendedPath = "MEDICARE_MEDICAL"
	PathCommercialMedical RecommendedPath = "COMMERCIAL_MEDICAL"
)

// Label returns the display form, e.g. "MEDICARE MEDICAL".
func (p RecommendedPath) Label() string {
	return strings.ReplaceAll(string(p), "_", " ")
}

// ResolutionMode records how a MarginAnalysis picked its path.
type ResolutionMode string

const (
	// ModeBestOfThree compares every available pathway.
	ModeBestOfThree ResolutionMode = "BEST_OF_THREE"
	// ModeHeadToHead compares retail against one named payer.
	ModeHeadToHead ResolutionMode = "HEAD_TO_HEAD"
)

// Payer is a medical-channel payer used for head-to-head comparisons.
type Payer struct {
	Name string          // e.g. "MEDICARE"
	Path RecommendedPath // pathway chosen when this payer wins
}

var (
	PayerMedicare   = Payer{Name: "MEDICARE", Path: PathMedicareMedical}
	PayerCommercial = Payer{Name: "COMMERCIAL", Path: PathCommercialMedical}
)

// AllPayers lists the supported payers in canonical order.
var AllPayers = []Payer{PayerMedicare, PayerCommercial}

// PayerByName returns the Payer for the given name (case-insensitive), or ok=false.
func PayerByName(name string) (Payer, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for _, p := range AllPayers {
		if p.Name == n {
			return p, true
		}
	}
	return Payer{}, false
}

// ParsePayer is PayerByName returning an error for unknown names.
func ParsePayer(name string) (Payer, error) {
	p, ok := PayerByName(name)
	if !ok {
		return Payer{}, fmt.Errorf("unknown payer %q (want medicare or commercial)", name)
	}
	return p, nil
}
