package risk

import (
	"fmt"
	"strings"

	"github.com/gyeh/rx340b/internal/normalize"
)

// RiskLevel is the IRA risk label shown to users.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "High Risk"
	RiskLow     RiskLevel = "Low Risk"
	RiskUnknown RiskLevel = "Unknown"
)

// IRAStatus is the IRA assessment of one drug name.
type IRAStatus struct {
	IsIRA       bool
	Year        int    // 0 unless IsIRA
	MatchedName string // canonical registry name
	Description string
	Message     string
	RiskLevel   RiskLevel
}

// IRAMatch is a flagged IRAStatus together with the name that was checked.
type IRAMatch struct {
	IRAStatus
	InputName string
}

// Lookup classifies drugName against the registry: exact match first, then
// the first entry (in insertion order) where either name contains the other.
func (r *Registry) Lookup(drugName string) IRAStatus {
	key := normalize.DrugKey(drugName)
	if key == "" {
		return IRAStatus{Message: "No drug name provided", RiskLevel: RiskUnknown}
	}

	st := r.match(key, drugName)
	if st.IsIRA {
		if log := r.log.Load(); log != nil {
			log.Warn().Str("drug", drugName).Str("matched", st.MatchedName).Int("year", st.Year).Msg("ira negotiated drug")
		}
	}
	return st
}

func (r *Registry) match(key, drugName string) IRAStatus {
	t := r.table.Load()
	if idx, ok := t.byName[key]; ok {
		e := t.entries[idx]
		return IRAStatus{
			IsIRA:       true,
			Year:        e.Year,
			MatchedName: e.Name,
			Description: e.Description,
			Message: fmt.Sprintf("High Risk / IRA %d: %s is subject to Medicare price negotiation. "+
				"340B margins may be significantly reduced starting %d.", e.Year, drugName, e.Year),
			RiskLevel: RiskHigh,
		}
	}

	for _, e := range t.entries {
		if strings.Contains(key, e.Name) || strings.Contains(e.Name, key) {
			return IRAStatus{
				IsIRA:       true,
				Year:        e.Year,
				MatchedName: e.Name,
				Description: e.Description,
				Message: fmt.Sprintf("High Risk / IRA %d: %s appears to match %s, "+
					"which is subject to Medicare price negotiation.", e.Year, drugName, e.Name),
				RiskLevel: RiskHigh,
			}
		}
	}

	return IRAStatus{Message: "No IRA risk detected", RiskLevel: RiskLow}
}

// Filter returns the IRA assessments of the flagged names only, in input order.
func (r *Registry) Filter(names []string) []IRAMatch {
	var out []IRAMatch
	for _, name := range names {
		if st := r.Lookup(name); st.IsIRA {
			out = append(out, IRAMatch{IRAStatus: st, InputName: name})
		}
	}
	return out
}

// ClassifyIRA classifies drugName against the default registry.
func ClassifyIRA(drugName string) IRAStatus {
	return defaultRegistry.Lookup(drugName)
}

// FilterIRA filters names against the default registry.
func FilterIRA(names []string) []IRAMatch {
	return defaultRegistry.Filter(names)
}

// ReloadIRA replaces the default registry's table.
func ReloadIRA(rows []IRARow) (int, error) {
	return defaultRegistry.Reload(rows)
}
