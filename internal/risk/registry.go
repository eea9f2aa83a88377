// Package risk flags drugs whose 340B opportunity is undermined by Medicare
// price negotiation (IRA) or by penny pricing.
package risk

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/gyeh/rx340b/internal/normalize"
)

// IRARow is one registry row as read from a file or table.
type IRARow struct {
	DrugName    string
	Year        int
	Description string
}

// IRAEntry is one negotiated drug: canonical name, the year negotiated
// pricing takes effect, and a short description.
type IRAEntry struct {
	Name        string
	Year        int
	Description string
}

type iraTable struct {
	version uint64
	entries []IRAEntry     // insertion order; substring matching walks this
	byName  map[string]int // name → index into entries
}

func buildTable(rows []IRARow) (*iraTable, error) {
	t := &iraTable{
		entries: make([]IRAEntry, 0, len(rows)),
		byName:  make(map[string]int, len(rows)),
	}
	for i, row := range rows {
		name := normalize.DrugKey(row.DrugName)
		if name == "" {
			return nil, fmt.Errorf("row %d: empty drug name", i+1)
		}
		if row.Year <= 0 {
			return nil, fmt.Errorf("row %d (%s): invalid year %d", i+1, name, row.Year)
		}
		e := IRAEntry{Name: name, Year: row.Year, Description: row.Description}
		if idx, ok := t.byName[name]; ok {
			t.entries[idx] = e
			continue
		}
		t.byName[name] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// Registry is the process-wide table of IRA-negotiated drugs. Readers always
// see one complete table; Reload swaps in a new one atomically.
type Registry struct {
	table atomic.Pointer[iraTable]
	log   atomic.Pointer[zerolog.Logger]
}

// NewRegistry builds a registry from rows. Names are normalized to upper
// case; a repeated name keeps its first position and its last year/description.
func NewRegistry(rows []IRARow) (*Registry, error) {
	t, err := buildTable(rows)
	if err != nil {
		return nil, err
	}
	t.version = 1
	r := &Registry{}
	r.table.Store(t)
	return r, nil
}

// Reload validates rows and replaces the whole table. On error the current
// table is left untouched. Returns the number of entries now loaded.
func (r *Registry) Reload(rows []IRARow) (int, error) {
	next, err := buildTable(rows)
	if err != nil {
		return 0, fmt.Errorf("reload ira registry: %w", err)
	}
	for {
		cur := r.table.Load()
		next.version = cur.version + 1
		if r.table.CompareAndSwap(cur, next) {
			return len(next.entries), nil
		}
	}
}

// WithLogger makes Lookup warn on every IRA hit.
func (r *Registry) WithLogger(log zerolog.Logger) *Registry {
	r.log.Store(&log)
	return r
}

// Version increments on every successful Reload.
func (r *Registry) Version() uint64 {
	return r.table.Load().version
}

// Len returns the number of registered drugs.
func (r *Registry) Len() int {
	return len(r.table.Load().entries)
}

// Entries returns a copy of the registered drugs in insertion order.
func (r *Registry) Entries() []IRAEntry {
	t := r.table.Load()
	out := make([]IRAEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

var defaultRegistry = mustRegistry(BuiltinIRAEntries())

func mustRegistry(rows []IRARow) *Registry {
	r, err := NewRegistry(rows)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the process-wide registry, seeded with the built-in cohorts.
func Default() *Registry {
	return defaultRegistry
}

// BuiltinIRAEntries returns the 2026 and 2027 negotiation cohorts.
func BuiltinIRAEntries() []IRARow {
	return []IRARow{
		// 2026: selected August 2023
		{"ELIQUIS", 2026, "Blood thinner (apixaban)"},
		{"JARDIANCE", 2026, "Diabetes (empagliflozin)"},
		{"XARELTO", 2026, "Blood thinner (rivaroxaban)"},
		{"JANUVIA", 2026, "Diabetes (sitagliptin)"},
		{"FARXIGA", 2026, "Diabetes/Heart failure (dapagliflozin)"},
		{"ENTRESTO", 2026, "Heart failure (sacubitril/valsartan)"},
		{"ENBREL", 2026, "Autoimmune (etanercept)"},
		{"IMBRUVICA", 2026, "Cancer (ibrutinib)"},
		{"STELARA", 2026, "Autoimmune (ustekinumab)"},
		{"FIASP", 2026, "Insulin (insulin aspart)"},
		{"FIASP FLEXTOUCH", 2026, "Insulin (insulin aspart)"},
		{"FIASP PENFILL", 2026, "Insulin (insulin aspart)"},
		{"NOVOLOG", 2026, "Insulin (insulin aspart)"},
		{"NOVOLOG FLEXPEN", 2026, "Insulin (insulin aspart)"},
		{"NOVOLOG MIX", 2026, "Insulin (insulin aspart)"},

		// 2027: selected August 2024
		{"OZEMPIC", 2027, "Diabetes/Weight loss (semaglutide)"},
		{"RYBELSUS", 2027, "Diabetes (oral semaglutide)"},
		{"WEGOVY", 2027, "Weight loss (semaglutide)"},
		{"TRELEGY ELLIPTA", 2027, "COPD (fluticasone/umeclidinium/vilanterol)"},
		{"TRULICITY", 2027, "Diabetes (dulaglutide)"},
		{"POMALYST", 2027, "Cancer (pomalidomide)"},
		{"AUSTEDO", 2027, "Movement disorders (deutetrabenazine)"},
		{"IBRANCE", 2027, "Cancer (palbociclib)"},
		{"OTEZLA", 2027, "Autoimmune (apremilast)"},
		{"COSENTYX", 2027, "Autoimmune (secukinumab)"},
		{"TALZENNA", 2027, "Cancer (talazoparib)"},
		{"AUBAGIO", 2027, "Multiple sclerosis (teriflunomide)"},
		{"OMVOH", 2027, "Ulcerative colitis (mirikizumab)"},
		{"XTANDI", 2027, "Cancer (enzalutamide)"},
		{"SIVEXTRO", 2027, "Antibiotic (tedizolid)"},
	}
}
