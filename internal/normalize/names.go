package normalize

import "strings"

// DrugKey is the registry form of a drug name: trimmed and uppercased.
// Inner whitespace is kept as given, so "NOVOLOG  FLEXPEN" is not the
// registry's "NOVOLOG FLEXPEN".
func DrugKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
