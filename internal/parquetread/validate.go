package parquetread

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/rx340b/internal/model"
)

func columnSet(schema *parquet.Schema) map[string]bool {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}
	return columns
}

// ValidateCatalogSchema checks that a catalog file carries every required column.
func ValidateCatalogSchema(schema *parquet.Schema) error {
	columns := columnSet(schema)
	for _, col := range model.CatalogRequiredColumns {
		if !columns[col] {
			return fmt.Errorf("missing required column: %s", col)
		}
	}
	return nil
}

// ValidateNADACSchema checks that a NADAC file has an ndc column and at
// least one column that can signal penny pricing.
func ValidateNADACSchema(schema *parquet.Schema) error {
	columns := columnSet(schema)
	if !columns["ndc"] {
		return fmt.Errorf("missing required column: ndc")
	}
	for _, col := range model.NADACSignalColumns {
		if columns[col] {
			return nil
		}
	}
	return fmt.Errorf("no penny pricing columns found; need at least one of: %s",
		strings.Join(model.NADACSignalColumns, ", "))
}
