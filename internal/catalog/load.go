package catalog

import (
	"github.com/rs/zerolog"

	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/parquetread"
	"github.com/gyeh/rx340b/internal/risk"
)

const readBatchSize = 1024

// Result is a converted catalog file.
type Result struct {
	Drugs    []model.Drug
	RowsRead int64
	Rejected []*RowError
}

// Convert adapts rows into drugs. Rejected rows are collected, not fatal.
func Convert(rows []model.CatalogRow, log zerolog.Logger) *Result {
	res := &Result{Drugs: make([]model.Drug, 0, len(rows))}
	for i := range rows {
		rowNum := int64(i + 1)
		res.RowsRead++

		d, warnings, err := ToDrug(&rows[i])
		if err != nil {
			re := &RowError{Row: rowNum, NDC: rows[i].NDC, Err: err}
			res.Rejected = append(res.Rejected, re)
			log.Warn().Err(err).Int64("row", rowNum).Str("ndc", rows[i].NDC).Msg("row rejected")
			continue
		}
		for _, w := range warnings {
			log.Warn().Int64("row", rowNum).Str("ndc", d.NDC).Msg(w)
		}
		res.Drugs = append(res.Drugs, d)
	}
	return res
}

// Load reads and converts a catalog Parquet file.
func Load(path string, log zerolog.Logger) (*Result, error) {
	rows, err := parquetread.ReadAll[model.CatalogRow](path, readBatchSize, parquetread.ValidateCatalogSchema)
	if err != nil {
		return nil, err
	}
	return Convert(rows, log), nil
}

// LoadNADAC reads a NADAC Parquet file into pricing records.
func LoadNADAC(path string) ([]risk.PricingRecord, error) {
	rows, err := parquetread.ReadAll[model.NADACRow](path, readBatchSize, parquetread.ValidateNADACSchema)
	if err != nil {
		return nil, err
	}
	out := make([]risk.PricingRecord, len(rows))
	for i := range rows {
		out[i] = ToPricingRecord(&rows[i])
	}
	return out, nil
}
