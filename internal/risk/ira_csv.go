package risk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadIRACSV reads registry rows from CSV with a header containing
// drug_name and year, and optionally description (any order, any case).
func LoadIRACSV(r io.Reader) ([]IRARow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("ira csv: missing header")
		}
		return nil, fmt.Errorf("ira csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	nameIdx, ok := cols["drug_name"]
	if !ok {
		return nil, fmt.Errorf("ira csv: missing required column: drug_name")
	}
	yearIdx, ok := cols["year"]
	if !ok {
		return nil, fmt.Errorf("ira csv: missing required column: year")
	}
	descIdx, hasDesc := cols["description"]

	var rows []IRARow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ira csv line %d: %w", line, err)
		}
		name := field(rec, nameIdx)
		if name == "" {
			continue
		}
		year, err := strconv.Atoi(field(rec, yearIdx))
		if err != nil {
			return nil, fmt.Errorf("ira csv line %d: invalid year %q", line, field(rec, yearIdx))
		}
		e := IRARow{DrugName: name, Year: year}
		if hasDesc {
			e.Description = field(rec, descIdx)
		}
		rows = append(rows, e)
	}
	return rows, nil
}

func field(rec []string, idx int) string {
	if idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
