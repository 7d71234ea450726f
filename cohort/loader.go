/*
loader.go - CSV cohort loading

PURPOSE:
  Reads one cohort CSV into normalized CompanyRecords. Headers go through
  the alias table, values are trimmed, CINs normalized, amounts parsed.
  Rows without a company name are dropped (they cannot be keyed).

COLUMN CONTRACT:
  company_name, cin and sector must be present (under any alias) or the
  load fails with a MissingColumnError - that is configuration-class
  trouble, reported before the engine runs. Every other column is optional
  and rides along in the record's Fields map for the "column" anchor mode.

SEE ALSO:
  - normalize.go: The scalar rules used here
  - validate.go: Row-level checks applied after loading
*/
package cohort

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fulcrum/download-planner/plan"
)

// requiredColumns must exist in every cohort dataset.
var requiredColumns = []string{ColCompanyName, ColCIN, ColSector}

// LoadFile reads a cohort CSV from disk.
func LoadFile(path string, cohort plan.Cohort) ([]plan.CompanyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s cohort: %w", cohort, err)
	}
	defer f.Close()
	return Load(f, cohort)
}

// Load reads a cohort CSV from r.
func Load(r io.Reader, cohort plan.Cohort) ([]plan.CompanyRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged exports happen; short rows pad as empty
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &plan.MissingColumnError{Dataset: string(cohort), Columns: requiredColumns}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", cohort, err)
	}

	columns := make([]string, len(header))
	for i, raw := range header {
		columns[i] = NormalizeColumnName(raw)
	}
	if missing := missingColumns(columns); len(missing) > 0 {
		return nil, &plan.MissingColumnError{Dataset: string(cohort), Columns: missing}
	}

	var records []plan.CompanyRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", cohort, err)
		}
		rec, ok := Record(rowFields(columns, row))
		if !ok {
			continue // no company name, cannot key the row
		}
		records = append(records, rec)
	}
	return records, nil
}

// Record builds a CompanyRecord from canonical-keyed raw fields. ok=false
// when the row has no company name.
func Record(fields map[string]string) (plan.CompanyRecord, bool) {
	name := NormalizeCompanyName(fields[ColCompanyName])
	if name == "" {
		return plan.CompanyRecord{}, false
	}

	rec := plan.CompanyRecord{
		Name:            name,
		CIN:             NormalizeCIN(fields[ColCIN]),
		Sector:          strings.TrimSpace(fields[ColSector]),
		DefaultYear:     strings.TrimSpace(fields[ColDefaultYear]),
		FYBeforeDefault: strings.TrimSpace(fields[ColFYBeforeDefault]),
		Fields:          fields,
	}
	if amount, ok := ParseAmount(fields[ColAmount]); ok {
		rec.Amount = amount
		rec.HasAmount = true
	}
	return rec, true
}

// Records builds CompanyRecords from pre-parsed rows (API request bodies).
// Keys are normalized through the same alias table as CSV headers.
func Records(rows []map[string]string) []plan.CompanyRecord {
	records := make([]plan.CompanyRecord, 0, len(rows))
	for _, row := range rows {
		fields := make(map[string]string, len(row))
		for k, v := range row {
			fields[NormalizeColumnName(k)] = strings.TrimSpace(v)
		}
		if rec, ok := Record(fields); ok {
			records = append(records, rec)
		}
	}
	return records
}

func rowFields(columns []string, row []string) map[string]string {
	fields := make(map[string]string, len(columns))
	for i, col := range columns {
		if col == "" {
			continue
		}
		value := ""
		if i < len(row) {
			value = strings.TrimSpace(row[i])
		}
		switch strings.ToLower(value) {
		case "nan":
			value = ""
		}
		fields[col] = value
	}
	return fields
}

func missingColumns(columns []string) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, c := range requiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
