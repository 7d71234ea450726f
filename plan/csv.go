/*
csv.go - Canonical CSV encoding of a plan

PURPOSE:
  Writes the plan in its published tabular form. Column set and order are
  part of the output contract consumed by the fetch pipeline, as is the row
  order (rows must already be in canonical order; Build guarantees that).
  Absent optional years encode as empty cells, never as zero.
*/
package plan

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Columns is the published column order of the plan CSV.
var Columns = []string{
	"cohort",
	"company_name",
	"cin",
	"sector",
	"is_listed",
	"anchor_fy",
	"anchor_reason",
	"source_priority",
	"default_year",
	"fy_before_default",
	"target_fy",
	"doc_type",
	"required",
}

// WriteCSV encodes jobs to w with the canonical header.
func WriteCSV(w io.Writer, jobs []DownloadJob) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, j := range jobs {
		row := []string{
			string(j.Cohort),
			j.CompanyName,
			j.CIN,
			j.Sector,
			strconv.FormatBool(j.IsListed),
			strconv.Itoa(j.AnchorFY),
			j.AnchorReason,
			j.SourcePriorityText(),
			formatOptionalYear(j.DefaultYear),
			formatOptionalYear(j.FYBeforeDefault),
			strconv.Itoa(j.TargetFY),
			j.DocType,
			strconv.FormatBool(j.Required),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatOptionalYear(y *int) string {
	if y == nil {
		return ""
	}
	return strconv.Itoa(*y)
}
