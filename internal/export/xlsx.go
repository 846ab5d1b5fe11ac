package export

import (
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/revwatch/internal/model"
)

// WriteXLSXFile renders the report as a workbook with Summary, Flagged
// Deals, and Recommendations sheets.
func WriteXLSXFile(path string, report *model.Report, generatedAt time.Time) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addRow(summary, "Revenue Leakage Analysis Report")
	addRow(summary, "Generated", generatedAt.Format(timestampLayout))
	addRow(summary)
	addRow(summary, "Total Leakage", FormatCurrency(report.Summary.TotalLeakage))
	addRow(summary, "High Risk Deals", strconv.Itoa(report.Summary.HighRiskDeals))
	addRow(summary, "Issues Found", strconv.Itoa(report.Summary.IssuesFound))

	flagged, err := f.AddSheet("Flagged Deals")
	if err != nil {
		return eris.Wrap(err, "export: add flagged sheet")
	}
	addRow(flagged, flaggedColumns...)
	for _, issue := range report.FlaggedDeals {
		row := flagged.AddRow()
		row.AddCell().SetString(issue.DealID)
		row.AddCell().SetString(issue.RiskType)
		row.AddCell().SetFloat(issue.Impact)
		row.AddCell().SetString(issue.Suggestion)
	}

	recs, err := f.AddSheet("Recommendations")
	if err != nil {
		return eris.Wrap(err, "export: add recommendations sheet")
	}
	for _, r := range report.Recommendations {
		addRow(recs, r)
	}

	return eris.Wrapf(f.Save(path), "export: save xlsx %s", path)
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
