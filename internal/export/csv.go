package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revwatch/internal/model"
)

const commentPrefix = "#"

const timestampLayout = "2006-01-02 15:04:05"

// flaggedColumns defines the ordered flagged-deal CSV columns.
var flaggedColumns = []string{"deal_id", "risk_type", "impact", "suggestion"}

// WriteCSV renders the report as CSV: a commented summary header followed by
// one row per flagged deal.
func WriteCSV(w io.Writer, report *model.Report, generatedAt time.Time) error {
	header := fmt.Sprintf(
		"%s Revenue Leakage Analysis Report\n%s Generated: %s\n%s Total Leakage: %s\n%s High Risk Deals: %d\n%s\n",
		commentPrefix,
		commentPrefix, generatedAt.Format(timestampLayout),
		commentPrefix, FormatCurrency(report.Summary.TotalLeakage),
		commentPrefix, report.Summary.HighRiskDeals,
		commentPrefix,
	)
	if _, err := io.WriteString(w, header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(flaggedColumns); err != nil {
		return eris.Wrap(err, "export: write csv columns")
	}
	for _, issue := range report.FlaggedDeals {
		row := []string{
			issue.DealID,
			issue.RiskType,
			strconv.FormatFloat(issue.Impact, 'f', -1, 64),
			issue.Suggestion,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteCSVFile writes the CSV rendering to a file.
func WriteCSVFile(path string, report *model.Report, generatedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv file")
	}
	defer f.Close()

	return WriteCSV(f, report, generatedAt)
}
