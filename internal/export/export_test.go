package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/revwatch/internal/model"
)

var exportTime = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func sampleReport() *model.Report {
	return &model.Report{
		Summary: model.Summary{TotalLeakage: 12500, HighRiskDeals: 2, IssuesFound: 2},
		FlaggedDeals: []model.FlaggedIssue{
			{DealID: "D1", RiskType: model.RiskUnauthorizedDiscount, Impact: 1500, Suggestion: "Review 35% discount approval for deal D1"},
			{DealID: "D2", RiskType: model.RiskPhantomPipeline, Impact: 11000, Suggestion: "Remove expired deal D2 from pipeline"},
		},
		Recommendations: []string{"Implement discount approval workflow"},
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$12,500.00", FormatCurrency(12500))
	assert.Equal(t, "$0.00", FormatCurrency(0))
	assert.Equal(t, "$1,234,567.89", FormatCurrency(1234567.89))
	assert.Equal(t, "$999.50", FormatCurrency(999.5))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport(), exportTime))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, "# Revenue Leakage Analysis Report", lines[0])
	assert.Equal(t, "# Generated: 2025-06-15 09:30:00", lines[1])
	assert.Equal(t, "# Total Leakage: $12,500.00", lines[2])
	assert.Equal(t, "# High Risk Deals: 2", lines[3])
	assert.Equal(t, "#", lines[4])
	assert.Equal(t, "deal_id,risk_type,impact,suggestion", lines[5])
	assert.Equal(t, "D1,unauthorized_discount,1500,Review 35% discount approval for deal D1", lines[6])
	assert.Equal(t, "D2,phantom_pipeline,11000,Remove expired deal D2 from pipeline", lines[7])
}

func TestWriteCSV_NoFlaggedDeals(t *testing.T) {
	var buf bytes.Buffer
	report := &model.Report{}
	require.NoError(t, WriteCSV(&buf, report, exportTime))

	assert.Contains(t, buf.String(), "deal_id,risk_type,impact,suggestion")
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, WriteCSVFile(path, sampleReport(), exportTime))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# Revenue Leakage Analysis Report")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))

	var decoded model.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 12500.0, decoded.Summary.TotalLeakage)
	assert.Len(t, decoded.FlaggedDeals, 2)
}

func TestWriteXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSXFile(path, sampleReport(), exportTime))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 3)

	assert.Equal(t, "Summary", f.Sheets[0].Name)
	assert.Equal(t, "Flagged Deals", f.Sheets[1].Name)
	assert.Equal(t, "Recommendations", f.Sheets[2].Name)

	flagged := f.Sheets[1]
	require.True(t, len(flagged.Rows) >= 3)
	assert.Equal(t, "deal_id", flagged.Rows[0].Cells[0].String())
	assert.Equal(t, "D1", flagged.Rows[1].Cells[0].String())
	assert.Equal(t, "D2", flagged.Rows[2].Cells[0].String())
}
