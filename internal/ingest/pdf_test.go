package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revwatch/internal/schema"
)

func TestScrapePDFText_ExtractsQualifyingAmounts(t *testing.T) {
	p := newTestParser(t)
	text := "Invoice total $12,500.00 with a late fee of $50 and contract value $8,000"

	rows := p.scrapePDFText(text)
	require.Len(t, rows, 2)

	assert.Equal(t, "PDF_001", rows[0]["deal_id"])
	assert.Equal(t, 12500.0, rows[0]["deal_size"])
	assert.Equal(t, "Extracted from PDF", rows[0]["deal_status"])
	assert.Equal(t, 8000.0, rows[1]["deal_size"])
}

func TestScrapePDFText_DropsSmallAmounts(t *testing.T) {
	p := newTestParser(t)

	rows := p.scrapePDFText("page 1 of 3, total $999.00, ref 42")
	require.Len(t, rows, 1)
	assert.Equal(t, "PDF_001", rows[0]["deal_id"])
	assert.Equal(t, "PDF Import", rows[0]["customer_name"])
	assert.Equal(t, 50000, rows[0]["deal_size"])
	assert.Equal(t, "PDF Content", rows[0]["deal_status"])
}

func TestScrapePDFText_CapsConsideredMatches(t *testing.T) {
	p := NewParser(schema.DefaultRegistry(), Options{MaxPDFAmounts: 2})

	rows := p.scrapePDFText("$5,000 $6,000 $7,000 $8,000")
	require.Len(t, rows, 2)
	assert.Equal(t, 5000.0, rows[0]["deal_size"])
	assert.Equal(t, 6000.0, rows[1]["deal_size"])
}

func TestScrapePDFText_EmptyTextPlaceholder(t *testing.T) {
	p := newTestParser(t)

	rows := p.scrapePDFText("")
	require.Len(t, rows, 1)
	assert.Equal(t, "PDF_001", rows[0]["deal_id"])
}
