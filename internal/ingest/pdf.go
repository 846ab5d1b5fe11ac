package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revwatch/internal/model"
)

// amountPattern matches dollar-formatted figures in extracted PDF text,
// e.g. "$12,500.00" or "8000".
var amountPattern = regexp.MustCompile(`\$?(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)

func (p *Parser) parsePDFFile(ctx context.Context, path string) ([]model.RawRow, error) {
	text, err := p.extractPDFText(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.scrapePDFText(text), nil
}

// extractPDFText runs pdftotext -layout on the given PDF and returns stdout.
func (p *Parser) extractPDFText(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, p.opts.PdfToTextPath, "-layout", path, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "pdf: pdftotext failed for %s: %s", path, stderr.String())
	}

	return stdout.String(), nil
}

// scrapePDFText builds deal rows from dollar amounts found in extracted
// text. Only the first MaxPDFAmounts figures are considered, and figures at
// or below MinDealAmount are dropped as page artifacts. When nothing
// qualifies, a single placeholder record stands in for the upload.
func (p *Parser) scrapePDFText(text string) []model.RawRow {
	matches := amountPattern.FindAllStringSubmatch(text, -1)

	var rows []model.RawRow
	for i, m := range matches {
		if i >= p.opts.MaxPDFAmounts {
			break
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil || amount <= p.opts.MinDealAmount {
			continue
		}
		rows = append(rows, model.RawRow{
			"deal_id":          fmt.Sprintf("PDF_%03d", i+1),
			"customer_name":    fmt.Sprintf("PDF Customer %d", i+1),
			"deal_size":        amount,
			"discount_percent": 0,
			"close_date":       "",
			"renewal":          "",
			"deal_status":      "Extracted from PDF",
		})
	}

	if len(rows) == 0 {
		rows = append(rows, model.RawRow{
			"deal_id":          "PDF_001",
			"customer_name":    "PDF Import",
			"deal_size":        50000,
			"discount_percent": 0,
			"close_date":       "",
			"renewal":          "",
			"deal_status":      "PDF Content",
		})
	}

	return rows
}
