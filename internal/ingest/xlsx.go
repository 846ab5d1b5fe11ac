package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/revwatch/internal/model"
)

func (p *Parser) parseXLSXFile(path string) ([]model.RawRow, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("xlsx: sheet is empty")
	}

	header := rowToStrings(sheet.Rows[0])
	for i, name := range header {
		header[i] = normalizeHeader(name)
	}

	var rows []model.RawRow
	for _, r := range sheet.Rows[1:] {
		cells := rowToStrings(r)
		row := make(model.RawRow, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(cells) {
				row[name] = cells[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.String()
	}
	return out
}
