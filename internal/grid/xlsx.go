package grid

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// DecodeXLSX turns workbook bytes into one table per populated sheet,
// plus a flattened text rendering of every cell in document order.
func DecodeXLSX(data []byte) ([]Table, string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, "", eris.Wrap(err, "grid: open xlsx")
	}

	var tables []Table
	var flat strings.Builder
	for _, sheet := range f.Sheets {
		t := Table{Cells: make([][]string, 0, len(sheet.Rows))}
		for _, row := range sheet.Rows {
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j] = cell.String()
				if cells[j] != "" {
					flat.WriteString(cells[j])
					flat.WriteByte(' ')
				}
			}
			t.Cells = append(t.Cells, cells)
		}
		if t.Rows() > 0 {
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return nil, "", eris.New("grid: workbook has no populated sheets")
	}
	return tables, strings.TrimSpace(flat.String()), nil
}
