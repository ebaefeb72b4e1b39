package extract

import (
	"strings"

	"github.com/sells-group/quote-audit/internal/coerce"
	"github.com/sells-group/quote-audit/internal/grid"
	"github.com/sells-group/quote-audit/internal/model"
)

// columnMap binds table columns to line-item roles. -1 means unbound.
type columnMap struct {
	part            int
	description     int
	quantity        int
	unitList        int
	unitNet         int
	extList         int
	extNet          int
	discountPercent int
	discountAmount  int
	lineTotal       int
}

func (m *columnMap) claims(idx int) bool {
	for _, c := range []int{
		m.part, m.description, m.quantity, m.unitList, m.unitNet,
		m.extList, m.extNet, m.discountPercent, m.discountAmount, m.lineTotal,
	} {
		if c == idx {
			return true
		}
	}
	return false
}

// parseLineItems walks every table for a parts header and reads the rows
// under it. Section-header rows flip the running Hardware/Services state
// instead of emitting an item.
func parseLineItems(doc *grid.Document) []model.LineItem {
	var items []model.LineItem
	for _, table := range doc.Tables {
		headerRow, labels, headerRows, ok := locateHeaderRow(table)
		if !ok {
			continue
		}
		m := buildColumnMap(labels)
		if m.part == -1 {
			continue
		}
		if m.unitList == -1 && m.unitNet == -1 && m.extList == -1 && m.extNet == -1 {
			continue
		}

		var section model.ItemType
		rows := table.Rows()
		for ri := headerRow + headerRows; ri < rows; ri++ {
			part := grid.CleanText(cellAt(table, ri, m.part))
			desc := grid.CleanText(cellAt(table, ri, m.description))
			partLower := strings.ToLower(part)
			descLower := strings.ToLower(desc)

			if strings.Contains(partLower, "hardware") || strings.Contains(descLower, "hardware") {
				section = model.ItemHardware
				continue
			}
			if strings.Contains(partLower, "service") || strings.Contains(descLower, "service") {
				if !strings.Contains(partLower, "part number") {
					section = model.ItemServices
				}
				continue
			}
			if part == "" && desc == "" {
				continue
			}
			if strings.Contains(partLower, "total") || strings.Contains(descLower, "total") {
				continue
			}
			if isHeaderEcho(partLower) || isHeaderEcho(descLower) {
				continue
			}

			item := model.LineItem{
				PartNumber:        part,
				Description:       desc,
				Quantity:          intAt(table, ri, m.quantity),
				UnitListPrice:     currencyAt(table, ri, m.unitList),
				UnitNetPrice:      currencyAt(table, ri, m.unitNet),
				ExtendedListPrice: currencyAt(table, ri, m.extList),
				ExtendedNetPrice:  currencyAt(table, ri, m.extNet),
				DiscountPercent:   percentAt(table, ri, m.discountPercent),
				DiscountAmount:    currencyAt(table, ri, m.discountAmount),
				LineTotal:         currencyAt(table, ri, m.lineTotal),
			}
			item.ItemType = classifyItem(part, desc, section)
			if item.Empty() {
				continue
			}
			items = append(items, item)
		}
	}
	return items
}

// locateHeaderRow finds the first row carrying part/unit/ext header tokens.
// A following row of bare price words ("Price", "Each", "Net", "List") marks
// a two-row header whose cells concatenate into composite labels.
func locateHeaderRow(t grid.Table) (int, []string, int, bool) {
	rows, cols := t.Rows(), t.Cols()
	for ri := 0; ri < rows; ri++ {
		primary := make([]string, cols)
		for ci := range primary {
			primary[ci] = grid.CleanText(t.Cell(ri, ci))
		}
		if !rowMatchesHeader(primary) {
			continue
		}

		labels := primary
		headerRows := 1
		if ri+1 < rows {
			secondary := make([]string, cols)
			for ci := range secondary {
				secondary[ci] = grid.CleanText(t.Cell(ri+1, ci))
			}
			if rowContainsSubheaders(secondary) {
				headerRows = 2
				labels = make([]string, cols)
				for ci := range labels {
					label := primary[ci]
					switch {
					case label == "":
						label = secondary[ci]
					case secondary[ci] != "":
						label += " " + secondary[ci]
					}
					labels[ci] = label
				}
			}
		}
		return ri, labels, headerRows, true
	}
	return 0, nil, 0, false
}

func rowMatchesHeader(cells []string) bool {
	for _, cell := range cells {
		lowered := strings.ReplaceAll(strings.ToLower(cell), "/", " ")
		for _, word := range strings.Fields(lowered) {
			switch word {
			case "part", "unit", "ext":
				return true
			}
		}
	}
	return false
}

func rowContainsSubheaders(cells []string) bool {
	for _, cell := range cells {
		switch strings.ToLower(cell) {
		case "price", "each", "net", "list":
			return true
		}
	}
	return false
}

// buildColumnMap binds header labels to roles. Extended price columns bind
// first and exclusively so that "Ext. List Price" sitting next to "Unit List
// Price" cannot be taken for a unit column, or the reverse.
func buildColumnMap(labels []string) columnMap {
	m := columnMap{
		part: -1, description: -1, quantity: -1,
		unitList: -1, unitNet: -1, extList: -1, extNet: -1,
		discountPercent: -1, discountAmount: -1, lineTotal: -1,
	}

	for idx, label := range labels {
		l := strings.ToLower(label)
		if m.extList == -1 && strings.Contains(l, "ext") && strings.Contains(l, "list") &&
			(!strings.Contains(l, "unit") || strings.Contains(l, "estimated")) {
			m.extList = idx
		}
		if m.extNet == -1 && strings.Contains(l, "ext") && strings.Contains(l, "net") &&
			(!strings.Contains(l, "unit") || strings.Contains(l, "estimated")) {
			m.extNet = idx
		}
	}

	for idx, label := range labels {
		l := strings.ToLower(label)
		if m.claims(idx) {
			continue
		}
		switch {
		case m.part == -1 && strings.Contains(l, "part") && strings.Contains(l, "number"):
			m.part = idx
		case m.description == -1 && (strings.Contains(l, "description") || strings.Contains(l, "product")):
			m.description = idx
		case m.quantity == -1 && (strings.Contains(l, "qty") || strings.Contains(l, "quantity")):
			m.quantity = idx
		case m.unitList == -1:
			if (strings.Contains(l, "unit") && strings.Contains(l, "list")) ||
				(strings.Contains(l, "list") && strings.Contains(l, "price") && strings.Contains(l, "each")) {
				if !strings.Contains(l, "ext") {
					m.unitList = idx
				}
			}
		case m.unitNet == -1:
			if (strings.Contains(l, "unit") && strings.Contains(l, "net")) ||
				(strings.Contains(l, "net") && strings.Contains(l, "price") && strings.Contains(l, "each")) {
				if !strings.Contains(l, "ext") {
					m.unitNet = idx
				}
			}
		case m.extList == -1:
			if strings.Contains(l, "ext") && strings.Contains(l, "list") {
				m.extList = idx
			}
		case m.extNet == -1:
			if strings.Contains(l, "ext") && strings.Contains(l, "net") {
				m.extNet = idx
			}
		case m.discountPercent == -1 && strings.Contains(l, "%") && strings.Contains(l, "discount"):
			m.discountPercent = idx
		case m.discountAmount == -1 && strings.Contains(l, "discount") && !strings.Contains(l, "%"):
			m.discountAmount = idx
		case m.lineTotal == -1 && strings.Contains(l, "line") && strings.Contains(l, "total"):
			m.lineTotal = idx
		}
	}

	// A lone "List Price" column next to an extended column is the unit
	// price in disguise.
	if m.unitList == -1 && m.extList != -1 {
		for idx, label := range labels {
			l := strings.ToLower(label)
			if m.claims(idx) {
				continue
			}
			if strings.Contains(l, "list") && strings.Contains(l, "price") && !strings.Contains(l, "ext") {
				m.unitList = idx
				break
			}
		}
	}
	if m.unitNet == -1 && m.extNet != -1 {
		for idx, label := range labels {
			l := strings.ToLower(label)
			if m.claims(idx) {
				continue
			}
			if strings.Contains(l, "net") && strings.Contains(l, "price") && !strings.Contains(l, "ext") {
				m.unitNet = idx
				break
			}
		}
	}

	return m
}

// classifyItem falls back from the running section to part-number markers,
// then to description keywords.
func classifyItem(part, desc string, section model.ItemType) model.ItemType {
	if section != "" {
		return section
	}
	if part != "" {
		upper := strings.ToUpper(part)
		for _, marker := range []string{"CS-", "PS-", "SS-", "TS-"} {
			if strings.Contains(upper, marker) {
				return model.ItemServices
			}
		}
		for _, marker := range []string{"SG", "FA", "AFF", "E-SERIES"} {
			if strings.Contains(upper, marker) {
				return model.ItemHardware
			}
		}
	}
	if desc != "" {
		lower := strings.ToLower(desc)
		for _, kw := range []string{"service", "support", "deployment", "advisory"} {
			if strings.Contains(lower, kw) {
				return model.ItemServices
			}
		}
	}
	return model.ItemHardware
}

func isHeaderEcho(lowered string) bool {
	switch lowered {
	case "part number", "part", "description", "product description":
		return true
	}
	return false
}

func cellAt(t grid.Table, row, col int) string {
	if col < 0 {
		return ""
	}
	return t.Cell(row, col)
}

func intAt(t grid.Table, row, col int) *int {
	if col < 0 {
		return nil
	}
	if v, ok := coerce.Int(t.Cell(row, col)); ok {
		return &v
	}
	return nil
}

func currencyAt(t grid.Table, row, col int) *float64 {
	if col < 0 {
		return nil
	}
	if v, ok := coerce.Currency(t.Cell(row, col)); ok {
		return &v
	}
	return nil
}

func percentAt(t grid.Table, row, col int) *float64 {
	if col < 0 {
		return nil
	}
	if v, ok := coerce.Percent(t.Cell(row, col)); ok {
		return &v
	}
	return nil
}
