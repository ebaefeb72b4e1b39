package report

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/quote-audit/internal/model"
)

// Workbook fill colors, matching the palette reviewers already know from
// the hand-built audit sheets.
const (
	fillTitle    = "FF366092"
	fillColumn   = "FFD3D3D3"
	fillMatch    = "FFC6EFCE"
	fillMismatch = "FFFFC7CE"
)

// WriteXLSX saves the validation result to path as a two-sheet workbook:
// a summary sheet with per-section counts and a details sheet with every
// check, match cells filled green and mismatches red.
func WriteXLSX(res *model.ValidationResult, path string) error {
	file := xlsx.NewFile()

	if err := writeSummarySheet(file, res); err != nil {
		return err
	}
	if err := writeDetailsSheet(file, res); err != nil {
		return err
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func writeSummarySheet(file *xlsx.File, res *model.ValidationResult) error {
	sheet, err := file.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	sheet.SetColWidth(0, 0, 24)
	sheet.SetColWidth(1, 2, 16)

	title := sheet.AddRow().AddCell()
	title.Value = "Quote Validation Report"
	title.Merge(2, 0)
	title.SetStyle(titleStyle())
	sheet.AddRow()

	addLabelRow(sheet, "Transaction ID", res.TransactionID)
	addLabelRow(sheet, "Document", res.DocumentName)

	statusRow := sheet.AddRow()
	label := statusRow.AddCell()
	label.Value = "Overall Status"
	label.SetStyle(boldStyle())
	status := statusRow.AddCell()
	status.Value = res.OverallStatus
	status.SetStyle(verdictStyle(res.OverallStatus == model.StatusPassed))

	addLabelRow(sheet, "Total Checks", fmt.Sprintf("%d", res.TotalChecked))
	addLabelRow(sheet, "Matches", fmt.Sprintf("%d", res.Matches))
	addLabelRow(sheet, "Mismatches", fmt.Sprintf("%d", res.Mismatches))
	sheet.AddRow()

	header := sheet.AddRow()
	for _, h := range []string{"Section", "Passed", "Total"} {
		c := header.AddCell()
		c.Value = h
		c.SetStyle(columnStyle())
	}
	for _, section := range sections(res) {
		details := res.SectionResults(section)
		passed := 0
		for _, d := range details {
			if d.Match {
				passed++
			}
		}
		row := sheet.AddRow()
		row.AddCell().Value = section
		row.AddCell().SetInt(passed)
		row.AddCell().SetInt(len(details))
	}
	return nil
}

func writeDetailsSheet(file *xlsx.File, res *model.ValidationResult) error {
	sheet, err := file.AddSheet("Details")
	if err != nil {
		return eris.Wrap(err, "report: add details sheet")
	}
	sheet.SetColWidth(0, 1, 14)
	sheet.SetColWidth(1, 1, 30)
	sheet.SetColWidth(2, 3, 20)
	sheet.SetColWidth(5, 5, 50)

	header := sheet.AddRow()
	for _, h := range []string{"Section", "Field", "Expected", "Found", "Result", "Message"} {
		c := header.AddCell()
		c.Value = h
		c.SetStyle(columnStyle())
	}

	matchStyle := verdictStyle(true)
	mismatchStyle := verdictStyle(false)
	for _, section := range sections(res) {
		for _, d := range res.SectionResults(section) {
			row := sheet.AddRow()
			row.AddCell().Value = d.Section
			row.AddCell().Value = d.FieldName
			setValueCell(row.AddCell(), d.Expected)
			setValueCell(row.AddCell(), d.Found)

			verdict := row.AddCell()
			if d.Match {
				verdict.Value = "MATCH"
				verdict.SetStyle(matchStyle)
			} else {
				verdict.Value = "MISMATCH"
				verdict.SetStyle(mismatchStyle)
			}
			row.AddCell().Value = d.Message
		}
	}
	return nil
}

// setValueCell writes a comparison value with a type-appropriate format.
func setValueCell(c *xlsx.Cell, v any) {
	switch t := v.(type) {
	case nil:
		c.Value = ""
	case float64:
		c.SetFloatWithFormat(t, "#,##0.00")
	case int:
		c.SetInt(t)
	case string:
		c.Value = t
	default:
		c.Value = fmt.Sprintf("%v", t)
	}
}

func addLabelRow(sheet *xlsx.Sheet, label, value string) {
	row := sheet.AddRow()
	l := row.AddCell()
	l.Value = label
	l.SetStyle(boldStyle())
	row.AddCell().Value = value
}

func titleStyle() *xlsx.Style {
	st := xlsx.NewStyle()
	st.Fill = *xlsx.NewFill("solid", fillTitle, fillTitle)
	st.ApplyFill = true
	font := xlsx.NewFont(12, "Calibri")
	font.Bold = true
	font.Color = "FFFFFFFF"
	st.Font = *font
	st.ApplyFont = true
	return st
}

func columnStyle() *xlsx.Style {
	st := xlsx.NewStyle()
	st.Fill = *xlsx.NewFill("solid", fillColumn, fillColumn)
	st.ApplyFill = true
	font := xlsx.NewFont(11, "Calibri")
	font.Bold = true
	st.Font = *font
	st.ApplyFont = true
	return st
}

func boldStyle() *xlsx.Style {
	st := xlsx.NewStyle()
	font := xlsx.NewFont(11, "Calibri")
	font.Bold = true
	st.Font = *font
	st.ApplyFont = true
	return st
}

func verdictStyle(match bool) *xlsx.Style {
	fill := fillMismatch
	if match {
		fill = fillMatch
	}
	st := xlsx.NewStyle()
	st.Fill = *xlsx.NewFill("solid", fill, fill)
	st.ApplyFill = true
	return st
}
