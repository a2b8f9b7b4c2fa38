package extract

import (
	"strings"

	"google.golang.org/api/sheets/v4"
)

// Spreadsheet flattens a Google Sheet's grid into text: cell formatted
// values joined with tabs, rows with newlines, sheets separated by a blank
// line with the sheet title as a header.
func Spreadsheet(ss *sheets.Spreadsheet) string {
	if ss == nil {
		return ""
	}

	var sheetTexts []string
	for _, sheet := range ss.Sheets {
		var rows []string
		if sheet.Properties != nil && sheet.Properties.Title != "" {
			rows = append(rows, sheet.Properties.Title)
		}
		for _, gd := range sheet.Data {
			for _, row := range gd.RowData {
				cells := make([]string, len(row.Values))
				for i, cell := range row.Values {
					cells[i] = cell.FormattedValue
				}
				rows = append(rows, strings.Join(cells, "\t"))
			}
		}
		if len(rows) > 0 {
			sheetTexts = append(sheetTexts, strings.Join(rows, "\n"))
		}
	}
	return strings.Join(sheetTexts, "\n\n")
}
