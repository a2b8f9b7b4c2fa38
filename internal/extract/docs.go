package extract

import (
	"strings"

	"google.golang.org/api/docs/v1"
)

// GoogleDoc walks a Google Doc's structural tree and concatenates the text
// runs of every paragraph. Tables are walked cell by cell; other structural
// elements (section breaks, tables of contents) carry no text.
func GoogleDoc(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var b strings.Builder
	writeStructuralElements(&b, doc.Body.Content)
	return b.String()
}

func writeStructuralElements(b *strings.Builder, elements []*docs.StructuralElement) {
	for _, elem := range elements {
		if elem.Paragraph != nil {
			for _, pe := range elem.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		}
		if elem.Table != nil {
			for _, row := range elem.Table.TableRows {
				for _, cell := range row.TableCells {
					writeStructuralElements(b, cell.Content)
				}
			}
		}
	}
}
