package extract

import (
	"testing"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/sheets/v4"
)

func TestKindForMIME(t *testing.T) {
	tests := []struct {
		mime string
		want Kind
	}{
		{MIMEGoogleDoc, KindGoogleDoc},
		{MIMEGoogleSheet, KindGoogleSheet},
		{MIMEGoogleSlides, KindGoogleSlides},
		{MIMEPDF, KindPDF},
		{MIMEText, KindPlainText},
		{MIMEMarkdown, KindPlainText},
		{MIMECSV, KindPlainText},
		{MIMEWord, KindWord},
		{MIMEExcel, KindOfficeBinary},
		{MIMEPowerPoint, KindOfficeBinary},
		{"image/png", KindUnsupported},
		{"application/vnd.google-apps.folder", KindUnsupported},
		{"", KindUnsupported},
	}
	for _, tt := range tests {
		if got := KindForMIME(tt.mime); got != tt.want {
			t.Errorf("KindForMIME(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	if got := UnsupportedPlaceholder("image/png"); got != "[Unsupported file type: image/png]" {
		t.Errorf("UnsupportedPlaceholder = %q", got)
	}
	if got := NotAvailablePlaceholder(MIMEExcel); got != "[Content extraction not available for "+MIMEExcel+"]" {
		t.Errorf("NotAvailablePlaceholder = %q", got)
	}
}

func TestGoogleDoc(t *testing.T) {
	doc := &docs.Document{
		Body: &docs.Body{
			Content: []*docs.StructuralElement{
				{
					Paragraph: &docs.Paragraph{
						Elements: []*docs.ParagraphElement{
							{TextRun: &docs.TextRun{Content: "Hello "}},
							{TextRun: &docs.TextRun{Content: "world.\n"}},
						},
					},
				},
				{
					Paragraph: &docs.Paragraph{
						Elements: []*docs.ParagraphElement{
							{TextRun: &docs.TextRun{Content: "Second paragraph.\n"}},
							{InlineObjectElement: &docs.InlineObjectElement{}}, // no text run
						},
					},
				},
			},
		},
	}

	got := GoogleDoc(doc)
	want := "Hello world.\nSecond paragraph.\n"
	if got != want {
		t.Errorf("GoogleDoc() = %q, want %q", got, want)
	}
}

func TestGoogleDoc_Table(t *testing.T) {
	doc := &docs.Document{
		Body: &docs.Body{
			Content: []*docs.StructuralElement{
				{
					Table: &docs.Table{
						TableRows: []*docs.TableRow{
							{
								TableCells: []*docs.TableCell{
									{Content: []*docs.StructuralElement{{
										Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{
											{TextRun: &docs.TextRun{Content: "cell\n"}},
										}},
									}}},
								},
							},
						},
					},
				},
			},
		},
	}

	if got := GoogleDoc(doc); got != "cell\n" {
		t.Errorf("GoogleDoc() table = %q, want %q", got, "cell\n")
	}
}

func TestGoogleDoc_Nil(t *testing.T) {
	if got := GoogleDoc(nil); got != "" {
		t.Errorf("GoogleDoc(nil) = %q, want empty", got)
	}
	if got := GoogleDoc(&docs.Document{}); got != "" {
		t.Errorf("GoogleDoc(no body) = %q, want empty", got)
	}
}

func TestSpreadsheet(t *testing.T) {
	ss := &sheets.Spreadsheet{
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{Title: "Budget"},
				Data: []*sheets.GridData{
					{
						RowData: []*sheets.RowData{
							{Values: []*sheets.CellData{
								{FormattedValue: "Item"},
								{FormattedValue: "Cost"},
							}},
							{Values: []*sheets.CellData{
								{FormattedValue: "Widget"},
								{FormattedValue: "$10"},
							}},
						},
					},
				},
			},
		},
	}

	got := Spreadsheet(ss)
	want := "Budget\nItem\tCost\nWidget\t$10"
	if got != want {
		t.Errorf("Spreadsheet() = %q, want %q", got, want)
	}
}

func TestSpreadsheet_MultipleSheets(t *testing.T) {
	ss := &sheets.Spreadsheet{
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{Title: "A"},
				Data: []*sheets.GridData{{RowData: []*sheets.RowData{
					{Values: []*sheets.CellData{{FormattedValue: "1"}}},
				}}},
			},
			{
				Properties: &sheets.SheetProperties{Title: "B"},
				Data: []*sheets.GridData{{RowData: []*sheets.RowData{
					{Values: []*sheets.CellData{{FormattedValue: "2"}}},
				}}},
			},
		},
	}

	got := Spreadsheet(ss)
	want := "A\n1\n\nB\n2"
	if got != want {
		t.Errorf("Spreadsheet() = %q, want %q", got, want)
	}
}

func TestSpreadsheet_Nil(t *testing.T) {
	if got := Spreadsheet(nil); got != "" {
		t.Errorf("Spreadsheet(nil) = %q, want empty", got)
	}
}
