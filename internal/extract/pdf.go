package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts text from a PDF's pages. Pages are joined with a blank line.
func PDF(b []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("unable to parse pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, joinTextRuns(p.Content().Text))
	}
	return strings.Join(pages, "\n\n"), nil
}

// joinTextRuns concatenates a page's text runs. Runs sharing the exact same
// vertical coordinate are treated as one visual line; any change in Y
// inserts a newline before the run. Naive, but deterministic.
func joinTextRuns(runs []pdf.Text) string {
	var b strings.Builder
	for i, t := range runs {
		if i > 0 && t.Y != runs[i-1].Y {
			b.WriteString("\n")
		}
		b.WriteString(t.S)
	}
	return b.String()
}
