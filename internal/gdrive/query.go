package gdrive

import (
	"fmt"
	"strings"
)

// BuildListQuery builds the drive query string for an aggregation listing:
// supported MIME types intersected with an optional free-text term matched
// against file name or full text, excluding trashed files.
func BuildListQuery(freeText string, mimeTypes []string) string {
	var b strings.Builder
	b.WriteString("trashed = false")

	if len(mimeTypes) > 0 {
		clauses := make([]string, len(mimeTypes))
		for i, m := range mimeTypes {
			clauses[i] = fmt.Sprintf("mimeType = '%s'", m)
		}
		b.WriteString(" and (")
		b.WriteString(strings.Join(clauses, " or "))
		b.WriteString(")")
	}

	if freeText != "" {
		esc := escapeQueryTerm(freeText)
		fmt.Fprintf(&b, " and (name contains '%s' or fullText contains '%s')", esc, esc)
	}

	return b.String()
}

// escapeQueryTerm escapes characters with meaning in the drive query
// language so user input cannot break out of the quoted term.
func escapeQueryTerm(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
