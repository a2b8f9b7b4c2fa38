package extract

import (
	"bytes"
	"fmt"

	"code.sajari.com/docconv"
)

// Docx extracts text from a .docx file.
func Docx(b []byte) (string, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("unable to convert docx: %w", err)
	}
	return text, nil
}
