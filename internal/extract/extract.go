// Package extract converts remote document formats into plain text.
// Each extractor is a pure function; failures degrade to bracketed
// placeholder strings rather than errors so an aggregation never loses a
// file over one bad document.
package extract

import "fmt"

// Supported MIME types.
const (
	MIMEGoogleDoc    = "application/vnd.google-apps.document"
	MIMEGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MIMEGoogleSlides = "application/vnd.google-apps.presentation"
	MIMEPDF          = "application/pdf"
	MIMEText         = "text/plain"
	MIMEMarkdown     = "text/markdown"
	MIMECSV          = "text/csv"
	MIMEWord         = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEExcel        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPowerPoint   = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Kind identifies the extraction strategy for a MIME family. Dispatching on
// a closed enum keeps "add a format" a compile-checked change instead of a
// string-keyed table edit.
type Kind int

const (
	KindUnsupported Kind = iota
	KindGoogleDoc
	KindGoogleSheet
	KindGoogleSlides
	KindPDF
	KindPlainText
	KindWord
	KindOfficeBinary
)

// KindForMIME maps a MIME type to its extraction strategy.
func KindForMIME(mimeType string) Kind {
	switch mimeType {
	case MIMEGoogleDoc:
		return KindGoogleDoc
	case MIMEGoogleSheet:
		return KindGoogleSheet
	case MIMEGoogleSlides:
		return KindGoogleSlides
	case MIMEPDF:
		return KindPDF
	case MIMEText, MIMEMarkdown, MIMECSV:
		return KindPlainText
	case MIMEWord:
		return KindWord
	case MIMEExcel, MIMEPowerPoint:
		return KindOfficeBinary
	default:
		return KindUnsupported
	}
}

// SupportedMIMETypes returns the MIME types to include in listing queries.
// Office binary formats are listed even though extraction is a placeholder,
// so users can still see and open them.
func SupportedMIMETypes() []string {
	return []string{
		MIMEGoogleDoc,
		MIMEGoogleSheet,
		MIMEGoogleSlides,
		MIMEPDF,
		MIMEText,
		MIMEMarkdown,
		MIMECSV,
		MIMEWord,
		MIMEExcel,
		MIMEPowerPoint,
	}
}

// UnsupportedPlaceholder is the content for files outside the supported set.
func UnsupportedPlaceholder(mimeType string) string {
	return fmt.Sprintf("[Unsupported file type: %s]", mimeType)
}

// NotAvailablePlaceholder is the content for formats that are listed but
// have no extractor (legacy/binary office formats).
func NotAvailablePlaceholder(mimeType string) string {
	return fmt.Sprintf("[Content extraction not available for %s]", mimeType)
}

// FailurePlaceholder is the content for a file whose extraction failed.
func FailurePlaceholder(err error) string {
	return fmt.Sprintf("[Could not extract content: %v]", err)
}
