package extractor

import (
	"path/filepath"
	"strings"
)

// Kind classifies an uploaded file for extraction purposes.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindDocx        Kind = "docx"
	KindSpreadsheet Kind = "spreadsheet"
	KindCSV         Kind = "csv"
	KindText        Kind = "text"
	KindUnknown     Kind = "unknown"
)

// Detect picks the extraction strategy from the filename extension,
// falling back to the declared mime type. Extensions win because
// browsers routinely upload office files as octet-stream.
func Detect(filename, mimeType string) Kind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDocx
	case ".xlsx", ".xlsm":
		return KindSpreadsheet
	case ".csv":
		return KindCSV
	case ".txt", ".md", ".text":
		return KindText
	}

	switch strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])) {
	case "application/pdf":
		return KindPDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return KindDocx
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return KindSpreadsheet
	case "text/csv":
		return KindCSV
	case "text/plain", "text/markdown":
		return KindText
	}
	return KindUnknown
}

// IsSpreadsheet reports whether the file supports cell-anchored
// question extraction and in-place answer export.
func IsSpreadsheet(filename, mimeType string) bool {
	return Detect(filename, mimeType) == KindSpreadsheet
}
