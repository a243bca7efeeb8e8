package extractor

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// ExtractionError marks failures turning a file into text. Document
// jobs surface it as the document's processing_error.
type ExtractionError struct {
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Text pulls the plain text out of a file on disk. An empty string with
// a nil error is a legitimate outcome (blank or image-only documents);
// callers treat it as zero chunks, not a failure.
func Text(path, filename, mimeType string) (string, error) {
	kind := Detect(filename, mimeType)
	switch kind {
	case KindPDF:
		return pdfText(path)
	case KindDocx:
		return docxText(path)
	case KindSpreadsheet:
		return spreadsheetText(path)
	case KindCSV, KindText:
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", &ExtractionError{Kind: kind, Err: err}
		}
		return strings.TrimSpace(string(raw)), nil
	default:
		return "", &ExtractionError{Kind: kind, Err: fmt.Errorf("unsupported file type %q", filename)}
	}
}

func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", &ExtractionError{Kind: KindPDF, Err: err}
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", &ExtractionError{Kind: KindPDF, Err: err}
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", &ExtractionError{Kind: KindPDF, Err: err}
	}
	return strings.TrimSpace(buf.String()), nil
}

func docxText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ExtractionError{Kind: KindDocx, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", &ExtractionError{Kind: KindDocx, Err: err}
	}
	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", &ExtractionError{Kind: KindDocx, Err: err}
	}

	var parts []string
	for _, item := range doc.Document.Body.Items {
		if s, ok := item.(fmt.Stringer); ok {
			if text := strings.TrimSpace(s.String()); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// spreadsheetText flattens every sheet row-by-row. Used only for
// knowledge documents; deal spreadsheets go through Cells so the
// extractor keeps coordinates.
func spreadsheetText(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", &ExtractionError{Kind: KindSpreadsheet, Err: err}
	}
	defer f.Close()

	var parts []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", &ExtractionError{Kind: KindSpreadsheet, Err: err}
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line != "" {
				parts = append(parts, line)
			}
		}
	}
	return strings.Join(parts, "\n"), nil
}
