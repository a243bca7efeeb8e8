package extractor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		filename string
		mimeType string
		want     Kind
	}{
		{"rfp.pdf", "application/octet-stream", KindPDF},
		{"rfp.docx", "", KindDocx},
		{"questions.xlsx", "", KindSpreadsheet},
		{"questions.XLSX", "", KindSpreadsheet},
		{"data.csv", "", KindCSV},
		{"notes.txt", "", KindText},
		{"upload.bin", "application/pdf", KindPDF},
		{"upload.bin", "text/plain; charset=utf-8", KindText},
		{"upload.bin", "application/octet-stream", KindUnknown},
	}
	for _, tc := range cases {
		if got := Detect(tc.filename, tc.mimeType); got != tc.want {
			t.Fatalf("Detect(%q, %q): want=%q got=%q", tc.filename, tc.mimeType, tc.want, got)
		}
	}
}

func TestTextPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("  line one\nline two  "), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	text, err := Text(path, "notes.txt", "text/plain")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "line one\nline two" {
		t.Fatalf("text: got=%q", text)
	}
}

func TestTextUnsupportedType(t *testing.T) {
	_, err := Text("/nonexistent", "photo.png", "image/png")
	if err == nil {
		t.Fatalf("expected error")
	}
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got=%T", err)
	}
}

func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	mustSet := func(cell, value string) {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			t.Fatalf("SetCellValue(%s): %v", cell, err)
		}
	}
	mustSet("A1", "Question")
	mustSet("B1", "Answer")
	mustSet("A2", "Do you support SSO?")
	mustSet("A4", "What is your uptime SLA?")

	path := filepath.Join(t.TempDir(), "questions.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestCellsPreservesCoordinates(t *testing.T) {
	path := writeTestWorkbook(t)

	cells, err := Cells(path)
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}
	if len(cells) != 4 {
		t.Fatalf("cells: want=4 got=%d (%+v)", len(cells), cells)
	}
	// reading order: A1, B1, A2, A4
	if cells[0].CellRef != "A1" || cells[1].CellRef != "B1" {
		t.Fatalf("header refs: got=%q %q", cells[0].CellRef, cells[1].CellRef)
	}
	if cells[2].CellRef != "A2" || cells[2].Value != "Do you support SSO?" {
		t.Fatalf("cell A2: got=%+v", cells[2])
	}
	if cells[3].CellRef != "A4" {
		t.Fatalf("cell A4 ref: got=%q", cells[3].CellRef)
	}
	for _, c := range cells {
		if c.SheetName == "" {
			t.Fatalf("missing sheet name: %+v", c)
		}
	}
}

func TestSpreadsheetTextFlattens(t *testing.T) {
	path := writeTestWorkbook(t)

	text, err := Text(path, "questions.xlsx", "")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !strings.Contains(text, "Do you support SSO?") {
		t.Fatalf("missing cell content: %q", text)
	}
}

func TestChunkerSplitEmpty(t *testing.T) {
	c := NewChunker()
	chunks, err := c.Split("   \n\t  ")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("chunks: want=0 got=%d", len(chunks))
	}
}

func TestChunkerSplitLongText(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "20")
	c := NewChunker()

	para := strings.Repeat("Our platform encrypts data at rest. ", 20)
	chunks, err := c.Split(para)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got=%d", len(chunks))
	}
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Fatalf("empty chunk at %d", i)
		}
	}
}
