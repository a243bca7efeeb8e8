package extractor

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetCell is one non-empty spreadsheet cell with its coordinates
// preserved, so extracted questions can anchor their answers back to a
// specific (sheet, cell) for export.
type SheetCell struct {
	SheetName string `json:"sheet_name"`
	CellRef   string `json:"cell_ref"`
	Value     string `json:"value"`
}

// Cells walks every sheet in reading order and returns the non-empty
// cells. Order is deterministic: sheet order, then row, then column.
func Cells(path string) ([]SheetCell, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ExtractionError{Kind: KindSpreadsheet, Err: err}
	}
	defer f.Close()

	var cells []SheetCell
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, &ExtractionError{Kind: KindSpreadsheet, Err: err}
		}
		for rowIdx, row := range rows {
			for colIdx, value := range row {
				value = strings.TrimSpace(value)
				if value == "" {
					continue
				}
				ref, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
				if err != nil {
					return nil, &ExtractionError{Kind: KindSpreadsheet, Err: err}
				}
				cells = append(cells, SheetCell{SheetName: sheet, CellRef: ref, Value: value})
			}
		}
	}
	return cells, nil
}
