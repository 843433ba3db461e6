package ordercard

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"
)

// SheetsGrid adapts one sheet of a Google Sheets spreadsheet to the Grid
// interface. The context is fixed at construction because one grid serves
// exactly one workflow run.
type SheetsGrid struct {
	ctx           context.Context
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsGrid wires a grid to one sheet of an order-card spreadsheet.
// An empty sheetName addresses the spreadsheet's first sheet, which is
// where vendor order cards keep their grid.
func NewSheetsGrid(ctx context.Context, svc *sheets.Service, spreadsheetID, sheetName string) *SheetsGrid {
	return &SheetsGrid{ctx: ctx, svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// Read returns the block as strings, blank-padded to the requested shape.
// The Sheets API trims trailing empty rows and cells from its responses.
func (g *SheetsGrid) Read(startRow, startCol, numRows, numCols int) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.
		Get(g.spreadsheetID, g.rangeA1(startRow, startCol, numRows, numCols)).
		Context(g.ctx).Do()
	if err != nil {
		return nil, err
	}

	block := make([][]string, numRows)
	for r := 0; r < numRows; r++ {
		block[r] = make([]string, numCols)
		if r >= len(resp.Values) {
			continue
		}
		for c := 0; c < numCols && c < len(resp.Values[r]); c++ {
			block[r][c] = fmt.Sprint(resp.Values[r][c])
		}
	}
	return block, nil
}

// Clear erases the block contents, leaving formatting in place.
func (g *SheetsGrid) Clear(startRow, startCol, numRows, numCols int) error {
	_, err := g.svc.Spreadsheets.Values.
		Clear(g.spreadsheetID, g.rangeA1(startRow, startCol, numRows, numCols), &sheets.ClearValuesRequest{}).
		Context(g.ctx).Do()
	return err
}

// Write puts the matrix into the sheet starting at the given cell. Blank
// strings become empty cells.
func (g *SheetsGrid) Write(startRow, startCol int, values [][]string) error {
	rows := make([][]interface{}, len(values))
	for r, row := range values {
		cells := make([]interface{}, len(row))
		for c, v := range row {
			cells[c] = v
		}
		rows[r] = cells
	}

	numRows := len(values)
	numCols := 0
	if numRows > 0 {
		numCols = len(values[0])
	}
	_, err := g.svc.Spreadsheets.Values.
		Update(g.spreadsheetID, g.rangeA1(startRow, startCol, numRows, numCols), &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(g.ctx).Do()
	return err
}

func (g *SheetsGrid) rangeA1(startRow, startCol, numRows, numCols int) string {
	cells := fmt.Sprintf("%s%d:%s%d",
		columnLetter(startCol), startRow,
		columnLetter(startCol+numCols-1), startRow+numRows-1)
	if g.sheetName == "" {
		return cells
	}
	return g.sheetName + "!" + cells
}

// columnLetter converts a 1-based column index to its A1 letters.
func columnLetter(col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}
