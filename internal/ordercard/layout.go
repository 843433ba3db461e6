// Package ordercard writes weekly order totals into the vendor's order-card
// spreadsheet. The card is a fixed monthly grid: five row blocks (one per
// week of the month) by five weekday column pairs, with one row per size
// category inside each block.
package ordercard

import (
	"strconv"
	"time"

	"github.com/interh852/lunch-order/internal/errors"
	"github.com/interh852/lunch-order/internal/order"
)

// Fixed geometry of the vendor's card template.
const (
	firstWeekBaseRow = 8
	rowsPerWeek      = 5
	columnOffset     = 4 // Monday lives in column D
	columnsPerDay    = 2
	weekdayCount     = 5

	// sizeRows is the height of one write block: large, regular, small.
	sizeRows = 3

	// matrixColumns spans Monday through Friday.
	matrixColumns = weekdayCount * columnsPerDay
)

// BaseRow returns the first row of the block for a week of the month
// (1 through 5). The large row is the base row, regular and small follow.
func BaseRow(weekNumber int) int {
	return firstWeekBaseRow + (weekNumber-1)*rowsPerWeek
}

// Column returns the card column for a date. Only Monday through Friday map
// onto the card; weekend dates are rejected.
func Column(date string) (int, error) {
	t, err := order.ParseDate(date)
	if err != nil {
		return 0, errors.NewInvalidRequest("not a valid order date: " + date)
	}
	return columnForWeekday(t.Weekday())
}

func columnForWeekday(wd time.Weekday) (int, error) {
	if wd < time.Monday || wd > time.Friday {
		return 0, errors.NewInvalidRequest("order cards have no weekend columns")
	}
	return columnOffset + (int(wd)-1)*columnsPerDay, nil
}

// BuildMatrix lays aggregated counts out as the 3-row write block for one
// week. Zero counts stay blank rather than zero, matching how the card is
// filled by hand. Weekend dates in the input are skipped and reported back
// so the caller can log them.
func BuildMatrix(agg order.Aggregated, dates []string) (matrix [][]string, skipped []string) {
	matrix = make([][]string, sizeRows)
	for i := range matrix {
		matrix[i] = make([]string, matrixColumns)
	}

	for _, date := range dates {
		counts, ok := agg[date]
		if !ok {
			continue
		}
		col, err := Column(date)
		if err != nil {
			skipped = append(skipped, date)
			continue
		}
		offset := col - columnOffset
		setCell(matrix[0], offset, counts.Large)
		setCell(matrix[1], offset, counts.Regular)
		setCell(matrix[2], offset, counts.Small)
	}
	return matrix, skipped
}

func setCell(row []string, offset, count int) {
	if count > 0 {
		row[offset] = strconv.Itoa(count)
	}
}
