package ordercard

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/interh852/lunch-order/internal/errors"
	"github.com/interh852/lunch-order/internal/order"
)

// Grid is the minimal spreadsheet surface the writer needs. Cell values are
// strings; a blank string is an empty cell. Coordinates are 1-based.
type Grid interface {
	Read(startRow, startCol, numRows, numCols int) ([][]string, error)
	Clear(startRow, startCol, numRows, numCols int) error
	Write(startRow, startCol int, values [][]string) error
}

// Delta is the before/after pair for one (date, size) cell.
type Delta struct {
	Previous int
	Current  int
	Diff     int
}

// CellDeltas maps date, then size category, to the cells whose value changed
// during a rewrite. Unchanged cells are absent.
type CellDeltas map[string]map[order.SizeCategory]Delta

// Writer rewrites one week block of an order card. The rewrite is clear-
// then-write: the whole block is erased and rebuilt from the aggregation, so
// writing the same totals twice leaves the card unchanged.
type Writer struct {
	grid Grid
	log  *zap.SugaredLogger
}

// NewWriter wires a writer to a grid backend.
func NewWriter(grid Grid, log *zap.SugaredLogger) *Writer {
	return &Writer{grid: grid, log: log.Named("ordercard")}
}

// WriteWeek writes the aggregated counts for one week's dates into the card
// and returns the cell-level deltas against what the block held before. All
// dates must fall in the same month; the week block is derived from the
// first date.
func (w *Writer) WriteWeek(agg order.Aggregated, dates []string) (CellDeltas, error) {
	if len(dates) == 0 {
		return nil, errors.NewInvalidRequest("no dates to write")
	}
	first, err := order.ParseDate(dates[0])
	if err != nil {
		return nil, errors.NewInvalidRequest("not a valid order date: " + dates[0])
	}
	weekNumber := order.WeekNumberInMonth(first)
	baseRow := BaseRow(weekNumber)

	previous, err := w.readBlock(baseRow, dates)
	if err != nil {
		return nil, err
	}

	if err := w.grid.Clear(baseRow, columnOffset, sizeRows, matrixColumns); err != nil {
		return nil, errors.NewExternalCall("ordercard", err)
	}

	matrix, skipped := BuildMatrix(agg, dates)
	for _, date := range skipped {
		w.log.Warnw("skipping non-weekday date", "date", date)
	}
	if err := w.grid.Write(baseRow, columnOffset, matrix); err != nil {
		return nil, errors.NewExternalCall("ordercard", err)
	}
	w.log.Infow("order card block written", "week", weekNumber, "dates", len(dates))

	return diffBlock(previous, agg, dates), nil
}

// readBlock captures the per-date counts currently on the card, keyed the
// same way the aggregation is, so deltas can be computed after the rewrite.
func (w *Writer) readBlock(baseRow int, dates []string) (order.Aggregated, error) {
	block, err := w.grid.Read(baseRow, columnOffset, sizeRows, matrixColumns)
	if err != nil {
		return nil, errors.NewExternalCall("ordercard", err)
	}

	previous := make(order.Aggregated, len(dates))
	for _, date := range dates {
		col, err := Column(date)
		if err != nil {
			continue
		}
		offset := col - columnOffset
		previous[date] = order.DailyCounts{
			Large:   cellCount(block, 0, offset),
			Regular: cellCount(block, 1, offset),
			Small:   cellCount(block, 2, offset),
		}
	}
	return previous, nil
}

// cellCount reads one cell as a count. Blank or unparsable cells count as
// zero, matching how a half-filled card is read by hand.
func cellCount(block [][]string, row, col int) int {
	if row >= len(block) || col >= len(block[row]) {
		return 0
	}
	n, err := strconv.Atoi(block[row][col])
	if err != nil {
		return 0
	}
	return n
}

func diffBlock(previous, current order.Aggregated, dates []string) CellDeltas {
	deltas := make(CellDeltas)
	sizes := []order.SizeCategory{order.SizeLarge, order.SizeRegular, order.SizeSmall}

	for _, date := range dates {
		prev := previous[date]
		curr := current[date]

		var dateDeltas map[order.SizeCategory]Delta
		for _, size := range sizes {
			p, c := prev.Get(size), curr.Get(size)
			if p == c {
				continue
			}
			if dateDeltas == nil {
				dateDeltas = make(map[order.SizeCategory]Delta)
			}
			dateDeltas[size] = Delta{Previous: p, Current: c, Diff: c - p}
		}
		if dateDeltas != nil {
			deltas[date] = dateDeltas
		}
	}
	return deltas
}
