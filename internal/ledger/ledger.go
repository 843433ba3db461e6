// Package ledger reads and writes the shared order spreadsheet: the order
// history tab that people type orders into, and the menu tab the workflow
// fills from extracted PDFs.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"github.com/interh852/lunch-order/internal/errors"
	"github.com/interh852/lunch-order/internal/order"
)

// Order-history column indexes, 0-based from column A. The sheet is filled
// by hand, so the layout is fixed but the cells are free text.
const (
	colPerson = 2
	colDate   = 3
	colStore  = 4
	colSize   = 6
	colCount  = 7
)

// MenuRow is one extracted menu line appended to the menu tab.
type MenuRow struct {
	Date      string
	StoreName string
	Menu      string
}

// Reader is the ledger surface the workflows read from.
type Reader interface {
	OrdersForDates(ctx context.Context, dates []string) ([]order.Record, error)
	StoreNameForDates(ctx context.Context, dates []string) (string, error)
	HasMenuForRange(ctx context.Context, dates []string) (bool, error)
}

// Service implements Reader plus the menu append over the Sheets API.
type Service struct {
	svc            *sheets.Service
	spreadsheetID  string
	orderSheetName string
	menuSheetName  string
	log            *zap.SugaredLogger
}

// NewService wires the ledger to the order spreadsheet.
func NewService(svc *sheets.Service, spreadsheetID, orderSheetName, menuSheetName string, log *zap.SugaredLogger) *Service {
	return &Service{
		svc:            svc,
		spreadsheetID:  spreadsheetID,
		orderSheetName: orderSheetName,
		menuSheetName:  menuSheetName,
		log:            log.Named("ledger"),
	}
}

// OrdersForDates returns the order rows whose date falls in the given set.
// Rows missing a person or size are half-typed entries and are skipped.
func (s *Service) OrdersForDates(ctx context.Context, dates []string) ([]order.Record, error) {
	values, err := s.readRows(ctx, s.orderSheetName)
	if err != nil {
		return nil, err
	}
	return parseOrderRows(values, dates), nil
}

// StoreNameForDates returns the store name on the first order row in the
// date set, used to address the vendor email.
func (s *Service) StoreNameForDates(ctx context.Context, dates []string) (string, error) {
	values, err := s.readRows(ctx, s.orderSheetName)
	if err != nil {
		return "", err
	}
	wanted := dateSet(dates)
	for _, row := range values {
		if !wanted[canonicalDate(cell(row, colDate))] {
			continue
		}
		if store := cell(row, colStore); store != "" {
			return store, nil
		}
	}
	return "", nil
}

// HasMenuForRange reports whether the menu tab has a row for any of the
// given dates.
func (s *Service) HasMenuForRange(ctx context.Context, dates []string) (bool, error) {
	values, err := s.readRows(ctx, s.menuSheetName)
	if err != nil {
		return false, err
	}
	wanted := dateSet(dates)
	for _, row := range values {
		if wanted[canonicalDate(cell(row, 0))] {
			return true, nil
		}
	}
	return false, nil
}

// AppendMenuRows adds extracted menu lines below the existing menu data.
func (s *Service) AppendMenuRows(ctx context.Context, rows []MenuRow) error {
	if len(rows) == 0 {
		return nil
	}
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{r.Date, r.StoreName, r.Menu})
	}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, fmt.Sprintf("%s!A:C", s.menuSheetName), &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return errors.NewExternalCall("sheets", err)
	}
	s.log.Infow("menu rows appended", "rows", len(rows))
	return nil
}

// readRows fetches a tab's data rows, skipping the header row.
func (s *Service) readRows(ctx context.Context, sheetName string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, fmt.Sprintf("%s!A2:H", sheetName)).
		Context(ctx).Do()
	if err != nil {
		return nil, errors.NewExternalCall("sheets", err)
	}
	return resp.Values, nil
}

// parseOrderRows turns raw sheet rows into records for the wanted dates.
func parseOrderRows(values [][]interface{}, dates []string) []order.Record {
	wanted := dateSet(dates)

	var records []order.Record
	for _, row := range values {
		date := canonicalDate(cell(row, colDate))
		if !wanted[date] {
			continue
		}
		person := cell(row, colPerson)
		size := cell(row, colSize)
		if person == "" || size == "" {
			continue
		}
		records = append(records, order.Record{
			Date:   date,
			Person: person,
			Size:   size,
			Count:  parseCount(cell(row, colCount)),
		})
	}
	return records
}

// parseCount reads the count cell, defaulting to 1 for blank or non-numeric
// values. The sheet leaves the cell empty for single orders.
func parseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// canonicalDate normalizes a sheet date cell into YYYY/MM/DD. The sheet
// renders dates with slashes, but hyphens appear when rows are pasted in.
func canonicalDate(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "-", "/"))
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return raw
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return raw
	}
	return fmt.Sprintf("%04d/%02d/%02d", year, month, day)
}

func dateSet(dates []string) map[string]bool {
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}
