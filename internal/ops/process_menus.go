package ops

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/interh852/lunch-order/internal/db"
	"github.com/interh852/lunch-order/internal/drive"
	"github.com/interh852/lunch-order/internal/ledger"
)

// MenuFileReport is the outcome for one menu PDF.
type MenuFileReport struct {
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
	Failed   bool   `json:"failed"`
	Reason   string `json:"reason,omitempty"`
}

// ProcessMenusOutput contains the result of the ProcessMenus operation.
type ProcessMenusOutput struct {
	Files []MenuFileReport `json:"files"`
}

// ProcessMenus extracts menu rows from each unprocessed PDF in the menu
// folder, appends them to the menu sheet sorted by date, and renames the
// file as processed. A PDF that fails to extract keeps its name and is
// retried on the next run.
func ProcessMenus(ctx context.Context, env *Env) (*ProcessMenusOutput, error) {
	if err := env.Cfg.Validate(); err != nil {
		return nil, err
	}
	runID := env.startRun("process-menus")

	files, err := env.Storage.ListUnprocessedMenuPDFs(ctx, env.Cfg.MenuFolderID)
	if err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}
	if len(files) == 0 {
		env.Log.Infow("no unprocessed menu pdfs")
		env.finishRun(runID, db.RunStatusSkipped, "no unprocessed pdfs")
		return &ProcessMenusOutput{}, nil
	}

	out := &ProcessMenusOutput{}
	for _, f := range files {
		out.Files = append(out.Files, processMenuFile(ctx, env, f))
	}

	env.finishRun(runID, db.RunStatusOK, fmt.Sprintf("%d files", len(out.Files)))
	return out, nil
}

func processMenuFile(ctx context.Context, env *Env, f drive.File) MenuFileReport {
	report := MenuFileReport{Filename: f.Name}
	fail := func(stage string, err error) MenuFileReport {
		report.Failed = true
		report.Reason = fmt.Sprintf("%s: %v", stage, err)
		env.Log.Errorw("menu processing failed", "file", f.Name, "stage", stage, "error", err)
		return report
	}

	year, month, ok := drive.ExtractYearMonth(drive.NormalizeFileName(f.Name))
	if !ok {
		return fail("filename", fmt.Errorf("no year-month in %q", f.Name))
	}

	data, err := env.Storage.Download(ctx, f.ID)
	if err != nil {
		return fail("download", err)
	}

	items, err := env.Extract.ExtractMenu(ctx, data)
	if err != nil {
		return fail("extract", err)
	}
	if len(items) == 0 {
		return fail("extract", fmt.Errorf("no menu rows extracted"))
	}

	rows := make([]ledger.MenuRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, ledger.MenuRow{
			Date:      stampDate(year, month, item.Date),
			StoreName: item.StoreName,
			Menu:      item.Menu,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

	if err := env.Ledger.AppendMenuRows(ctx, rows); err != nil {
		return fail("append", err)
	}
	report.Rows = len(rows)

	if err := env.Storage.Rename(ctx, f.ID, drive.AddProcessedSuffix(f.Name)); err != nil {
		// Rows are already appended; a stale name only risks a duplicate
		// append next run, which the operator resolves on the sheet.
		env.Log.Warnw("failed to mark pdf processed", "file", f.Name, "error", err)
	}
	env.Log.Infow("menu pdf processed", "file", f.Name, "rows", report.Rows)
	return report
}

// stampDate completes a possibly year-less extracted date with the year and
// month taken from the PDF's filename. The model sees only what the menu
// prints, which is usually month/day or a bare day.
func stampDate(year, month, raw string) string {
	parts := strings.Split(strings.TrimSpace(strings.ReplaceAll(raw, "-", "/")), "/")
	switch len(parts) {
	case 3:
		return fmt.Sprintf("%s/%s/%s", parts[0], pad2(parts[1]), pad2(parts[2]))
	case 2:
		return fmt.Sprintf("%s/%s/%s", year, pad2(parts[0]), pad2(parts[1]))
	case 1:
		return fmt.Sprintf("%s/%s/%s", year, month, pad2(parts[0]))
	default:
		return raw
	}
}

func pad2(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%02d", n)
}
