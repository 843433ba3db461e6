// Package drive handles the Drive folders the workflow reads and writes:
// menu PDFs, saved invoice PDFs, and the monthly order-card spreadsheets.
package drive

import (
	"regexp"
	"strings"
)

// ProcessedSuffix marks a menu PDF the workflow has already extracted.
const ProcessedSuffix = "_processed"

// orderCardPrefix is the fixed naming convention for the monthly card
// spreadsheets, e.g. "オーダーカード2025.12".
const orderCardPrefix = "オーダーカード"

var (
	pdfGlued     = regexp.MustCompile(`(\d{2,4})(?:pdf|PDF)`)
	nonFileChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)
	doublePDF    = regexp.MustCompile(`(?i)(?:\.pdf)?\.pdf$`)
	yearMonthPat = regexp.MustCompile(`(\d{4})\.(\d{2})`)
)

// NormalizeFileName cleans a hand-named menu PDF into the canonical
// "YYYY.MM.pdf" shape: a "pdf" glued to digits becomes a dot, everything
// outside alphanumerics and dots is stripped, and doubled pdf extensions
// collapse to one.
func NormalizeFileName(name string) string {
	if name == "" {
		return ""
	}
	cleaned := pdfGlued.ReplaceAllString(name, "$1.")
	cleaned = nonFileChars.ReplaceAllString(cleaned, "")
	return doublePDF.ReplaceAllString(cleaned, ".pdf")
}

// ExtractYearMonth pulls the YYYY and MM out of a normalized menu filename.
func ExtractYearMonth(name string) (year, month string, ok bool) {
	m := yearMonthPat.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// AddProcessedSuffix renames a PDF as processed, e.g. "2025.12.pdf" →
// "2025.12_processed.pdf".
func AddProcessedSuffix(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return name[:len(name)-len(".pdf")] + ProcessedSuffix + ".pdf"
	}
	return name + ProcessedSuffix
}

// HasProcessedSuffix reports whether a filename carries the processed mark.
func HasProcessedSuffix(name string) bool {
	return strings.Contains(name, ProcessedSuffix)
}

// OrderCardName is the spreadsheet filename for a YYYY.MM month key.
func OrderCardName(yearMonth string) string {
	return orderCardPrefix + yearMonth
}
