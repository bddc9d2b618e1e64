package dataset

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ledgerHeaderLookahead is how many leading rows the ledger loader scans
// for the header. Ledger exports vary between "header on row 1" and
// "header after a metadata block".
const ledgerHeaderLookahead = 10

// Loader reads the invoice register and general ledger from Excel
// workbooks. Only the first worksheet of each file is read.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadInvoice reads the invoice register. The header sits at a fixed,
// caller-specified row offset (convention: index 4) because the source
// files carry a cover block above the data table.
func (l *Loader) LoadInvoice(path string, headerRow int) (*Dataset, error) {
	l.logger.Info("Loading invoice register",
		zap.String("path", path),
		zap.Int("header_row", headerRow))

	rows, err := l.readSheet(path)
	if err != nil {
		return nil, err
	}
	if headerRow < 0 || headerRow >= len(rows) {
		return nil, fmt.Errorf("%w: header row %d beyond sheet", ErrEmptyDataset, headerRow)
	}
	return l.build(rows, headerRow)
}

// LoadLedger reads the general ledger. The header row position is not
// fixed: the first row within the lookahead window whose proportion of
// non-empty cells exceeds half the table width is taken as the header,
// falling back to the first row.
func (l *Loader) LoadLedger(path string) (*Dataset, error) {
	l.logger.Info("Loading general ledger", zap.String("path", path))

	rows, err := l.readSheet(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	headerRow := detectHeaderRow(rows)
	l.logger.Debug("Ledger header detected", zap.Int("header_row", headerRow))
	return l.build(rows, headerRow)
}

func (l *Loader) readSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func (l *Loader) build(rows [][]string, headerRow int) (*Dataset, error) {
	header := rows[headerRow]
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-headerRow-1)
	for _, r := range rows[headerRow+1:] {
		row := make([]string, len(columns))
		for i := range columns {
			if i < len(r) {
				row[i] = r[i]
			}
		}
		data = append(data, row)
	}

	ds := New(columns, data)
	if ds.NonEmptyRowCount() == 0 {
		return nil, ErrEmptyDataset
	}
	l.logger.Info("Dataset loaded",
		zap.Int("columns", len(columns)),
		zap.Int("rows", ds.RowCount()),
		zap.Int("non_empty_rows", ds.NonEmptyRowCount()))
	return ds, nil
}

// detectHeaderRow picks the first leading row populated enough to be the
// header: more than half of the table width non-empty.
func detectHeaderRow(rows [][]string) int {
	width := 0
	limit := ledgerHeaderLookahead
	if limit > len(rows) {
		limit = len(rows)
	}
	for _, r := range rows[:limit] {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 {
		return 0
	}
	for i, r := range rows[:limit] {
		filled := 0
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				filled++
			}
		}
		if float64(filled) > float64(width)/2 {
			return i
		}
	}
	return 0
}

var (
	reClientLabel = regexp.MustCompile(`(?i)^\s*(Kunde|Customer)\s*[:\-]\s*(.+)$`)
	reNumericish  = regexp.MustCompile(`^[\d\s\.,:/-]+$`)
	reCoverLabel  = regexp.MustCompile(`(?i)faktura|liste|dato|org|orgnr|organisasjonsnummer|periode|rapport|utvalg`)
)

// ExtractClientName reads the cover rows above the invoice table and
// tries to recover the client name: first a "Kunde:"/"Customer:" label,
// otherwise the longest text cell that is neither numeric nor one of the
// usual cover labels. Best-effort; returns "" on any failure.
func (l *Loader) ExtractClientName(path string) string {
	rows, err := l.readSheet(path)
	if err != nil || len(rows) < 2 {
		return ""
	}
	row2 := rows[1]
	for _, v := range row2 {
		if m := reClientLabel.FindStringSubmatch(strings.TrimSpace(v)); m != nil {
			return strings.TrimSpace(m[2])
		}
	}
	best := ""
	for _, v := range row2 {
		s := strings.TrimSpace(v)
		if s == "" || reNumericish.MatchString(s) || reCoverLabel.MatchString(s) {
			continue
		}
		if len(s) > len(best) {
			best = s
		}
	}
	return best
}
