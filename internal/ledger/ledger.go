// Package ledger matches sampled invoices against general-ledger
// postings and aggregates the matched lines. Matching is exact on the
// digit-only normalization of the invoice number: the two source files
// write invoice numbers with different prefixes and punctuation, and the
// digit string is the only equality both sides share. Leading zeros are
// preserved, so "0042" and "42" are different keys.
package ledger

import (
	"regexp"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MKej88/Bilagskontroll/internal/dataset"
	"github.com/MKej88/Bilagskontroll/internal/money"
	"github.com/MKej88/Bilagskontroll/internal/schema"
)

var (
	reAccountCode  = regexp.MustCompile(`^\s*(\d{3,6})\b`)
	reAccountCombo = regexp.MustCompile(`^\s*(\d{3,6})\s*[-–:]?\s*(.+)$`)
)

// Line is the normalized projection of one matched ledger row.
type Line struct {
	AccountNumber string
	AccountName   string
	Description   string
	VatCode       string
	VatAmount     string // display-formatted, empty when unparsable
	Amount        decimal.Decimal
	HasAmount     bool // false when no amount could be resolved; distinct from zero
	PostedBy      string
}

// Result is the outcome of one invoice lookup: the individual postings
// (the reviewer must see every line, never only the total), their sum
// over resolved amounts, and the line count.
type Result struct {
	Lines []Line
	Sum   decimal.Decimal
	Count int
}

// Index is the per-ledger-load lookup structure: normalized invoice key
// to row indices, built once so repeated lookups against a large ledger
// never re-scan the dataset.
type Index struct {
	ds     *dataset.Dataset
	roles  schema.LedgerRoles
	byKey  map[string][]int
	logger *zap.Logger
}

// NewIndex builds the invoice-number index over a loaded ledger dataset.
func NewIndex(ds *dataset.Dataset, roles schema.LedgerRoles, logger *zap.Logger) *Index {
	idx := &Index{
		ds:     ds,
		roles:  roles,
		byKey:  make(map[string][]int),
		logger: logger,
	}
	if !ds.HasColumn(roles.InvoiceNumber) {
		logger.Warn("Ledger has no invoice-number column, lookups will match nothing",
			zap.String("guessed_column", roles.InvoiceNumber))
		return idx
	}
	for i := 0; i < ds.RowCount(); i++ {
		key := money.OnlyDigits(ds.Get(i, roles.InvoiceNumber))
		if key == "" {
			// A blank invoice field must never match everything.
			continue
		}
		idx.byKey[key] = append(idx.byKey[key], i)
	}
	logger.Info("Ledger index built",
		zap.Int("rows", ds.RowCount()),
		zap.Int("distinct_keys", len(idx.byKey)))
	return idx
}

// LinesFor returns every ledger line whose normalized invoice key equals
// the normalized invoiceValue, with the line sum and count. An empty
// normalized key matches nothing. The function is total: any well-formed
// dataset yields a Result, never an error.
func (x *Index) LinesFor(invoiceValue string) Result {
	key := money.OnlyDigits(invoiceValue)
	if key == "" {
		return Result{}
	}
	rows := x.byKey[key]
	res := Result{Lines: make([]Line, 0, len(rows))}
	for _, i := range rows {
		line := x.project(i)
		if line.HasAmount {
			res.Sum = res.Sum.Add(line.Amount)
		}
		res.Lines = append(res.Lines, line)
	}
	res.Count = len(res.Lines)
	return res
}

// project normalizes one ledger row into a Line.
func (x *Index) project(row int) Line {
	r := x.roles
	get := func(col string) string {
		if col == "" {
			return ""
		}
		return money.ToStr(x.ds.Get(row, col))
	}

	accountNo := get(r.AccountNumber)
	accountName := get(r.AccountName)
	// Cross-derive number and name when the export combines them in one
	// column ("6540 - Inventar") or leaves one of the two blank.
	if accountNo == "" {
		if m := reAccountCode.FindStringSubmatch(accountName); m != nil {
			accountNo = m[1]
		}
	}
	if accountName == "" {
		if m := reAccountCombo.FindStringSubmatch(get(r.AccountNumber)); m != nil {
			if accountNo == "" {
				accountNo = m[1]
			}
			accountName = m[2]
		}
	}

	desc := get(r.Description)
	if desc == "" {
		desc = get(r.LineText)
	}

	line := Line{
		AccountNumber: accountNo,
		AccountName:   accountName,
		Description:   desc,
		VatCode:       get(r.VatCode),
		PostedBy:      get(r.PostedBy),
	}
	if r.VatAmount != "" {
		line.VatAmount = money.FormatMoney(x.ds.Get(row, r.VatAmount))
	}

	// Signed amount: explicit amount column wins, else debit - credit
	// with a missing side as 0, else the line carries no amount at all.
	if r.Amount != "" {
		if v, ok := money.ParseAmount(x.ds.Get(row, r.Amount)); ok {
			line.Amount, line.HasAmount = v, true
		}
	}
	if !line.HasAmount {
		deb, debOK := money.ParseAmount(x.ds.Get(row, r.Debit))
		kre, kreOK := money.ParseAmount(x.ds.Get(row, r.Credit))
		if r.Debit == "" {
			debOK = false
		}
		if r.Credit == "" {
			kreOK = false
		}
		if debOK || kreOK {
			if !debOK {
				deb = decimal.Zero
			}
			if !kreOK {
				kre = decimal.Zero
			}
			line.Amount, line.HasAmount = deb.Sub(kre), true
		}
	}
	return line
}
