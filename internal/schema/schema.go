// Package schema guesses which spreadsheet column plays which semantic
// role. Source files come from several accounting systems with no fixed
// column order, so roles are inferred from header names, Norwegian and
// English spellings both.
package schema

import (
	"regexp"
	"strings"
)

// Role identifies the semantic meaning of a column.
type Role string

const (
	RoleInvoiceNumber   Role = "invoice_number"
	RoleNetAmount       Role = "net_amount"
	RoleAccountNumber   Role = "account_number"
	RoleAccountName     Role = "account_name"
	RoleLineText        Role = "line_text"
	RoleLineDescription Role = "line_description"
	RoleVatCode         Role = "vat_code"
	RoleVatAmount       Role = "vat_amount"
	RoleDebit           Role = "debit"
	RoleCredit          Role = "credit"
	RoleAmount          Role = "amount"
	RolePostedBy        Role = "posted_by"
)

// rolePatterns keeps the heuristic declarative: one priority-ordered
// pattern list per role, all evaluated by GuessColumn. Norwegian terms
// lead because the primary source systems export Norwegian headers.
//
// RE2 has no lookahead, so the VAT-code patterns exclude "MVA-beløp"
// style headers with an explicit next-character class instead.
var rolePatterns = map[Role][]string{
	RoleInvoiceNumber: {
		`^faktura\.?nr\.?$`,
		`^fakturanr\.?$`,
		`^faktura[ \._-]*nummer$`,
		`^invoice.*(no|number)$`,
	},
	RoleNetAmount: {
		`nettobel(ø|o)p`,
		`netto.*bel(ø|o)p`,
		`bel(ø|o)p\s*eks`,
		`^netto$`,
		`^bel(ø|o)p$`,
		`^sum$`,
		`total`,
	},
	RoleAccountNumber: {
		`^kontonr\.?$`,
		`konto.*nummer`,
		`account.*(number|no)`,
		`acct.*no`,
	},
	RoleAccountName: {
		`^kontonavn$`,
		`konto\s*navn`,
		`^konto$`,
		`account.*name`,
		`(?:^| )navn$`,
	},
	RoleLineText: {
		`^tekst$`,
		`text`,
		`posteringstekst`,
	},
	RoleLineDescription: {
		`beskrivelse`,
		`description`,
		`forklaring`,
	},
	RoleVatCode: {
		`^mva($|[^-])`,
		`mva[- ]?kode`,
		`^vat($|[ _-]?code)`,
		`tax code`,
	},
	RoleVatAmount: {
		`mva[- ]?bel(ø|o)p`,
		`vat amount`,
		`tax amount`,
	},
	RoleDebit: {
		`^debet$`,
		`debit`,
	},
	RoleCredit: {
		`^kredit$`,
		`credit`,
	},
	RoleAmount: {
		`^bel(ø|o)p$`,
		`amount`,
		`sum`,
	},
	RolePostedBy: {
		`postert\s*av`,
		`bokf(ø|o)rt\s*av`,
		`registrert\s*av`,
		`posted\s*by`,
		`created\s*by`,
	},
}

// FallbackNetColumns is the ordered list of conventional literal header
// names callers try when RoleNetAmount inference finds nothing.
var FallbackNetColumns = []string{
	"Beløp",
	"Belop",
	"Total",
	"Sum",
	"Nettobeløp",
	"Netto beløp",
	"Beløp eks mva",
}

// GuessColumn returns the first header matching any of the supplied
// patterns. Headers are the outer loop: the first header that satisfies
// any pattern wins. Matching is a case-insensitive regexp search against
// the trimmed header.
func GuessColumn(headers []string, patterns ...string) (string, bool) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	for _, h := range headers {
		lc := strings.ToLower(strings.TrimSpace(h))
		for _, re := range compiled {
			if re.MatchString(lc) {
				return h, true
			}
		}
	}
	return "", false
}

// GuessRole runs the declarative pattern list for a single role.
func GuessRole(headers []string, role Role) (string, bool) {
	return GuessColumn(headers, rolePatterns[role]...)
}

// GuessInvoiceColumn always returns a column. When no header matches the
// known invoice-number spellings it falls back to the second column
// (invoice lists conventionally carry a sequence counter first), or the
// first when only one exists.
func GuessInvoiceColumn(headers []string) string {
	if col, ok := GuessRole(headers, RoleInvoiceNumber); ok {
		return col
	}
	if len(headers) > 1 {
		return headers[1]
	}
	if len(headers) == 1 {
		return headers[0]
	}
	return ""
}

// GuessNetAmountColumn returns not-found rather than guessing; callers
// degrade to FallbackNetColumns per row.
func GuessNetAmountColumn(headers []string) (string, bool) {
	return GuessRole(headers, RoleNetAmount)
}

// InvoiceRoles binds the roles the invoice register needs. Inference runs
// once per loaded dataset.
type InvoiceRoles struct {
	InvoiceNumber string
	NetAmount     string // empty when inference found nothing
}

// DetectInvoiceRoles infers the invoice register's column bindings.
func DetectInvoiceRoles(headers []string) InvoiceRoles {
	r := InvoiceRoles{InvoiceNumber: GuessInvoiceColumn(headers)}
	r.NetAmount, _ = GuessNetAmountColumn(headers)
	return r
}

// LedgerRoles binds every role a general-ledger export may carry. Absent
// roles are empty strings; downstream lookups treat them as missing
// columns.
type LedgerRoles struct {
	InvoiceNumber string
	AccountNumber string
	AccountName   string
	LineText      string
	Description   string
	VatCode       string
	VatAmount     string
	Debit         string
	Credit        string
	Amount        string
	PostedBy      string
}

// DetectLedgerRoles infers the ledger's column bindings in one pass.
func DetectLedgerRoles(headers []string) LedgerRoles {
	r := LedgerRoles{InvoiceNumber: GuessInvoiceColumn(headers)}
	r.AccountNumber, _ = GuessRole(headers, RoleAccountNumber)
	r.AccountName, _ = GuessRole(headers, RoleAccountName)
	r.LineText, _ = GuessRole(headers, RoleLineText)
	r.Description, _ = GuessRole(headers, RoleLineDescription)
	r.VatCode, _ = GuessRole(headers, RoleVatCode)
	r.VatAmount, _ = GuessRole(headers, RoleVatAmount)
	r.Debit, _ = GuessRole(headers, RoleDebit)
	r.Credit, _ = GuessRole(headers, RoleCredit)
	r.Amount, _ = GuessRole(headers, RoleAmount)
	r.PostedBy, _ = GuessRole(headers, RolePostedBy)
	return r
}
