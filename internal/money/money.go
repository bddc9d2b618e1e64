// Package money parses and formats locale-formatted amounts from
// spreadsheet exports. The source convention is Norwegian: comma decimal
// separator, space (or NBSP) thousands grouping, and accounting-style
// negatives written either with a trailing minus ("123-") or in
// parentheses ("(123,45)").
package money

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reFloatSuffix = regexp.MustCompile(`^\d+\.0$`)
	reNonDigit    = regexp.MustCompile(`\D+`)
	rePlainNumber = regexp.MustCompile(`^-?\d+(?:[.,]\d+)?$`)
	reBareNumber  = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// ToStr normalizes a raw cell value for display and comparison: trims
// whitespace and collapses the "123.0" float artifact spreadsheet engines
// leave on integer cells.
func ToStr(v string) string {
	s := strings.TrimSpace(v)
	if reFloatSuffix.MatchString(s) {
		return s[:len(s)-2]
	}
	return s
}

// OnlyDigits strips every non-digit character. It is the normalization
// both sides of an invoice/ledger match go through, so matching stays
// independent of prefixes and punctuation. Leading zeros are preserved:
// "0042" and "42" normalize to different keys.
func OnlyDigits(s string) string {
	return reNonDigit.ReplaceAllString(ToStr(s), "")
}

// ParseAmount converts a raw cell value to a decimal amount. The second
// return value reports whether the input held a number at all; callers
// must keep "unknown" distinct from zero. ParseAmount never panics and
// never returns an error: anything unparsable is simply not an amount.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := ToStr(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.Decimal{}, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 2 {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") && reBareNumber.MatchString(s[:len(s)-1]) {
		neg = !neg
		s = s[:len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// FormatMoney renders a raw value with space thousands separators, a
// comma decimal separator and two decimals. Unparsable input renders as
// the empty string.
func FormatMoney(raw string) string {
	d, ok := ParseAmount(raw)
	if !ok {
		return ""
	}
	return FormatMoneyDecimal(d)
}

// FormatMoneyDecimal renders an already-parsed amount, two decimals.
func FormatMoneyDecimal(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, decPart, _ := strings.Cut(s, ".")
	out := groupThousands(intPart) + "," + decPart
	if neg {
		out = "-" + out
	}
	return out
}

// FormatThousands adds display grouping to a plain numeric string and
// passes everything else through untouched. Values that already carry
// both separators are left alone rather than guessed at.
func FormatThousands(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	core := strings.ReplaceAll(s, " ", "")
	core = strings.ReplaceAll(core, " ", "")
	if !rePlainNumber.MatchString(core) {
		return s
	}
	if strings.Contains(core, ",") && strings.Contains(core, ".") {
		return s
	}
	neg := strings.HasPrefix(core, "-")
	if neg {
		core = core[1:]
	}
	intPart := core
	decPart := ""
	hasDec := false
	if i := strings.IndexAny(core, ",."); i >= 0 {
		intPart, decPart = core[:i], core[i+1:]
		hasDec = true
	}
	out := groupThousands(intPart)
	if hasDec {
		out += "," + decPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FormatPercent renders a ratio as "12.3%".
func FormatPercent(p float64) string {
	d := decimal.NewFromFloat(p)
	return d.StringFixed(1) + "%"
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	rem := n % 3
	if rem > 0 {
		b.WriteString(digits[:rem])
	}
	for i := rem; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
