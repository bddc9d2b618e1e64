// Package report assembles the printable audit record: every sampled
// invoice with its decision, comment and matched ledger postings, plus
// the aggregate control totals. The payload is the one durable artifact
// the core produces; rendering it to a document is a collaborator's job,
// though a default Excel renderer is bundled.
package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKej88/Bilagskontroll/internal/control"
	"github.com/MKej88/Bilagskontroll/internal/ledger"
	"github.com/MKej88/Bilagskontroll/internal/money"
)

// Field is one display-formatted label/value pair of a sampled row.
type Field struct {
	Label string
	Value string
}

// LedgerSection carries the matched postings of one sampled invoice.
type LedgerSection struct {
	Status control.LedgerStatus
	Lines  []ledger.Line
	Sum    decimal.Decimal
	Count  int
}

// InvoiceSection is the report block for one sampled invoice.
type InvoiceSection struct {
	Position      int // 1-based position within the sample
	InvoiceNumber string
	Fields        []Field
	Decision      control.Decision
	Comment       string
	Ledger        LedgerSection
}

// Totals are the aggregate control figures shown in the report header.
type Totals struct {
	SumDecided     decimal.Decimal
	SumPopulation  decimal.Decimal
	PercentDecided float64
	Counts         control.Counts
	// Amounts splits the decided/pending sums per category.
	Amounts map[control.Decision]decimal.Decimal
}

// Payload is the complete report data model handed to a renderer.
type Payload struct {
	GeneratedAt time.Time
	Engagement  control.Engagement
	SampleSize  int
	Seed        int64
	Totals      Totals
	Invoices    []InvoiceSection
}

// Build assembles the payload from the session. It fails only when no
// sample has been drawn; everything else degrades to empty sections.
func Build(s *control.Session) (*Payload, error) {
	if s.SampleSize() == 0 {
		return nil, control.ErrNoSample
	}

	p := &Payload{
		GeneratedAt: time.Now(),
		Engagement:  s.Engagement,
		SampleSize:  s.SampleSize(),
		Seed:        s.Seed(),
		Totals: Totals{
			SumDecided:     s.SumDecided(),
			SumPopulation:  s.SumPopulation(),
			PercentDecided: s.PercentageReviewed(),
			Counts:         s.DecisionCounts(),
			Amounts:        s.AmountsByDecision(),
		},
	}

	for i := 0; i < s.SampleSize(); i++ {
		inv, err := s.InvoiceNumberFor(i)
		if err != nil {
			return nil, err
		}
		pairs, err := s.SampleFieldPairs(i)
		if err != nil {
			return nil, err
		}
		rec, err := s.Record(i)
		if err != nil {
			return nil, err
		}
		res, status, err := s.LedgerLinesFor(i)
		if err != nil {
			return nil, err
		}

		section := InvoiceSection{
			Position:      i + 1,
			InvoiceNumber: inv,
			Fields:        make([]Field, 0, len(pairs)),
			Decision:      rec.Decision,
			Comment:       rec.Comment,
			Ledger: LedgerSection{
				Status: status,
				Lines:  res.Lines,
				Sum:    res.Sum,
				Count:  res.Count,
			},
		}
		for _, fp := range pairs {
			section.Fields = append(section.Fields, Field{
				Label: fp.Label,
				Value: displayValue(fp.Label, fp.Value),
			})
		}
		p.Invoices = append(p.Invoices, section)
	}
	return p, nil
}

// displayValue applies thousands grouping to everything except invoice
// numbers, which must render verbatim.
func displayValue(label, value string) string {
	if isInvoiceNumberLabel(label) {
		return value
	}
	return money.FormatThousands(value)
}

func isInvoiceNumberLabel(label string) bool {
	lc := strings.ToLower(label)
	return strings.HasPrefix(lc, "faktura") && strings.Contains(lc, "nr")
}
