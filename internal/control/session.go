// Package control owns the in-memory audit session: the loaded datasets,
// the drawn sample, the per-row decision records and the running control
// totals. It is plain state plus pure derivations; the presentation
// layer observes it and never the other way around.
package control

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MKej88/Bilagskontroll/internal/dataset"
	"github.com/MKej88/Bilagskontroll/internal/ledger"
	"github.com/MKej88/Bilagskontroll/internal/money"
	"github.com/MKej88/Bilagskontroll/internal/sample"
	"github.com/MKej88/Bilagskontroll/internal/schema"
)

var (
	// ErrNoInvoiceData means sampling was requested before a valid
	// invoice register was loaded.
	ErrNoInvoiceData = errors.New("no invoice register loaded")

	// ErrNoSample means a per-sample operation ran before a draw.
	ErrNoSample = errors.New("no sample drawn")
)

// reSumWord matches the standalone word "sum" in any cell of a summary
// row. Exported registers commonly end with a total row, and summary
// rows can appear anywhere, so every row is checked.
var reSumWord = regexp.MustCompile(`(?i)\bsum\b`)

// internalColumnPrefix marks computed columns that must not leak into
// row displays or exports.
const internalColumnPrefix = "_"

// LedgerStatus distinguishes the two empty ledger outcomes the reviewer
// must be able to tell apart.
type LedgerStatus int

const (
	// LedgerNotLoaded: no general ledger has been loaded at all.
	LedgerNotLoaded LedgerStatus = iota
	// LedgerNoMatch: a ledger is loaded but no lines match the invoice.
	LedgerNoMatch
	// LedgerMatched: at least one line matched.
	LedgerMatched
)

// FieldPair is one label/value cell of a sampled row, in column order.
type FieldPair struct {
	Label string
	Value string
}

// Engagement holds the assignment metadata carried into the report.
type Engagement struct {
	Client       string
	ClientNumber string
	Reviewer     string
}

// Session is the single logical audit session. All methods are
// synchronous and the session is not safe for concurrent mutation; only
// one session is active at a time.
type Session struct {
	logger *zap.Logger

	Engagement Engagement

	invoice  *dataset.Dataset
	invRoles schema.InvoiceRoles

	gl      *dataset.Dataset
	glRoles schema.LedgerRoles
	glIndex *ledger.Index

	sampleIdx []int
	records   []DecisionRecord
	seed      int64
}

// NewSession creates an empty session.
func NewSession(logger *zap.Logger) *Session {
	return &Session{logger: logger}
}

// SetInvoiceData installs a freshly loaded invoice register, infers its
// column roles and discards any existing sample and decisions. Datasets
// are replaced wholesale, never merged.
func (s *Session) SetInvoiceData(ds *dataset.Dataset) {
	s.invoice = ds
	s.invRoles = schema.DetectInvoiceRoles(ds.Columns)
	s.sampleIdx = nil
	s.records = nil
	s.logger.Info("Invoice register installed",
		zap.Int("rows", ds.NonEmptyRowCount()),
		zap.String("invoice_column", s.invRoles.InvoiceNumber),
		zap.String("net_amount_column", s.invRoles.NetAmount))
}

// SetLedgerData installs a freshly loaded general ledger, infers its
// roles and builds the invoice-number index once.
func (s *Session) SetLedgerData(ds *dataset.Dataset) {
	s.gl = ds
	s.glRoles = schema.DetectLedgerRoles(ds.Columns)
	s.glIndex = ledger.NewIndex(ds, s.glRoles, s.logger)
}

// HasInvoiceData reports whether a valid invoice register is installed.
// Sampling stays disabled until it is.
func (s *Session) HasInvoiceData() bool {
	return s.invoice != nil
}

// HasLedgerData reports whether a general ledger is installed.
func (s *Session) HasLedgerData() bool {
	return s.glIndex != nil
}

// InvoiceRowCount returns the register's row count, zero when unloaded.
func (s *Session) InvoiceRowCount() int {
	if s.invoice == nil {
		return 0
	}
	return s.invoice.RowCount()
}

// PopulationCount returns the number of non-empty register rows, the
// figure shown as "Antall bilag".
func (s *Session) PopulationCount() int {
	if s.invoice == nil {
		return 0
	}
	return s.invoice.NonEmptyRowCount()
}

// DrawSample draws a fresh sample of n rows with the given seed
// (conventionally the fiscal year). Any previous sample and all its
// decision records are discarded unconditionally. The adjusted sample
// size is returned so callers can observe clamping.
func (s *Session) DrawSample(n int, seed int64) (int, error) {
	if s.invoice == nil {
		return 0, ErrNoInvoiceData
	}
	s.logger.Info("Drawing sample", zap.Int("requested", n), zap.Int64("seed", seed))
	s.sampleIdx = sample.Draw(s.invoice.RowCount(), n, seed)
	s.records = make([]DecisionRecord, len(s.sampleIdx))
	for i := range s.records {
		s.records[i].Decision = DecisionPending
	}
	s.seed = seed
	return len(s.sampleIdx), nil
}

// SampleSize returns the current sample size, zero before any draw.
func (s *Session) SampleSize() int {
	return len(s.sampleIdx)
}

// Seed returns the seed of the current sample.
func (s *Session) Seed() int64 {
	return s.seed
}

// SampleIndices returns the drawn row indices in draw order.
func (s *Session) SampleIndices() []int {
	return s.sampleIdx
}

// SetDecision overwrites the decision and comment of one sampled row.
// Sequencing (auto-advance and the like) is presentation policy, not
// enforced here.
func (s *Session) SetDecision(i int, d Decision, comment string) error {
	if err := s.checkSampleIndex(i); err != nil {
		return err
	}
	s.records[i] = DecisionRecord{Decision: d, Comment: strings.TrimSpace(comment)}
	s.logger.Debug("Decision recorded",
		zap.Int("sample_index", i),
		zap.String("decision", string(d)))
	return nil
}

// Record returns the decision record of one sampled row.
func (s *Session) Record(i int) (DecisionRecord, error) {
	if err := s.checkSampleIndex(i); err != nil {
		return DecisionRecord{}, err
	}
	return s.records[i], nil
}

// InvoiceNumberFor returns the raw invoice-number cell of one sampled row.
func (s *Session) InvoiceNumberFor(i int) (string, error) {
	if err := s.checkSampleIndex(i); err != nil {
		return "", err
	}
	return money.ToStr(s.invoice.Get(s.sampleIdx[i], s.invRoles.InvoiceNumber)), nil
}

// SampleFieldPairs returns the sampled row as ordered label/value pairs,
// blank cells and internal computed columns omitted.
func (s *Session) SampleFieldPairs(i int) ([]FieldPair, error) {
	if err := s.checkSampleIndex(i); err != nil {
		return nil, err
	}
	row := s.sampleIdx[i]
	pairs := make([]FieldPair, 0, len(s.invoice.Columns))
	for col, name := range s.invoice.Columns {
		if name == "" || strings.HasPrefix(name, internalColumnPrefix) {
			continue
		}
		val := money.ToStr(s.invoice.GetAt(row, col))
		if val == "" {
			continue
		}
		pairs = append(pairs, FieldPair{Label: name, Value: val})
	}
	return pairs, nil
}

// LedgerLinesFor looks up the ledger postings of one sampled row. The
// status keeps "no ledger loaded" and "no lines matched" apart; both are
// legitimate outcomes, not errors.
func (s *Session) LedgerLinesFor(i int) (ledger.Result, LedgerStatus, error) {
	if err := s.checkSampleIndex(i); err != nil {
		return ledger.Result{}, LedgerNotLoaded, err
	}
	if s.glIndex == nil {
		return ledger.Result{}, LedgerNotLoaded, nil
	}
	inv, _ := s.InvoiceNumberFor(i)
	res := s.glIndex.LinesFor(inv)
	if res.Count == 0 {
		return res, LedgerNoMatch, nil
	}
	return res, LedgerMatched, nil
}

// SumDecided returns the sum of net amounts over sampled rows with a
// non-pending decision. Recomputed on every call; decision mutations
// never leave a stale cached total behind.
func (s *Session) SumDecided() decimal.Decimal {
	total := decimal.Zero
	for i, rec := range s.records {
		if rec.Decision == DecisionPending {
			continue
		}
		if v, ok := s.netAmountForRow(s.sampleIdx[i]); ok {
			total = total.Add(v)
		}
	}
	return total
}

// SumPopulation returns the net-amount sum over the whole register,
// excluding empty rows and summary rows: the final non-empty row when it
// carries the standalone word "sum" in any cell, and any other row with
// that same match (summary rows can appear anywhere).
func (s *Session) SumPopulation() decimal.Decimal {
	total := decimal.Zero
	if s.invoice == nil {
		return total
	}
	effective := make([]int, 0, s.invoice.RowCount())
	for i := 0; i < s.invoice.RowCount(); i++ {
		if !s.invoice.RowIsEmpty(i) {
			effective = append(effective, i)
		}
	}
	if n := len(effective); n > 0 && s.rowHasSumWord(effective[n-1]) {
		effective = effective[:n-1]
	}
	for _, row := range effective {
		if s.rowHasSumWord(row) {
			continue
		}
		if v, ok := s.netAmountForRow(row); ok {
			total = total.Add(v)
		}
	}
	return total
}

// PercentageReviewed returns SumDecided / SumPopulation * 100, and 0
// when the population sum is zero.
func (s *Session) PercentageReviewed() float64 {
	pop := s.SumPopulation()
	if pop.IsZero() {
		return 0
	}
	pct, _ := s.SumDecided().Div(pop).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// DecisionCounts tallies the sample by decision.
func (s *Session) DecisionCounts() Counts {
	var c Counts
	for _, rec := range s.records {
		switch rec.Decision {
		case DecisionApproved:
			c.Approved++
		case DecisionRejected:
			c.Rejected++
		default:
			c.Pending++
		}
	}
	return c
}

// AmountsByDecision splits the sampled net amounts per decision
// category; the export needs amounts, not only counts.
func (s *Session) AmountsByDecision() map[Decision]decimal.Decimal {
	out := map[Decision]decimal.Decimal{
		DecisionApproved: decimal.Zero,
		DecisionRejected: decimal.Zero,
		DecisionPending:  decimal.Zero,
	}
	for i, rec := range s.records {
		v, ok := s.netAmountForRow(s.sampleIdx[i])
		if !ok {
			continue
		}
		out[rec.Decision] = out[rec.Decision].Add(v)
	}
	return out
}

// netAmountForRow resolves a row's net amount: the inferred net-amount
// column first, then the conventional fallback names in priority order.
// Absence stays absence; it is never coerced to zero.
func (s *Session) netAmountForRow(row int) (decimal.Decimal, bool) {
	cols := make([]string, 0, 1+len(schema.FallbackNetColumns))
	if s.invRoles.NetAmount != "" {
		cols = append(cols, s.invRoles.NetAmount)
	}
	for _, fb := range schema.FallbackNetColumns {
		if fb != s.invRoles.NetAmount {
			cols = append(cols, fb)
		}
	}
	for _, col := range cols {
		if !s.invoice.HasColumn(col) {
			continue
		}
		if v, ok := money.ParseAmount(s.invoice.Get(row, col)); ok {
			return v, true
		}
	}
	return decimal.Decimal{}, false
}

func (s *Session) rowHasSumWord(row int) bool {
	return s.invoice.RowMatches(row, func(cell string) bool {
		return reSumWord.MatchString(cell)
	})
}

func (s *Session) checkSampleIndex(i int) error {
	if len(s.sampleIdx) == 0 {
		return ErrNoSample
	}
	if i < 0 || i >= len(s.sampleIdx) {
		return fmt.Errorf("sample index %d out of range [0, %d)", i, len(s.sampleIdx))
	}
	return nil
}
