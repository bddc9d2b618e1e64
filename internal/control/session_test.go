package control

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MKej88/Bilagskontroll/internal/dataset"
)

func invoiceDataset(rows [][]string) *dataset.Dataset {
	return dataset.New([]string{"Nr", "Fakturanr", "Leverandør", "Nettobeløp"}, rows)
}

func newLoadedSession(t *testing.T, rows [][]string) *Session {
	t.Helper()
	s := NewSession(zap.NewNop())
	s.SetInvoiceData(invoiceDataset(rows))
	return s
}

func TestDrawSampleResetsDecisions(t *testing.T) {
	s := newLoadedSession(t, [][]string{
		{"1", "F-1", "A", "100"},
		{"2", "F-2", "B", "200"},
		{"3", "F-3", "C", "300"},
	})

	n, err := s.DrawSample(2, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, s.SetDecision(0, DecisionApproved, "ok"))

	// Re-drawing discards all prior decision records unconditionally.
	_, err = s.DrawSample(2, 2024)
	require.NoError(t, err)
	rec, err := s.Record(0)
	require.NoError(t, err)
	assert.Equal(t, DecisionPending, rec.Decision)
	assert.Empty(t, rec.Comment)
}

func TestDrawSampleWithoutData(t *testing.T) {
	s := NewSession(zap.NewNop())
	_, err := s.DrawSample(5, 2024)
	assert.ErrorIs(t, err, ErrNoInvoiceData)
}

func TestDecisionReassignment(t *testing.T) {
	s := newLoadedSession(t, [][]string{
		{"1", "F-1", "A", "100"},
		{"2", "F-2", "B", "200"},
		{"3", "F-3", "C", "300"},
	})
	_, err := s.DrawSample(3, 2024)
	require.NoError(t, err)

	require.NoError(t, s.SetDecision(1, DecisionApproved, ""))
	require.NoError(t, s.SetDecision(1, DecisionRejected, "feil konto"))

	c := s.DecisionCounts()
	assert.Equal(t, 0, c.Approved)
	assert.Equal(t, 1, c.Rejected)
	assert.Equal(t, 2, c.Pending)
	assert.Equal(t, s.SampleSize(), c.Total())

	rec, err := s.Record(1)
	require.NoError(t, err)
	assert.Equal(t, "feil konto", rec.Comment)
}

func TestSetDecisionOutOfRange(t *testing.T) {
	s := newLoadedSession(t, [][]string{{"1", "F-1", "A", "100"}})
	assert.ErrorIs(t, s.SetDecision(0, DecisionApproved, ""), ErrNoSample)

	_, err := s.DrawSample(1, 2024)
	require.NoError(t, err)
	assert.Error(t, s.SetDecision(5, DecisionApproved, ""))
}

func TestSumPopulationExcludesSummaryRows(t *testing.T) {
	s := newLoadedSession(t, [][]string{
		{"1", "F-1", "A", "100"},
		{"2", "F-2", "B", "200"},
		{"", "", "Sum", "300"},
	})
	assert.True(t, s.SumPopulation().Equal(decimal.NewFromInt(300)),
		"got %s", s.SumPopulation())
}

func TestSumPopulationExcludesSummaryRowsAnywhere(t *testing.T) {
	s := newLoadedSession(t, [][]string{
		{"1", "F-1", "A", "100"},
		{"", "", "SUM hittil", "999"},
		{"2", "F-2", "B", "200"},
		{"", "", "Sum", "300"},
	})
	assert.True(t, s.SumPopulation().Equal(decimal.NewFromInt(300)))
}

func TestSumPopulationDoesNotDropPlainLastRow(t *testing.T) {
	s := newLoadedSession(t, [][]string{
		{"1", "F-1", "A", "100"},
		{"2", "F-2", "B", "200"},
	})
	assert.True(t, s.SumPopulation().Equal(decimal.NewFromInt(300)))
}

func TestSumPopulationSkipsEmptyRows(t *testing.T) {
	s := newLoadedSession(t, [][]string{
		{"1", "F-1", "A", "100"},
		{"", "", "", ""},
		{"2", "F-2", "B", "200"},
	})
	assert.True(t, s.SumPopulation().Equal(decimal.NewFromInt(300)))
}

func TestPercentageReviewedZeroDenominator(t *testing.T) {
	s := newLoadedSession(t, [][]string{
		{"1", "F-1", "A", "uten beløp"},
	})
	_, err := s.DrawSample(1, 2024)
	require.NoError(t, err)
	require.NoError(t, s.SetDecision(0, DecisionApproved, ""))
	assert.Zero(t, s.PercentageReviewed())
}

func TestNetAmountFallbackColumns(t *testing.T) {
	// "Netto" wins inference but its cells hold nothing parsable; the
	// conventional "Total" column must be tried per row before giving up.
	ds := dataset.New([]string{"Nr", "Fakturanr", "Netto", "Total"}, [][]string{
		{"1", "F-1", "", "150"},
		{"2", "F-2", "ukjent", "250"},
	})
	s := NewSession(zap.NewNop())
	s.SetInvoiceData(ds)
	assert.True(t, s.SumPopulation().Equal(decimal.NewFromInt(400)))
}

func TestSampleFieldPairsSkipsInternalAndBlank(t *testing.T) {
	ds := dataset.New([]string{"Fakturanr", "_netto_float", "Tekst"}, [][]string{
		{"F-1", "408", ""},
	})
	s := NewSession(zap.NewNop())
	s.SetInvoiceData(ds)
	_, err := s.DrawSample(1, 2024)
	require.NoError(t, err)

	pairs, err := s.SampleFieldPairs(0)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Fakturanr", pairs[0].Label)
	assert.Equal(t, "F-1", pairs[0].Value)
}

func TestLedgerStatusDistinctions(t *testing.T) {
	s := newLoadedSession(t, [][]string{
		{"1", "F-1001", "A", "100"},
	})
	_, err := s.DrawSample(1, 2024)
	require.NoError(t, err)

	_, status, err := s.LedgerLinesFor(0)
	require.NoError(t, err)
	assert.Equal(t, LedgerNotLoaded, status)

	glCols := []string{"Fakturanr", "Kontonr", "Kontonavn", "Debet", "Kredit"}
	s.SetLedgerData(dataset.New(glCols, [][]string{
		{"9999", "4000", "Varekjøp", "50", ""},
	}))
	_, status, err = s.LedgerLinesFor(0)
	require.NoError(t, err)
	assert.Equal(t, LedgerNoMatch, status)

	s.SetLedgerData(dataset.New(glCols, [][]string{
		{"1001", "4000", "Varekjøp", "50", ""},
	}))
	res, status, err := s.LedgerLinesFor(0)
	require.NoError(t, err)
	assert.Equal(t, LedgerMatched, status)
	assert.Equal(t, 1, res.Count)
}

// Scenario: 50-row register, reproducible draw, three decisions.
func TestEndToEndScenario(t *testing.T) {
	rows := make([][]string, 50)
	for i := range rows {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("F-%04d", i+1),
			"Leverandør AS",
			fmt.Sprintf("%d", (i+1)*10),
		}
	}
	s := newLoadedSession(t, rows)

	n, err := s.DrawSample(5, 2024)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	first := append([]int(nil), s.SampleIndices()...)

	// Identical parameters reproduce the identical index sequence.
	_, err = s.DrawSample(5, 2024)
	require.NoError(t, err)
	assert.Equal(t, first, s.SampleIndices())

	require.NoError(t, s.SetDecision(0, DecisionApproved, ""))
	require.NoError(t, s.SetDecision(1, DecisionApproved, ""))
	require.NoError(t, s.SetDecision(2, DecisionRejected, "mangler bilag"))

	c := s.DecisionCounts()
	assert.Equal(t, 5, c.Total())
	assert.Equal(t, 2, c.Approved)
	assert.Equal(t, 1, c.Rejected)
	assert.Equal(t, 2, c.Pending)

	want := decimal.Zero
	for _, i := range s.SampleIndices()[:3] {
		want = want.Add(decimal.NewFromInt(int64((i + 1) * 10)))
	}
	assert.True(t, want.Equal(s.SumDecided()), "want %s got %s", want, s.SumDecided())

	amounts := s.AmountsByDecision()
	sum := amounts[DecisionApproved].Add(amounts[DecisionRejected])
	assert.True(t, want.Equal(sum))
}
