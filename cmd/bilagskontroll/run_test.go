package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MKej88/Bilagskontroll/internal/control"
	"github.com/MKej88/Bilagskontroll/internal/dataset"
	"github.com/MKej88/Bilagskontroll/internal/money"
)

// newDrawnSession builds a register of rowCount invoices numbered
// F-0001.. and draws a sample from it.
func newDrawnSession(t *testing.T, rowCount, sampleSize int, seed int64) *control.Session {
	t.Helper()
	cols := []string{"Nr", "Fakturanr", "Beløp"}
	rows := make([][]string, rowCount)
	for i := range rows {
		rows[i] = []string{strconv.Itoa(i + 1), fmt.Sprintf("F-%04d", i+1), "100,00"}
	}
	s := control.NewSession(zap.NewNop())
	s.SetInvoiceData(dataset.New(cols, rows))
	_, err := s.DrawSample(sampleSize, seed)
	require.NoError(t, err)
	return s
}

func TestFindSampleRowResolvesEverySampledInvoice(t *testing.T) {
	// With 50 rows and a sample of 5 most drawn row indices exceed the
	// sample size, so position and row index must not be conflated.
	s := newDrawnSession(t, 50, 5, 2024)

	for pos := 0; pos < s.SampleSize(); pos++ {
		num, err := s.InvoiceNumberFor(pos)
		require.NoError(t, err)

		got, ok := findSampleRow(s, num)
		require.True(t, ok, "invoice %q (position %d) not found", num, pos)
		assert.Equal(t, pos, got)
	}
}

func TestFindSampleRowDigitKeyFallback(t *testing.T) {
	s := newDrawnSession(t, 50, 5, 2024)

	num, err := s.InvoiceNumberFor(2)
	require.NoError(t, err)

	// A decorated spelling with the same digit sequence still resolves.
	got, ok := findSampleRow(s, "Faktura "+money.OnlyDigits(num))
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestFindSampleRowUnknownInvoice(t *testing.T) {
	s := newDrawnSession(t, 10, 3, 7)
	_, ok := findSampleRow(s, "F-9999")
	assert.False(t, ok)
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		raw     string
		want    control.Decision
		wantErr bool
	}{
		{"approved", control.DecisionApproved, false},
		{"  Godkjent ", control.DecisionApproved, false},
		{"rejected", control.DecisionRejected, false},
		{"IKKE GODKJENT", control.DecisionRejected, false},
		{"ikke_godkjent", control.DecisionRejected, false},
		{"pending", control.DecisionPending, false},
		{"", control.DecisionPending, false},
		{"kanskje", control.DecisionPending, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseDecision(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyDecisionFileRoundTrip(t *testing.T) {
	s := newDrawnSession(t, 50, 5, 2024)

	first, err := s.InvoiceNumberFor(0)
	require.NoError(t, err)
	second, err := s.InvoiceNumberFor(1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "decisions.yaml")
	content := fmt.Sprintf(`- invoice: %q
  decision: approved
  comment: Bilag OK
- invoice: %q
  decision: rejected
  comment: Mangler kvittering
`, first, second)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	applied, err := applyDecisionFile(s, path)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	rec, err := s.Record(0)
	require.NoError(t, err)
	assert.Equal(t, control.DecisionApproved, rec.Decision)
	assert.Equal(t, "Bilag OK", rec.Comment)

	rec, err = s.Record(1)
	require.NoError(t, err)
	assert.Equal(t, control.DecisionRejected, rec.Decision)
	assert.Equal(t, "Mangler kvittering", rec.Comment)

	counts := s.DecisionCounts()
	assert.Equal(t, 1, counts.Approved)
	assert.Equal(t, 1, counts.Rejected)
	assert.Equal(t, 3, counts.Pending)
}

func TestApplyDecisionFileUnknownInvoice(t *testing.T) {
	s := newDrawnSession(t, 10, 3, 7)

	path := filepath.Join(t.TempDir(), "decisions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- invoice: F-9999\n  decision: approved\n"), 0o644))

	_, err := applyDecisionFile(s, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "F-9999")
}

func TestApplyDecisionFileInvalidYAML(t *testing.T) {
	s := newDrawnSession(t, 10, 3, 7)

	path := filepath.Join(t.TempDir(), "decisions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("invoice: [unclosed"), 0o644))

	_, err := applyDecisionFile(s, path)
	require.Error(t, err)
}
