package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/MKej88/Bilagskontroll/internal/control"
	"github.com/MKej88/Bilagskontroll/internal/money"
)

const reportSheet = "Bilagskontroll"

var ledgerHeader = []interface{}{
	"Kontonr", "Konto", "Beskrivelse", "MVA", "MVA-beløp", "Beløp", "Postert av",
}

// ExcelRenderer writes a Payload to a workbook. It is the bundled
// default renderer; alternative document formats stay with external
// collaborators.
type ExcelRenderer struct {
	logger *zap.Logger
}

// NewExcelRenderer creates a new ExcelRenderer.
func NewExcelRenderer(logger *zap.Logger) *ExcelRenderer {
	return &ExcelRenderer{logger: logger}
}

// Render writes the report workbook to path.
func (r *ExcelRenderer) Render(p *Payload, path string) error {
	r.logger.Info("Writing report workbook",
		zap.String("path", path),
		zap.Int("invoices", len(p.Invoices)))

	f := excelize.NewFile()
	defer f.Close()
	idx, err := f.NewSheet(reportSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	row := 1
	set := func(cells ...interface{}) {
		if err := f.SetSheetRow(reportSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			r.logger.Warn("Failed to set report row", zap.Int("row", row), zap.Error(err))
		}
		row++
	}

	set("Bilagskontroll – Rapport")
	set(p.GeneratedAt.Format("02.01.2006 15:04"))
	row++

	if p.Engagement.Client != "" {
		set("Kunde", p.Engagement.Client)
	}
	if p.Engagement.ClientNumber != "" {
		set("Kundenr", p.Engagement.ClientNumber)
	}
	if p.Engagement.Reviewer != "" {
		set("Utført av", p.Engagement.Reviewer)
	}
	set("Utvalg", p.SampleSize, "År", p.Seed)
	row++

	c := p.Totals.Counts
	set("Sum kontrollert", money.FormatMoneyDecimal(p.Totals.SumDecided)+" kr")
	set("Sum alle bilag", money.FormatMoneyDecimal(p.Totals.SumPopulation)+" kr")
	set("% kontrollert av sum", money.FormatPercent(p.Totals.PercentDecided))
	set("Godkjent", c.Approved, money.FormatMoneyDecimal(p.Totals.Amounts[control.DecisionApproved])+" kr")
	set("Ikke godkjent", c.Rejected, money.FormatMoneyDecimal(p.Totals.Amounts[control.DecisionRejected])+" kr")
	set("Gjenstår", c.Pending, money.FormatMoneyDecimal(p.Totals.Amounts[control.DecisionPending])+" kr")
	row++

	for _, inv := range p.Invoices {
		set(fmt.Sprintf("Bilag %d/%d – Fakturanr: %s", inv.Position, p.SampleSize, inv.InvoiceNumber))
		set("Felt", "Verdi")
		for _, fld := range inv.Fields {
			set(fld.Label, fld.Value)
		}
		set("Beslutning", decisionLabel(inv.Decision))
		set("Kommentar", inv.Comment)
		row++

		r.writeLedger(set, inv)
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (r *ExcelRenderer) writeLedger(set func(...interface{}), inv InvoiceSection) {
	switch inv.Ledger.Status {
	case control.LedgerNotLoaded:
		set("Ingen hovedbok lastet.")
		return
	case control.LedgerNoMatch:
		set("Ingen bokføringslinjer for dette fakturanummeret.")
		return
	}
	set(ledgerHeader...)
	for _, l := range inv.Ledger.Lines {
		amount := ""
		if l.HasAmount {
			amount = money.FormatMoneyDecimal(l.Amount)
		}
		set(l.AccountNumber, l.AccountName, l.Description, l.VatCode, l.VatAmount, amount, l.PostedBy)
	}
	set("", "", "", "", "Sum:", money.FormatMoneyDecimal(inv.Ledger.Sum), fmt.Sprintf("Linjer: %d", inv.Ledger.Count))
}

// decisionLabel maps a decision to the Norwegian label the report uses.
func decisionLabel(d control.Decision) string {
	switch d {
	case control.DecisionApproved:
		return "Godkjent"
	case control.DecisionRejected:
		return "Ikke godkjent"
	default:
		return ""
	}
}
