package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/MKej88/Bilagskontroll/internal/config"
	"github.com/MKej88/Bilagskontroll/internal/control"
	"github.com/MKej88/Bilagskontroll/internal/dataset"
	"github.com/MKej88/Bilagskontroll/internal/money"
	"github.com/MKej88/Bilagskontroll/internal/report"
	"github.com/MKej88/Bilagskontroll/internal/worker"
	"github.com/MKej88/Bilagskontroll/pkg/utils"
)

var runFlags struct {
	invoicePath   string
	ledgerPath    string
	size          int
	year          int
	outPath       string
	decisionsPath string
	client        string
	clientNumber  string
	reviewer      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Draw a sample, reconcile it against the ledger and write the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.invoicePath, "invoice", "", "invoice register workbook (.xlsx)")
	f.StringVar(&runFlags.ledgerPath, "ledger", "", "general ledger workbook (.xlsx)")
	f.IntVar(&runFlags.size, "size", 0, "sample size (default from config, 10)")
	f.IntVar(&runFlags.year, "year", 0, "audit year, doubles as the sampling seed (default: current year)")
	f.StringVar(&runFlags.outPath, "out", "", "report output path (.xlsx)")
	f.StringVar(&runFlags.decisionsPath, "decisions", "", "YAML file with per-invoice decisions to apply")
	f.StringVar(&runFlags.client, "client", "", "client name (overrides the workbook cover sheet)")
	f.StringVar(&runFlags.clientNumber, "client-number", "", "client number")
	f.StringVar(&runFlags.reviewer, "reviewer", "", "reviewer name shown in the report")

	rootCmd.AddCommand(runCmd)
}

func runControl(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagOverrides(cfg)
	if cfg.Invoice.Path == "" {
		return fmt.Errorf("no invoice register given: set --invoice or invoice.path in the config file")
	}
	if cfg.Sample.Year == 0 {
		cfg.Sample.Year = time.Now().Year()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	session := control.NewSession(logger)
	session.Engagement = control.Engagement{
		Client:       cfg.Engagement.Client,
		ClientNumber: cfg.Engagement.ClientNumber,
		Reviewer:     cfg.Engagement.Reviewer,
	}

	if err := loadDatasets(cmd.Context(), cfg, session, logger); err != nil {
		return err
	}

	drawn, err := session.DrawSample(cfg.Sample.Size, int64(cfg.Sample.Year))
	if err != nil {
		return fmt.Errorf("failed to draw sample: %w", err)
	}
	logger.Info("sample drawn",
		zap.Int("requested", cfg.Sample.Size),
		zap.Int("drawn", drawn),
		zap.Int("year", cfg.Sample.Year))

	if runFlags.decisionsPath != "" {
		applied, err := applyDecisionFile(session, runFlags.decisionsPath)
		if err != nil {
			return fmt.Errorf("failed to apply decisions: %w", err)
		}
		logger.Info("decisions applied",
			zap.String("path", runFlags.decisionsPath),
			zap.Int("applied", applied))
	}

	printSummary(cmd, session)

	payload, err := report.Build(session)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	renderer := report.NewExcelRenderer(logger)
	if err := renderer.Render(payload, cfg.Report.OutputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	cmd.Printf("Rapport skrevet til %s\n", cfg.Report.OutputPath)
	return nil
}

// applyFlagOverrides lets command-line flags win over the config file.
func applyFlagOverrides(cfg *config.Config) {
	if runFlags.invoicePath != "" {
		cfg.Invoice.Path = runFlags.invoicePath
	}
	if runFlags.ledgerPath != "" {
		cfg.Ledger.Path = runFlags.ledgerPath
	}
	if runFlags.size > 0 {
		cfg.Sample.Size = runFlags.size
	}
	if runFlags.year > 0 {
		cfg.Sample.Year = runFlags.year
	}
	if runFlags.outPath != "" {
		cfg.Report.OutputPath = runFlags.outPath
	}
	if runFlags.client != "" {
		cfg.Engagement.Client = runFlags.client
	}
	if runFlags.clientNumber != "" {
		cfg.Engagement.ClientNumber = runFlags.clientNumber
	}
	if runFlags.reviewer != "" {
		cfg.Engagement.Reviewer = runFlags.reviewer
	}
}

// loadDatasets runs the workbook loads through the background manager
// and blocks until every started load has delivered its completion.
func loadDatasets(ctx context.Context, cfg *config.Config, session *control.Session, logger *zap.Logger) error {
	loader := dataset.NewLoader(logger)
	manager := worker.NewLoadManager(loader, logger)

	pending := 1
	manager.LoadInvoice(ctx, cfg.Invoice.Path, cfg.Invoice.HeaderRow)
	if cfg.Ledger.Path != "" {
		pending++
		manager.LoadLedger(ctx, cfg.Ledger.Path)
	}

	for ; pending > 0; pending-- {
		c := <-manager.Completions()
		if errors.Is(c.Err, dataset.ErrEmptyDataset) {
			return fmt.Errorf("the %s workbook opened fine but holds no usable rows: %w", c.Slot, c.Err)
		}
		if c.Err != nil {
			return fmt.Errorf("failed to load %s: %w", c.Slot, c.Err)
		}
		switch c.Slot {
		case worker.SlotInvoice:
			session.SetInvoiceData(c.Dataset)
			if session.Engagement.Client == "" && c.ClientName != "" {
				session.Engagement.Client = c.ClientName
			}
		case worker.SlotLedger:
			session.SetLedgerData(c.Dataset)
		}
	}
	return nil
}

// decisionEntry is one row of the decisions YAML file. Invoice numbers
// match either verbatim or on their digit key, so "F-1001" in the file
// finds "f 1001" in the register.
type decisionEntry struct {
	Invoice  string `yaml:"invoice"`
	Decision string `yaml:"decision"`
	Comment  string `yaml:"comment"`
}

func applyDecisionFile(s *control.Session, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var entries []decisionEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	applied := 0
	for _, e := range entries {
		d, err := parseDecision(e.Decision)
		if err != nil {
			return applied, err
		}
		idx, ok := findSampleRow(s, e.Invoice)
		if !ok {
			return applied, fmt.Errorf("invoice %q is not in the drawn sample", e.Invoice)
		}
		if err := s.SetDecision(idx, d, e.Comment); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func parseDecision(raw string) (control.Decision, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "godkjent":
		return control.DecisionApproved, nil
	case "rejected", "ikke_godkjent", "ikke godkjent":
		return control.DecisionRejected, nil
	case "pending", "":
		return control.DecisionPending, nil
	}
	return control.DecisionPending, fmt.Errorf("unknown decision %q (want approved, rejected or pending)", raw)
}

// findSampleRow resolves an invoice number to its sample position,
// trying a verbatim match before falling back to the digit key. Session
// accessors take sample positions, not dataset row indices.
func findSampleRow(s *control.Session, invoice string) (int, bool) {
	key := money.OnlyDigits(invoice)
	fallback, haveFallback := -1, false
	for pos := range s.SampleIndices() {
		num, err := s.InvoiceNumberFor(pos)
		if err != nil {
			continue
		}
		if num == invoice {
			return pos, true
		}
		if !haveFallback && key != "" && money.OnlyDigits(num) == key {
			fallback, haveFallback = pos, true
		}
	}
	return fallback, haveFallback
}

func printSummary(cmd *cobra.Command, s *control.Session) {
	counts := s.DecisionCounts()
	cmd.Printf("Utvalg: %d av %d bilag (seed %d)\n",
		s.SampleSize(), s.PopulationCount(), s.Seed())
	cmd.Printf("Sum kontrollert: %s kr\n", money.FormatMoneyDecimal(s.SumDecided()))
	cmd.Printf("Sum populasjon:  %s kr\n", money.FormatMoneyDecimal(s.SumPopulation()))
	cmd.Printf("Kontrollert:     %s\n", money.FormatPercent(s.PercentageReviewed()))
	cmd.Printf("Godkjent: %d   Ikke godkjent: %d   Gjenstår: %d\n",
		counts.Approved, counts.Rejected, counts.Pending)
}
