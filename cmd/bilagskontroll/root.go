package main

import (
	"github.com/spf13/cobra"
)

// cfgFile is the optional path to a YAML configuration file; flags
// override whatever it holds.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bilagskontroll",
	Short: "Manuell bilagskontroll: reproduserbart utvalg og avstemming mot hovedbok",
	Long: `Bilagskontroll draws a reproducible random sample from an invoice
register, reconciles each sampled invoice against its general-ledger
postings, tracks approve/reject decisions with running control totals,
and writes a printable audit report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")
}
