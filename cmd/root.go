package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ratiocheck",
	Short: "Mathematical integrity and matching pipeline for XBRL filings",
	Long:  "Extracts iXBRL facts, reconciles them against parsed and mapped sources, matches standard components, verifies matches against accounting identities, and calculates industry-aware financial ratios.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
