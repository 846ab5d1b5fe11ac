package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "revwatch",
	Short: "Revenue leakage and margin watchdog",
	Long:  "Ingests deal data from CSV/XLSX/TXT/PDF files or Salesforce, normalizes it, and flags revenue-leakage risks via an LLM provider or a deterministic rule engine.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
