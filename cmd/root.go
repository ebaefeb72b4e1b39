package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quote-audit/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "quote-audit",
	Short: "Audit customer-facing quote documents against CPQ transactions",
	Long:  "Extracts pricing fields from quote documents (XLSX, HTML, PDF), fetches the authoritative transaction from the CPQ API, and reports every field and line-item discrepancy.",
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
