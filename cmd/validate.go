package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quote-audit/internal/fetcher"
	"github.com/sells-group/quote-audit/internal/model"
	"github.com/sells-group/quote-audit/internal/report"
	sfpkg "github.com/sells-group/quote-audit/pkg/salesforce"
)

var (
	validateTransactionID string
	validateQuoteNumber   string
	validateOpportunity   string
	validateDocument      string
	validateOut           string
	validateJSON          bool
	validateXLSX          bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Audit a quote document against its CPQ transaction",
	Long:  "Fetches the transaction from the CPQ API, extracts fields from the document, compares every attribute and line item, and prints the verdict. Exits 1 when the document does not match.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		transactionID, err := resolveTransactionID(ctx, validateTransactionID, validateQuoteNumber, validateOpportunity)
		if err != nil {
			return err
		}

		doc, err := fetcher.ReadLocal(validateDocument)
		if err != nil {
			return err
		}

		env, err := initAudit(ctx, nil)
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Pipeline.Run(ctx, transactionID, doc)
		if err != nil {
			return eris.Wrap(err, "validate")
		}

		fmt.Println(report.Summary(run.Result))

		if err := writeReports(run.Result, validateOut, validateJSON, validateXLSX); err != nil {
			return err
		}

		if run.Result.OverallStatus == model.StatusFailed {
			cmd.SilenceUsage = true
			return eris.Errorf("%d of %d checks failed", run.Result.Mismatches, run.Result.TotalChecked)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateTransactionID, "transaction-id", "", "CPQ transaction ID")
	validateCmd.Flags().StringVar(&validateQuoteNumber, "quote-number", "", "resolve the transaction ID from this quote number via Salesforce")
	validateCmd.Flags().StringVar(&validateOpportunity, "opportunity", "", "resolve the transaction ID from this opportunity's primary quote via Salesforce")
	validateCmd.Flags().StringVar(&validateDocument, "document", "", "path to the quote document (required)")
	validateCmd.Flags().StringVar(&validateOut, "out", "", "directory for report files (default current directory)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "write a JSON report")
	validateCmd.Flags().BoolVar(&validateXLSX, "xlsx", false, "write an XLSX report")
	_ = validateCmd.MarkFlagRequired("document")
	rootCmd.AddCommand(validateCmd)
}

// resolveTransactionID returns the explicit ID when given, otherwise looks
// the transaction up in Salesforce by quote number or opportunity.
func resolveTransactionID(ctx context.Context, transactionID, quoteNumber, opportunityID string) (string, error) {
	if transactionID != "" {
		return transactionID, nil
	}
	if quoteNumber == "" && opportunityID == "" {
		return "", eris.New("one of --transaction-id, --quote-number, or --opportunity is required")
	}

	sfClient, err := initSalesforce()
	if err != nil {
		return "", err
	}
	if sfClient == nil {
		return "", eris.New("salesforce discovery requires QUOTEAUDIT_SALESFORCE_CLIENT_ID")
	}

	if quoteNumber != "" {
		return sfpkg.ResolveTransactionID(ctx, sfClient, quoteNumber)
	}
	return sfpkg.ResolveTransactionIDByOpportunity(ctx, sfClient, opportunityID)
}

// writeReports writes the requested report files into outDir, named after
// the transaction.
func writeReports(res *model.ValidationResult, outDir string, asJSON, asXLSX bool) error {
	if !asJSON && !asXLSX {
		return nil
	}
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrapf(err, "create report dir %s", outDir)
	}

	base := filepath.Join(outDir, "validation_"+res.TransactionID)
	if asJSON {
		path := base + ".json"
		if err := report.WriteJSON(res, path); err != nil {
			return err
		}
		zap.L().Info("report written", zap.String("path", path))
	}
	if asXLSX {
		path := base + ".xlsx"
		if err := report.WriteXLSX(res, path); err != nil {
			return err
		}
		zap.L().Info("report written", zap.String("path", path))
	}
	return nil
}
